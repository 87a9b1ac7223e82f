// flipbook renders walk-through flip-books: one perspective line drawing per
// camera shot, with hidden lines removed.
//
// Usage:
//
//	flipbook render  [options] scene.yaml   Write the flip-book PDF
//	flipbook png     [options] scene.yaml   Write one PNG per page
//	flipbook preview [options] scene.yaml   Page through the shots in the terminal
//	flipbook info    model.obj|model.glb    Show mesh statistics
//	flipbook config  [path]                 Write the default config
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/taigrr/flipbook/internal/config"
	"github.com/taigrr/flipbook/internal/logger"
	"github.com/taigrr/flipbook/pkg/models"
	"github.com/taigrr/flipbook/pkg/render"
	"github.com/taigrr/flipbook/pkg/scene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch command {
	case "render", "pdf":
		err = cmdRender(ctx, args)
	case "png":
		err = cmdPNG(ctx, args)
	case "preview", "view":
		err = cmdPreview(ctx, args)
	case "info":
		err = cmdInfo(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("flipbook failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Sync()
}

func printUsage() {
	fmt.Println(`flipbook - walk-through flip-book renderer

Usage:
  flipbook <command> [options]

Commands:
  render  [-o out.pdf] <scene.yaml>   Render the flip-book PDF
  png     [-dir pages] <scene.yaml>   Render one PNG per page
  preview <scene.yaml>                Page through shots in the terminal
  info    <model.obj|model.glb>       Show mesh statistics
  config  [path]                      Write the default config

Common options:
  -config <file>   Config file (default ./flipbook.yaml or the user config dir)
  -debug           Enable debug logging
  -log <file>      Also write logs to file
  -workers <n>     Shots rendered at once

Examples:
  flipbook render -o tour.pdf tour.yaml
  flipbook preview -config studio.yaml tour.yaml
  flipbook info models/chair.obj`)
}

// session is everything a rendering command needs.
type session struct {
	cfg      *config.Config
	lib      *models.Library
	walk     *scene.WalkThru
	renderer *render.Renderer
}

// parseCommon parses args with the shared flags and returns the config and
// the remaining arguments.
func parseCommon(fs *flag.FlagSet, args []string) (*config.Config, []string, error) {
	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// openSession loads the object library and the scene named by args.
func openSession(ctx context.Context, cfg *config.Config, args []string, usage string) (*session, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: %s", usage)
	}

	lib, err := models.LoadLibrary(ctx, cfg.Library, logger.Named("library"))
	if err != nil {
		return nil, err
	}

	walk, err := scene.LoadFile(args[0], lib, cfg.Scene.Bounds)
	if err != nil {
		return nil, err
	}
	logger.Info("scene loaded",
		zap.String("path", args[0]),
		zap.Int("shots", walk.ShotCount()),
		zap.Int("placements", len(walk.Placements())))
	if len(walk.Placements()) == 0 {
		logger.Warn("scene has no placements; every page will be blank", zap.String("path", args[0]))
	}
	for _, name := range lib.Names() {
		h, _ := lib.Lookup(name)
		if m, ok := lib.Mesh(h); ok && m.BoundaryEdgeCount() > 0 {
			logger.Warn("open mesh; lines behind its holes stay visible",
				zap.String("object", name),
				zap.Int("boundary_edges", m.BoundaryEdgeCount()))
		}
	}

	return &session{
		cfg:      cfg,
		lib:      lib,
		walk:     walk,
		renderer: render.NewRenderer(lib, cfg.RendererOptions(logger.Named("render"))...),
	}, nil
}

func cmdRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	out := fs.String("o", "", "Output PDF (default from config)")
	cfg, rest, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}

	s, err := openSession(ctx, cfg, rest, "flipbook render [-o out.pdf] <scene.yaml>")
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = cfg.Output.PDF
	}
	title := strings.TrimSuffix(filepath.Base(rest[0]), filepath.Ext(rest[0]))
	pdf := render.NewPDFWriter(cfg.Page, title)
	if err := s.renderer.RenderTo(ctx, s.walk, pdf); err != nil {
		return err
	}
	if err := pdf.Save(path); err != nil {
		return err
	}
	logger.Info("flip-book written", zap.String("path", path), zap.Int("pages", pdf.PageCount()))
	return nil
}

// pngSink writes each page as a numbered PNG in dir.
type pngSink struct {
	dir    string
	layout render.PageLayout
	width  int
	count  int
}

func (p *pngSink) WritePage(page render.Page) error {
	fb := render.RasterizePage(page, p.layout, p.width)
	path := filepath.Join(p.dir, fmt.Sprintf("page-%03d.png", page.Index+1))
	if err := fb.SavePNG(path); err != nil {
		return err
	}
	p.count++
	logger.Debug("page written", zap.String("path", path))
	return nil
}

func cmdPNG(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("png", flag.ExitOnError)
	dir := fs.String("dir", "", "Output directory (default from config)")
	width := fs.Int("width", 0, "Page width in pixels (default from config)")
	cfg, rest, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}

	s, err := openSession(ctx, cfg, rest, "flipbook png [-dir pages] <scene.yaml>")
	if err != nil {
		return err
	}

	sink := &pngSink{dir: cfg.Output.PNGDir, layout: cfg.Page, width: cfg.Output.PNGWidth}
	if *dir != "" {
		sink.dir = *dir
	}
	if *width > 0 {
		sink.width = *width
	}
	if err := os.MkdirAll(sink.dir, 0o755); err != nil {
		return err
	}
	if err := s.renderer.RenderTo(ctx, s.walk, sink); err != nil {
		return err
	}
	logger.Info("pages written", zap.String("dir", sink.dir), zap.Int("pages", sink.count))
	return nil
}

func cmdPreview(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	cfg, rest, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	// The terminal belongs to the preview; log to the file only.
	if err := logger.InitWithFileConfig(cfg.Logging.Level, logFileConfig(cfg), false); err != nil {
		return err
	}

	s, err := openSession(ctx, cfg, rest, "flipbook preview <scene.yaml>")
	if err != nil {
		return err
	}
	return runPreview(ctx, s)
}

func logFileConfig(cfg *config.Config) logger.FileConfig {
	if cfg.Logging.LogFile == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(cfg.Logging.LogFile)
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	flipped := fs.Bool("flipped", false, "OBJ only: the file's Y axis is up")
	cfg, rest, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}
	if len(rest) < 1 {
		return fmt.Errorf("usage: flipbook info [-flipped] <model.obj|model.glb>")
	}

	mesh, err := models.LoadFile(rest[0], *flipped)
	if err != nil {
		return err
	}

	lo, hi := mesh.Bounds()
	fmt.Printf("Model:     %s\n", rest[0])
	fmt.Printf("Vertices:  %d\n", mesh.VertexCount())
	fmt.Printf("Triangles: %d\n", mesh.TriangleCount())
	fmt.Printf("Edges:     %d (%d boundary)\n", mesh.EdgeCount(), mesh.BoundaryEdgeCount())
	fmt.Printf("Bounds:    (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
	return nil
}

func cmdConfig(args []string) error {
	path := "flipbook.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Default().SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
