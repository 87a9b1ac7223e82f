// Package config handles flipbook configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/taigrr/flipbook/pkg/models"
	"github.com/taigrr/flipbook/pkg/render"
	"github.com/taigrr/flipbook/pkg/scene"
)

// Config holds all flipbook settings.
type Config struct {
	Library []models.Entry    `yaml:"library"`
	Scene   SceneConfig       `yaml:"scene"`
	Render  RenderConfig      `yaml:"render"`
	Page    render.PageLayout `yaml:"page"`
	Preview PreviewConfig     `yaml:"preview"`
	Output  OutputConfig      `yaml:"output"`
	Logging LoggingConfig     `yaml:"logging"`
}

// SceneConfig holds the floor that placements must stay on.
type SceneConfig struct {
	Bounds scene.Bounds `yaml:"bounds"`
}

// RenderConfig holds hidden-line rendering settings.
type RenderConfig struct {
	DepthEpsilon float64 `yaml:"depth_epsilon"`
	NearDepth    float64 `yaml:"near_depth"`
	Workers      int     `yaml:"workers"` // 0 means one per CPU
}

// PreviewConfig holds terminal preview settings.
type PreviewConfig struct {
	FPS       int     `yaml:"fps"`
	Frequency float64 `yaml:"frequency"` // spring angular frequency
	Damping   float64 `yaml:"damping"`   // spring damping ratio
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	PDF      string `yaml:"pdf"`
	PNGDir   string `yaml:"png_dir"`
	PNGWidth int    `yaml:"png_width"` // pixels
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scene: SceneConfig{
			Bounds: scene.DefaultBounds(),
		},
		Render: RenderConfig{
			DepthEpsilon: render.DefaultDepthEpsilon,
			NearDepth:    render.DefaultNearDepth,
			Workers:      0,
		},
		Page: render.DefaultPageLayout(),
		Preview: PreviewConfig{
			FPS:       30,
			Frequency: 6.0,
			Damping:   1.0,
		},
		Output: OutputConfig{
			PDF:      "flipbook.pdf",
			PNGDir:   "pages",
			PNGWidth: 540,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings that cannot produce a flip-book.
func (c *Config) Validate() error {
	var errs []error
	b := c.Scene.Bounds
	if b.Right <= b.Left || b.Top <= b.Bottom {
		errs = append(errs, fmt.Errorf("scene bounds %+v are empty", b))
	}
	if c.Render.DepthEpsilon < 0 {
		errs = append(errs, fmt.Errorf("render.depth_epsilon %g is negative", c.Render.DepthEpsilon))
	}
	if c.Render.NearDepth <= 0 {
		errs = append(errs, fmt.Errorf("render.near_depth %g must be positive", c.Render.NearDepth))
	}
	if c.Render.Workers < 0 {
		errs = append(errs, fmt.Errorf("render.workers %d is negative", c.Render.Workers))
	}
	if c.Page.WidthMM <= 0 || c.Page.HeightMM <= 0 || c.Page.UnitMM <= 0 {
		errs = append(errs, fmt.Errorf("page %+v has no area", c.Page))
	}
	if c.Preview.FPS <= 0 {
		errs = append(errs, fmt.Errorf("preview.fps %d must be positive", c.Preview.FPS))
	}
	seen := make(map[string]bool, len(c.Library))
	for _, e := range c.Library {
		if e.Name == "" || e.Path == "" {
			errs = append(errs, fmt.Errorf("library entry %+v needs a name and a path", e))
			continue
		}
		if seen[e.Name] {
			errs = append(errs, fmt.Errorf("library entry %q is listed twice", e.Name))
		}
		seen[e.Name] = true
	}
	return errors.Join(errs...)
}

// Workers returns the number of shots to render at once.
func (c *Config) Workers() int {
	if c.Render.Workers > 0 {
		return c.Render.Workers
	}
	return runtime.NumCPU()
}

// RendererOptions returns the renderer settings of c.
func (c *Config) RendererOptions(log *zap.Logger) []render.Option {
	return []render.Option{
		render.WithDepthEpsilon(c.Render.DepthEpsilon),
		render.WithNearDepth(c.Render.NearDepth),
		render.WithPageLayout(c.Page),
		render.WithWorkers(c.Workers()),
		render.WithLogger(log),
	}
}
