package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"

	"github.com/taigrr/flipbook/internal/logger"
	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/render"
	"github.com/taigrr/flipbook/pkg/scene"
)

// settleTolerance is how close a tweened axis must be to its target, with
// negligible velocity, before the cached page is shown again.
const settleTolerance = 1e-3

// firstShot is the step that jumps back to the start of the walk-through.
const firstShot = math.MinInt

// springAxis is one spring-driven coordinate of the preview camera.
type springAxis struct {
	Position float64
	Velocity float64
	Target   float64
	spring   harmonica.Spring
}

func newSpringAxis(fps int, frequency, damping, at float64) springAxis {
	return springAxis{
		Position: at,
		Target:   at,
		spring:   harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
	}
}

func (a *springAxis) Update() {
	a.Position, a.Velocity = a.spring.Update(a.Position, a.Velocity, a.Target)
}

func (a *springAxis) Settled() bool {
	return math.Abs(a.Position-a.Target) < settleTolerance && math.Abs(a.Velocity) < settleTolerance
}

func (a *springAxis) Snap() {
	a.Position, a.Velocity = a.Target, 0
}

// shotTween glides the camera from one shot to the next.
type shotTween struct {
	X, Y, Heading springAxis
}

func newShotTween(fps int, frequency, damping float64, s scene.Shot) *shotTween {
	return &shotTween{
		X:       newSpringAxis(fps, frequency, damping, s.Position.X),
		Y:       newSpringAxis(fps, frequency, damping, s.Position.Y),
		Heading: newSpringAxis(fps, frequency, damping, s.Heading()),
	}
}

// Aim sets a new target shot. The heading target is unwrapped so the camera
// turns the short way round.
func (t *shotTween) Aim(s scene.Shot) {
	t.X.Target = s.Position.X
	t.Y.Target = s.Position.Y
	turn := math.Remainder(s.Heading()-t.Heading.Position, 2*math.Pi)
	t.Heading.Target = t.Heading.Position + turn
}

func (t *shotTween) Update() {
	t.X.Update()
	t.Y.Update()
	t.Heading.Update()
}

func (t *shotTween) Settled() bool {
	return t.X.Settled() && t.Y.Settled() && t.Heading.Settled()
}

func (t *shotTween) Snap() {
	t.X.Snap()
	t.Y.Snap()
	t.Heading.Snap()
}

// Shot is the in-between camera.
func (t *shotTween) Shot() scene.Shot {
	dir := math3d.V2(1, 0).Rotate(t.Heading.Position)
	return scene.NewShot(math3d.V3(t.X.Position, t.Y.Position, 0), dir.Vec3(0))
}

// sendStep queues a shot step for the frame loop. It reports false once ctx
// is done, so the event reader never blocks on a loop that has exited.
func sendStep(ctx context.Context, steps chan<- int, step int) bool {
	select {
	case steps <- step:
		return true
	case <-ctx.Done():
		return false
	}
}

// previewScreen is the framebuffer sized for the terminal, two pixel rows per
// cell.
type previewScreen struct {
	width, height int
	fb            *render.Framebuffer
	plotter       *render.Plotter
}

func newPreviewScreen(width, height int, layout render.PageLayout) *previewScreen {
	fb := render.NewFramebuffer(width, height*2)
	return &previewScreen{
		width:   width,
		height:  height,
		fb:      fb,
		plotter: render.NewPlotter(fb, layout),
	}
}

// runPreview pages through the walk-through in the terminal. o and i (or the
// arrow keys) step to the next and previous shot, and the camera springs
// between them.
func runPreview(ctx context.Context, s *session) error {
	log := logger.Named("preview")

	pages, err := s.renderer.Render(ctx, s.walk)
	if err != nil {
		return err
	}
	objects, err := s.renderer.BuildObjects(s.walk)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	steps := make(chan int, 8)
	sizes := make(chan [2]int, 1)

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				select {
				case <-sizes:
				default:
				}
				sizes <- [2]int{ev.Width, ev.Height}

			case uv.KeyPressEvent:
				step := 0
				switch {
				case ev.MatchString("escape", "ctrl+c", "q"):
					cancel()
					return
				case ev.MatchString("o", "right", "down", "space"):
					step = 1
				case ev.MatchString("i", "left", "up"):
					step = -1
				case ev.MatchString("home"):
					step = firstShot
				}
				if step != 0 && !sendStep(ctx, steps, step) {
					return
				}
			}
		}
	}()

	opts := s.cfg.Preview
	current := 0
	first, _ := s.walk.Shot(current)
	tween := newShotTween(opts.FPS, opts.Frequency, opts.Damping, first)
	screen := newPreviewScreen(width, height, s.renderer.Layout())
	dirty := true

	targetDuration := time.Second / time.Duration(opts.FPS)

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()

	drain:
		for {
			select {
			case size := <-sizes:
				width, height = size[0], size[1]
				term.Erase()
				term.Resize(width, height)
				screen = newPreviewScreen(width, height, s.renderer.Layout())
				dirty = true
			case step := <-steps:
				switch step {
				case firstShot:
					current = 0
				case 1:
					current = s.walk.NextShot(current)
				default:
					current = s.walk.PrevShot(current)
				}
				shot, _ := s.walk.Shot(current)
				tween.Aim(shot)
				log.Debug("shot", zap.Int("index", current))
			default:
				break drain
			}
		}

		page := pages[current]
		if !tween.Settled() {
			tween.Update()
			if tween.Settled() {
				tween.Snap()
			} else {
				page = s.renderer.RenderShot(tween.Shot(), objects)
			}
			dirty = true
		}

		if dirty {
			screen.plotter.Plot(page)
			screen.fb.Draw(term, uv.Rect(0, 0, screen.width, screen.height))
			if err := term.Display(); err != nil {
				cleanup()
				return fmt.Errorf("display: %w", err)
			}
			dirty = false
		}

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
