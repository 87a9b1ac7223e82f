package render

import (
	"math"

	"github.com/taigrr/flipbook/pkg/math3d"
)

// Plotter draws pages into a Framebuffer, scaling millimetres to pixels.
type Plotter struct {
	fb    *Framebuffer
	scale float64 // pixels per millimetre
	off   math3d.Vec2
	ink   Color
	dot   Color
}

// NewPlotter fits a page of layout into fb, centered, keeping the aspect
// ratio.
func NewPlotter(fb *Framebuffer, layout PageLayout) *Plotter {
	scale := math.Min(float64(fb.Width)/layout.WidthMM, float64(fb.Height)/layout.HeightMM)
	return &Plotter{
		fb:    fb,
		scale: scale,
		off: math3d.V2(
			(float64(fb.Width)-layout.WidthMM*scale)/2,
			(float64(fb.Height)-layout.HeightMM*scale)/2,
		),
		ink: LineColor,
		dot: DotColor,
	}
}

// toPixel maps page millimetres to framebuffer coordinates.
func (p *Plotter) toPixel(mm math3d.Vec2) math3d.Vec2 {
	return mm.Scale(p.scale).Add(p.off)
}

// Line implements DrawTarget.
func (p *Plotter) Line(a, b math3d.Vec2) {
	pa, pb := p.toPixel(a), p.toPixel(b)
	p.fb.DrawLine(int(math.Floor(pa.X)), int(math.Floor(pa.Y)), int(math.Floor(pb.X)), int(math.Floor(pb.Y)), p.ink)
}

// Dot implements DrawTarget.
func (p *Plotter) Dot(c math3d.Vec2, r float64) {
	pc := p.toPixel(c)
	p.fb.DrawDisc(pc.X, pc.Y, r*p.scale, p.dot)
}

// Plot clears the framebuffer to paper and draws page onto it.
func (p *Plotter) Plot(page Page) {
	p.fb.Clear(PaperColor)
	page.Draw(p)
}

// RasterizePage draws page into a new framebuffer of the given width, sized
// to the page's aspect ratio.
func RasterizePage(page Page, layout PageLayout, width int) *Framebuffer {
	height := int(math.Round(float64(width) * layout.HeightMM / layout.WidthMM))
	fb := NewFramebuffer(width, max(height, 1))
	NewPlotter(fb, layout).Plot(page)
	return fb
}
