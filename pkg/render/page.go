package render

import (
	"image/color"

	"github.com/taigrr/flipbook/pkg/math3d"
)

// Page styling, in millimetres.
const (
	LineWidthMM = 0.1
	DotRadiusMM = 0.35
)

var (
	// LineColor is the ink used for visible edges.
	LineColor = color.RGBA{25, 25, 25, 255}
	// DotColor fills the vertex dots.
	DotColor = color.RGBA{0, 96, 128, 255}
	// PaperColor is the page background.
	PaperColor = color.RGBA{255, 255, 255, 255}
)

// PageLayout places the image plane on a flip-book card. One image unit is
// UnitMM millimetres; image x = -1 is the left edge of the card and image
// y = HorizonY is its top edge.
type PageLayout struct {
	WidthMM  float64 `yaml:"width_mm"`
	HeightMM float64 `yaml:"height_mm"`
	UnitMM   float64 `yaml:"unit_mm"`
	HorizonY float64 `yaml:"horizon_y"`
}

// DefaultPageLayout returns the card used by the printed flip-books.
func DefaultPageLayout() PageLayout {
	return PageLayout{
		WidthMM:  54,
		HeightMM: 86,
		UnitMM:   27,
		HorizonY: 2,
	}
}

// ToPage maps an image-plane point to page millimetres, y growing downward.
func (l PageLayout) ToPage(p math3d.Vec2) math3d.Vec2 {
	return math3d.V2((p.X+1)*l.UnitMM, (l.HorizonY-p.Y)*l.UnitMM)
}

// Segment is a visible piece of an edge on the page.
type Segment struct {
	A, B math3d.Vec2
}

// Page is the drawing for one shot, in page millimetres.
type Page struct {
	Index    int
	Segments []Segment
	Dots     []math3d.Vec2
}

// DrawTarget receives the strokes of a page.
type DrawTarget interface {
	Line(a, b math3d.Vec2)
	Dot(center math3d.Vec2, radius float64)
}

// Draw sends every segment and then every dot to t.
func (p Page) Draw(t DrawTarget) {
	for _, s := range p.Segments {
		t.Line(s.A, s.B)
	}
	for _, d := range p.Dots {
		t.Dot(d, DotRadiusMM)
	}
}

// PageSink consumes rendered pages in shot order.
type PageSink interface {
	WritePage(p Page) error
}

// PageCollector is a PageSink that keeps every page.
type PageCollector struct {
	Pages []Page
}

// WritePage implements PageSink.
func (c *PageCollector) WritePage(p Page) error {
	c.Pages = append(c.Pages, p)
	return nil
}
