package render

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/scene"
)

func TestPageLayoutToPage(t *testing.T) {
	l := DefaultPageLayout()

	tests := []struct {
		name string
		in   math3d.Vec2
		want math3d.Vec2
	}{
		{"image center", math3d.V2(0, 0), math3d.V2(27, 54)},
		{"top left corner", math3d.V2(-1, 2), math3d.V2(0, 0)},
		{"bottom right corner", math3d.V2(1, -1.185185185185185), math3d.V2(54, 86)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.ToPage(tt.in)
			assert.True(t, got.ApproxEqual(tt.want, 1e-9), "got %v, want %v", got, tt.want)
		})
	}
}

type recorder struct {
	lines [][2]math3d.Vec2
	dots  []math3d.Vec2
	radii []float64
}

func (r *recorder) Line(a, b math3d.Vec2) { r.lines = append(r.lines, [2]math3d.Vec2{a, b}) }

func (r *recorder) Dot(c math3d.Vec2, radius float64) {
	r.dots = append(r.dots, c)
	r.radii = append(r.radii, radius)
}

func TestPageDraw(t *testing.T) {
	p := Page{
		Segments: []Segment{
			{A: math3d.V2(1, 1), B: math3d.V2(2, 2)},
			{A: math3d.V2(3, 3), B: math3d.V2(4, 4)},
		},
		Dots: []math3d.Vec2{math3d.V2(5, 5)},
	}
	var rec recorder
	p.Draw(&rec)

	assert.Equal(t, [][2]math3d.Vec2{{math3d.V2(1, 1), math3d.V2(2, 2)}, {math3d.V2(3, 3), math3d.V2(4, 4)}}, rec.lines)
	assert.Equal(t, []math3d.Vec2{math3d.V2(5, 5)}, rec.dots)
	assert.Equal(t, []float64{DotRadiusMM}, rec.radii)
}

func TestPDFWriterOnePagePerShot(t *testing.T) {
	r := NewRenderer(squareLibrary(t))
	w := walkThru(square(0, 1))
	w.AddShot(scene.NewShot(math3d.V3(-4, 0.3, 0), math3d.V3(1, 0.1, 0)))
	w.AddShot(scene.NewShot(math3d.V3(-3, -0.3, 0), math3d.V3(1, -0.1, 0)))

	pdf := NewPDFWriter(r.Layout(), "test")
	require.NoError(t, r.RenderTo(context.Background(), w, pdf))
	assert.Equal(t, 3, pdf.PageCount())

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFWriterSave(t *testing.T) {
	pdf := NewPDFWriter(DefaultPageLayout(), "empty page")
	require.NoError(t, pdf.WritePage(Page{}))

	path := filepath.Join(t.TempDir(), "book.pdf")
	require.NoError(t, pdf.Save(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestFramebufferDrawDisc(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	fb.DrawDisc(5, 5, 2, DotColor)

	assert.Equal(t, DotColor, fb.GetPixel(5, 5))
	assert.Equal(t, DotColor, fb.GetPixel(4, 4))
	assert.Equal(t, Color{}, fb.GetPixel(0, 0))
	assert.Equal(t, Color{}, fb.GetPixel(8, 8))

	tiny := NewFramebuffer(4, 4)
	tiny.DrawDisc(1.5, 2.5, 0.1, DotColor)
	assert.Equal(t, DotColor, tiny.GetPixel(1, 2), "a sub-pixel disc still marks its pixel")
}

func TestRasterizePage(t *testing.T) {
	layout := DefaultPageLayout()
	page := Page{
		Segments: []Segment{{A: math3d.V2(0, 43), B: math3d.V2(54, 43)}},
		Dots:     []math3d.Vec2{math3d.V2(27, 10)},
	}
	fb := RasterizePage(page, layout, 108)

	require.Equal(t, 108, fb.Width)
	require.Equal(t, 172, fb.Height)
	assert.Equal(t, PaperColor, fb.GetPixel(0, 0))
	assert.Equal(t, LineColor, fb.GetPixel(50, 86), "horizontal line across the middle")
	assert.Equal(t, DotColor, fb.GetPixel(54, 20))
}

func TestSavePNG(t *testing.T) {
	fb := RasterizePage(Page{Dots: []math3d.Vec2{math3d.V2(27, 43)}}, DefaultPageLayout(), 54)
	path := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, fb.SavePNG(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 54, img.Bounds().Dx())
	assert.Equal(t, 86, img.Bounds().Dy())
}
