package render

import (
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"

	"github.com/taigrr/flipbook/pkg/math3d"
)

// PDFWriter lays pages out as a card-sized PDF flip-book, one PDF page per
// shot.
type PDFWriter struct {
	pdf    *fpdf.Fpdf
	layout PageLayout
}

// NewPDFWriter starts an empty document with pages of layout's size.
func NewPDFWriter(layout PageLayout, title string) *PDFWriter {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: layout.WidthMM, Ht: layout.HeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("flipbook", true)
	return &PDFWriter{pdf: pdf, layout: layout}
}

// WritePage implements PageSink.
func (w *PDFWriter) WritePage(p Page) error {
	w.pdf.AddPage()
	w.pdf.SetLineWidth(LineWidthMM)
	w.pdf.SetDrawColor(int(LineColor.R), int(LineColor.G), int(LineColor.B))
	w.pdf.SetFillColor(int(DotColor.R), int(DotColor.G), int(DotColor.B))
	p.Draw(w)
	return w.pdf.Error()
}

// Line implements DrawTarget.
func (w *PDFWriter) Line(a, b math3d.Vec2) {
	w.pdf.Line(a.X, a.Y, b.X, b.Y)
}

// Dot implements DrawTarget.
func (w *PDFWriter) Dot(c math3d.Vec2, r float64) {
	w.pdf.Circle(c.X, c.Y, r, "F")
}

// PageCount returns the number of pages written so far.
func (w *PDFWriter) PageCount() int {
	return w.pdf.PageCount()
}

// Output writes the finished document to out.
func (w *PDFWriter) Output(out io.Writer) error {
	if err := w.pdf.Output(out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Save writes the finished document to path.
func (w *PDFWriter) Save(path string) error {
	if err := w.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
