// Package export writes board snapshots to files.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"

	"SyncBoard/internal/render"
	"SyncBoard/internal/state"
)

// Page describes the output page, in points.
type Page struct {
	Width, Height float64
	Background    string
	// Margin is added around the drawing when the page is sized from it.
	Margin float64
}

// FitPage sizes a page to the drawing.
func FitPage(paths []render.Path, background string) Page {
	w, h := render.Bounds(paths)
	p := Page{Width: w, Height: h, Background: background, Margin: 20}
	p.Width = max(p.Width+p.Margin, 200)
	p.Height = max(p.Height+p.Margin, 200)
	return p
}

// WritePDF draws the paths as vector lines on a single page.
func WritePDF(w io.Writer, paths []render.Path, page Page) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("SyncBoard", true)
	pdf.AddPage()

	bg := render.Color(page.Background)
	pdf.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
	pdf.Rect(0, 0, page.Width, page.Height, "F")
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	for _, p := range paths {
		c := render.Color(p.Color)
		if p.Mode == state.ModeEraser {
			c = bg
		}
		if p.Dot() {
			pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
			pdf.Circle(p.Points[0].X, p.Points[0].Y, p.Width/2, "F")
			continue
		}
		pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
		pdf.SetLineWidth(p.Width)
		pdf.MoveTo(p.Points[0].X, p.Points[0].Y)
		for _, pt := range p.Points[1:] {
			pdf.LineTo(pt.X, pt.Y)
		}
		pdf.DrawPath("D")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// SavePDF renders a snapshot into a PDF file sized to fit it.
func SavePDF(path string, snapshot []state.StrokeEvent, background string) error {
	return SavePathsPDF(path, render.BuildPaths(snapshot), background)
}

// SavePathsPDF writes paths a VectorPath renderer already holds.
func SavePathsPDF(path string, paths []render.Path, background string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WritePDF(f, paths, FitPage(paths, background)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SavePNG rasterizes a snapshot into a PNG file sized to fit it.
func SavePNG(path string, snapshot []state.StrokeEvent, background string) error {
	page := FitPage(render.BuildPaths(snapshot), background)
	r := render.NewRaster(int(page.Width), int(page.Height), background)
	r.Render(snapshot)
	return r.SavePNG(path)
}
