package render

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"sync"

	"github.com/fogleman/gg"

	"SyncBoard/internal/state"
)

// Raster paints snapshots into a pixel buffer. Each Render repaints the
// whole board from the snapshot it is given.
type Raster struct {
	width, height int
	background    string

	mu sync.Mutex
	dc *gg.Context
}

func NewRaster(width, height int, background string) *Raster {
	r := &Raster{width: width, height: height, background: background}
	r.Render(nil)
	return r
}

func (r *Raster) Render(snapshot []state.StrokeEvent) {
	dc := gg.NewContext(r.width, r.height)
	dc.SetColor(Color(r.background))
	dc.Clear()
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	for _, ev := range snapshot {
		if !ev.Visible {
			continue
		}
		paint(dc, ev, r.background)
	}

	r.mu.Lock()
	r.dc = dc
	r.mu.Unlock()
}

func paint(dc *gg.Context, ev state.StrokeEvent, background string) {
	dc.SetColor(strokeColor(ev.Color, ev.Mode == state.ModeEraser, background))
	if ev.From == ev.To {
		dc.DrawCircle(ev.To.X, ev.To.Y, ev.Width/2)
		dc.Fill()
		return
	}
	dc.SetLineWidth(ev.Width)
	dc.DrawLine(ev.From.X, ev.From.Y, ev.To.X, ev.To.Y)
	dc.Stroke()
}

// Image returns a copy of the last rendered frame.
func (r *Raster) Image() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.dc.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

func (r *Raster) EncodePNG(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func (r *Raster) SavePNG(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
