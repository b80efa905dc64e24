package ui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"SyncBoard/internal/board"
	"SyncBoard/internal/render"
	"SyncBoard/internal/state"
)

// BoardWidget shows the engine's snapshot and turns pointer input into
// capture events. It is the engine's Renderer.
type BoardWidget struct {
	widget.BaseWidget

	mu         sync.RWMutex
	events     []state.StrokeEvent
	background color.Color
	panX, panY float32
	drawing    bool
	last       fyne.Position

	// OnCapture receives every pointer event in board coordinates.
	OnCapture func(board.CaptureEvent)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ board.Renderer = (*BoardWidget)(nil)

func NewBoardWidget(background string) *BoardWidget {
	b := &BoardWidget{background: render.Color(background)}
	b.ExtendBaseWidget(b)
	return b
}

// Render stores the snapshot and schedules a repaint on the UI goroutine.
func (b *BoardWidget) Render(snapshot []state.StrokeEvent) {
	b.mu.Lock()
	b.events = snapshot
	b.mu.Unlock()
	fyne.Do(b.Refresh)
}

func (b *BoardWidget) Events() []state.StrokeEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.events
}

func (b *BoardWidget) toBoard(p fyne.Position) state.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return state.Point{X: float64(p.X - b.panX), Y: float64(p.Y - b.panY)}
}

func (b *BoardWidget) emit(phase state.Phase, p fyne.Position, mods board.Modifiers) {
	b.last = p
	if b.OnCapture != nil {
		b.OnCapture(board.CaptureEvent{Phase: phase, Point: b.toBoard(p), Modifiers: mods})
	}
}

// MouseDown starts a stroke. The secondary button or Shift draws with the
// eraser; the middle button pans.
func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	var mods board.Modifiers
	switch {
	case e.Button == desktop.MouseButtonTertiary:
		return
	case e.Button == desktop.MouseButtonSecondary, e.Modifier&fyne.KeyModifierShift != 0:
		mods |= board.ModEraser
	}
	b.drawing = true
	b.emit(state.PhaseStart, e.Position, mods)
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if b.drawing {
		b.emit(state.PhaseDrag, e.Position, 0)
		return
	}
	b.mu.Lock()
	b.panX += e.Dragged.DX
	b.panY += e.Dragged.DY
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if !b.drawing {
		return
	}
	b.drawing = false
	b.emit(state.PhaseEnd, e.Position, 0)
}

// MouseOut ends a stroke that leaves the board.
func (b *BoardWidget) MouseOut() {
	if !b.drawing {
		return
	}
	b.drawing = false
	b.emit(state.PhaseEnd, b.last, 0)
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}
func (b *BoardWidget) DragEnd()                       {}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.mu.Lock()
	b.panX += e.Scrolled.DX
	b.panY += e.Scrolled.DY
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b, background: canvas.NewRectangle(b.background)}
	r.Refresh()
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Refresh rebuilds one canvas object per visible event.
func (r *boardWidgetRenderer) Refresh() {
	b := r.board
	b.mu.RLock()
	events, panX, panY := b.events, b.panX, b.panY
	b.mu.RUnlock()

	objects := make([]fyne.CanvasObject, 0, len(events)+1)
	objects = append(objects, r.background)
	for _, ev := range events {
		if !ev.Visible {
			continue
		}
		var c color.Color = render.Color(ev.Color)
		if ev.Mode == state.ModeEraser {
			c = b.background
		}
		w := float32(ev.Width)
		to := fyne.NewPos(float32(ev.To.X)+panX, float32(ev.To.Y)+panY)
		if ev.From == ev.To {
			dot := canvas.NewCircle(c)
			dot.Resize(fyne.NewSize(w, w))
			dot.Move(to.SubtractXY(w/2, w/2))
			objects = append(objects, dot)
			continue
		}
		seg := canvas.NewLine(c)
		seg.StrokeWidth = w
		seg.Position1 = fyne.NewPos(float32(ev.From.X)+panX, float32(ev.From.Y)+panY)
		seg.Position2 = to
		objects = append(objects, seg)
	}
	r.objects = objects
	canvas.Refresh(b)
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Destroy() {}
