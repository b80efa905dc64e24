package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/board"
	"SyncBoard/internal/state"
)

func mouse(x, y float32, button desktop.MouseButton, mod fyne.KeyModifier) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     button,
		Modifier:   mod,
	}
}

func TestPointerInputBecomesCaptureEvents(t *testing.T) {
	test.NewTempApp(t)
	b := NewBoardWidget("white")
	var got []board.CaptureEvent
	b.OnCapture = func(ev board.CaptureEvent) { got = append(got, ev) }

	b.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary, 0))
	b.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(20, 15)}})
	b.MouseUp(mouse(30, 20, desktop.MouseButtonPrimary, 0))

	require.Len(t, got, 3)
	assert.Equal(t, state.PhaseStart, got[0].Phase)
	assert.Equal(t, state.Point{X: 10, Y: 10}, got[0].Point)
	assert.Equal(t, state.PhaseDrag, got[1].Phase)
	assert.Equal(t, state.PhaseEnd, got[2].Phase)
	assert.Zero(t, got[0].Modifiers)

	got = nil
	b.MouseDown(mouse(1, 1, desktop.MouseButtonSecondary, 0))
	b.MouseOut()
	b.MouseDown(mouse(1, 1, desktop.MouseButtonPrimary, fyne.KeyModifierShift))
	b.MouseUp(mouse(2, 2, desktop.MouseButtonPrimary, 0))
	require.Len(t, got, 4)
	assert.Equal(t, board.ModEraser, got[0].Modifiers)
	assert.Equal(t, state.PhaseEnd, got[1].Phase)
	assert.Equal(t, state.Point{X: 1, Y: 1}, got[1].Point)
	assert.Equal(t, board.ModEraser, got[2].Modifiers)
}

func TestPanShiftsCoordinates(t *testing.T) {
	test.NewTempApp(t)
	b := NewBoardWidget("white")
	var got []board.CaptureEvent
	b.OnCapture = func(ev board.CaptureEvent) { got = append(got, ev) }

	b.MouseDown(mouse(0, 0, desktop.MouseButtonTertiary, 0))
	b.Dragged(&fyne.DragEvent{Dragged: fyne.Delta{DX: 5, DY: 7}})
	assert.Empty(t, got)

	b.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary, 0))
	require.Len(t, got, 1)
	assert.Equal(t, state.Point{X: 5, Y: 3}, got[0].Point)
}

func TestRendererDrawsVisibleEvents(t *testing.T) {
	test.NewTempApp(t)
	b := NewBoardWidget("white")
	r := test.WidgetRenderer(b)

	b.Render([]state.StrokeEvent{
		{GroupID: "g", From: state.Point{X: 5, Y: 5}, To: state.Point{X: 5, Y: 5}, Color: "red", Width: 4, Visible: true},
		{GroupID: "g", Seq: 1, From: state.Point{X: 5, Y: 5}, To: state.Point{X: 50, Y: 5}, Color: "red", Width: 4, Visible: true},
		{GroupID: "h", From: state.Point{X: 1, Y: 1}, To: state.Point{X: 9, Y: 9}, Color: "blue", Width: 2},
	})
	r.Refresh()

	objects := r.Objects()
	require.Len(t, objects, 3)
	assert.IsType(t, &canvas.Rectangle{}, objects[0])
	assert.IsType(t, &canvas.Circle{}, objects[1])
	line, ok := objects[2].(*canvas.Line)
	require.True(t, ok)
	assert.Equal(t, float32(4), line.StrokeWidth)
	assert.Equal(t, fyne.NewPos(50, 5), line.Position2)
}
