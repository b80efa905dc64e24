package board

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/render"
	"SyncBoard/internal/state"
	"SyncBoard/internal/wire"
)

func newRenderedEngine(t *testing.T, r Renderer) (*Engine, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{id: "self"}
	e := New(testConfig(&manualScheduler{}), tr, r)
	e.Start()
	return e, tr
}

func TestEngineDrivesVectorPath(t *testing.T) {
	vp := render.NewVectorPath()
	e, tr := newRenderedEngine(t, vp)
	assert.Empty(t, vp.Paths())

	draw(e, 3, state.Point{X: 10, Y: 10})
	tr.inject("peer", envelope(t, wire.KindUpdate, "", remoteStroke("peer", "gp", 2)))
	require.NotEmpty(t, vp.Paths())
	assert.Equal(t, render.BuildPaths(e.Snapshot()), vp.Paths())

	require.True(t, e.Undo())
	assert.Equal(t, render.BuildPaths(e.Snapshot()), vp.Paths())
	for _, p := range vp.Paths() {
		assert.Equal(t, "gp", p.GroupID)
	}

	e.Clear()
	assert.Empty(t, vp.Paths())
}

func TestEngineDrivesRaster(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red := color.RGBA{R: 255, A: 255}

	canvas := render.NewRaster(100, 100, "white")
	e, _ := newRenderedEngine(t, canvas)
	e.SetPen("red", 10)
	e.Capture(CaptureEvent{Phase: state.PhaseStart, Point: state.Point{X: 10, Y: 50}})
	e.Capture(CaptureEvent{Phase: state.PhaseDrag, Point: state.Point{X: 90, Y: 50}})
	e.Capture(CaptureEvent{Phase: state.PhaseEnd, Point: state.Point{X: 90, Y: 50}})

	assert.Equal(t, red, canvas.Image().At(50, 50))
	want := render.NewRaster(100, 100, "white")
	want.Render(e.Snapshot())
	assert.Equal(t, want.Image(), canvas.Image())

	require.True(t, e.Undo())
	assert.Equal(t, white, canvas.Image().At(50, 50))
}
