package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/render"
	"SyncBoard/internal/state"
)

func snapshot() []state.StrokeEvent {
	return []state.StrokeEvent{
		{GroupID: "g", Phase: state.PhaseStart, From: state.Point{X: 10, Y: 10}, To: state.Point{X: 10, Y: 10}, Color: "red", Width: 2, Visible: true},
		{GroupID: "g", Seq: 1, Phase: state.PhaseDrag, From: state.Point{X: 10, Y: 10}, To: state.Point{X: 300, Y: 120}, Color: "red", Width: 2, Visible: true},
		{GroupID: "e", Phase: state.PhaseStart, From: state.Point{X: 50, Y: 50}, To: state.Point{X: 50, Y: 50}, Color: "white", Width: 50, Mode: state.ModeEraser, Visible: true},
	}
}

func TestFitPage(t *testing.T) {
	page := FitPage(render.BuildPaths(snapshot()), "white")
	assert.Equal(t, 321.0, page.Width)
	assert.Equal(t, 200.0, page.Height)

	empty := FitPage(nil, "white")
	assert.Equal(t, 200.0, empty.Width)
}

func TestWritePDF(t *testing.T) {
	paths := render.BuildPaths(snapshot())
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, paths, FitPage(paths, "white")))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestSaveFiles(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "board.pdf")
	pngPath := filepath.Join(dir, "board.png")

	require.NoError(t, SavePDF(pdfPath, snapshot(), "white"))
	require.NoError(t, SavePNG(pngPath, snapshot(), "white"))

	for _, p := range []string{pdfPath, pngPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	err := SavePDF(filepath.Join(dir, "missing", "x.pdf"), snapshot(), "white")
	assert.Error(t, err)
}

func TestSavePathsPDF(t *testing.T) {
	vp := render.NewVectorPath()
	vp.Render(snapshot())
	path := filepath.Join(t.TempDir(), "paths.pdf")
	require.NoError(t, SavePathsPDF(path, vp.Paths(), "white"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
