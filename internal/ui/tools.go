package ui

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/board"
	"SyncBoard/internal/export"
	"SyncBoard/internal/render"
)

type colorSwatch struct {
	widget.BaseWidget
	Name     string
	OnTapped func(string)
}

func newColorSwatch(name string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Name: name, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(render.Color(s.Name))
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Name)
	}
}

// toolbar holds the pen the user picked so the eraser can hand it back.
type toolbar struct {
	engine     *board.Engine
	window     fyne.Window
	status     *widget.Label
	background string
	log        logrus.FieldLogger

	color string
	width float64
}

// NewToolbar builds the tool row: pen, eraser, undo, redo, clear and
// capture, then the palette and the width slider.
func NewToolbar(e *board.Engine, w fyne.Window, status *widget.Label, pen board.Pen, background string, log logrus.FieldLogger) fyne.CanvasObject {
	t := &toolbar{engine: e, window: w, status: status, background: background, log: log, color: pen.Color, width: pen.Width}

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), t.pen),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), t.eraser),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), t.undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), t.redo),
		widget.NewToolbarAction(theme.DeleteIcon(), t.confirmClear),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), t.capture),
	)

	swatches := make([]fyne.CanvasObject, 0, len(board.Palette))
	for _, name := range board.Palette {
		swatches = append(swatches, newColorSwatch(name, func(c string) {
			t.color = c
			t.pen()
		}))
	}

	slider := widget.NewSlider(1, 20)
	slider.SetValue(pen.Width)
	slider.OnChanged = func(v float64) {
		t.width = v
		t.pen()
	}
	sliderBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), slider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		container.NewHBox(swatches...),
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderBox,
		layout.NewSpacer(),
	)
}

func (t *toolbar) pen() {
	t.engine.SetPen(t.color, t.width)
	t.status.SetText(fmt.Sprintf("Pen: %s, %.0fpx", t.color, t.width))
}

func (t *toolbar) eraser() {
	t.engine.SetEraser(true)
	t.status.SetText("Eraser")
}

func (t *toolbar) undo() {
	if !t.engine.Undo() {
		t.status.SetText("Nothing to undo")
	}
}

func (t *toolbar) redo() {
	if !t.engine.Redo() {
		t.status.SetText("Nothing to redo")
	}
}

func (t *toolbar) confirmClear() {
	dialog.ShowConfirm("Clear board", "Clear the board for everyone?", func(ok bool) {
		if ok {
			t.engine.Clear()
			t.status.SetText("Board cleared")
		}
	}, t.window)
}

// capture saves the visible board as PNG or PDF, picked by file extension.
func (t *toolbar) capture() {
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, t.window)
			return
		}
		if w == nil {
			return
		}
		path := w.URI().Path()
		_ = w.Close()

		snapshot := t.engine.Snapshot()
		if strings.EqualFold(w.URI().Extension(), ".pdf") {
			err = export.SavePDF(path, snapshot, t.background)
		} else {
			err = export.SavePNG(path, snapshot, t.background)
		}
		if err != nil {
			t.log.WithError(err).Warn("capture failed")
			dialog.ShowError(err, t.window)
			return
		}
		t.status.SetText("Saved " + path)
	}, t.window)
	save.SetFileName("board.png")
	save.Show()
}
