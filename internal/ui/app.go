package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/board"
)

type Options struct {
	Title      string
	ShareLink  string
	Pen        board.Pen
	Background string
	Logger     logrus.FieldLogger
}

// RunApp shows the board window and blocks until it is closed. The board
// widget must already be the engine's renderer.
func RunApp(a fyne.App, e *board.Engine, b *BoardWidget, opts Options) {
	w := a.NewWindow(opts.Title)
	w.Resize(fyne.NewSize(1024, 768))

	status := widget.NewLabel("Connected as " + e.LocalID())
	b.OnCapture = e.Capture
	e.OnHistorySynced(func(source string, events int) {
		fyne.Do(func() {
			status.SetText(fmt.Sprintf("Synced %d events from %s", events, source))
		})
	})

	toolbar := NewToolbar(e, w, status, opts.Pen, opts.Background, opts.Logger)

	var bottom fyne.CanvasObject = status
	if opts.ShareLink != "" {
		link := widget.NewEntry()
		link.SetText(opts.ShareLink)
		bottom = container.NewBorder(nil, nil, widget.NewLabel("Share:"), status, link)
	}

	w.SetContent(container.NewBorder(toolbar, bottom, nil, nil, b))

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		e.Undo()
	})
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		e.Redo()
	})

	w.ShowAndRun()
}
