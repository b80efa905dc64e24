package board

import (
	"time"

	"github.com/sirupsen/logrus"

	"SyncBoard/internal/wire"
)

// Palette is the set of pen colors offered to users.
var Palette = []string{"black", "blue", "red", "green", "orange", "purple", "brown"}

// Pen is the color and width applied to new local strokes.
type Pen struct {
	Color string
	Width float64
}

// Config controls a board engine. Start from DefaultConfig.
type Config struct {
	// DebounceWindow is the quiet window before queued local events are sent.
	DebounceWindow time.Duration
	// ChunkLimit bounds the serialized size of every outgoing envelope.
	ChunkLimit int
	// HistorySettle closes a late-join episode when no history-done marker
	// arrives this long after the last accepted chunk. Zero disables it.
	HistorySettle time.Duration
	// RequestHistoryOnJoin broadcasts a request-history signal on Start, for
	// transports whose join notifications may be missed.
	RequestHistoryOnJoin bool
	// DedupeReplay drops events already present in the log, keyed by
	// (origin, group, phase, seq).
	DedupeReplay bool

	Pen         Pen
	EraserWidth float64
	Background  string

	Logger    logrus.FieldLogger
	Scheduler Scheduler
}

func DefaultConfig() Config {
	return Config{
		DebounceWindow:       100 * time.Millisecond,
		ChunkLimit:           wire.DefaultChunkLimit,
		HistorySettle:        3 * time.Second,
		RequestHistoryOnJoin: true,
		Pen:                  Pen{Color: "black", Width: 2},
		EraserWidth:          50,
		Background:           "white",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = def.DebounceWindow
	}
	if c.ChunkLimit <= 0 {
		c.ChunkLimit = def.ChunkLimit
	}
	if c.Pen.Color == "" {
		c.Pen.Color = def.Pen.Color
	}
	if c.Pen.Width <= 0 {
		c.Pen.Width = def.Pen.Width
	}
	if c.EraserWidth <= 0 {
		c.EraserWidth = def.EraserWidth
	}
	if c.Background == "" {
		c.Background = def.Background
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.Scheduler == nil {
		c.Scheduler = timeScheduler{}
	}
	return c
}

// Scheduler runs f once after d. The engine never cancels what it schedules.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
