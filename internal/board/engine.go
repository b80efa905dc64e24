// Package board is the synchronization engine of a shared drawing surface.
//
// An Engine owns one peer's session: its history log, its undo and redo
// stacks, the outgoing batcher and the late-join bookkeeping. Local input is
// applied and rendered synchronously, then queued for the transport. Remote
// signals are applied as they arrive, in whatever order the transport hands
// them over. There is no sequencer: peers converge on a best-effort basis.
//
// Every operation runs to completion under the engine's mutex, which plays
// the part of a single-threaded event loop.
package board

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/state"
	"SyncBoard/internal/wire"
)

// Engine is a session-scoped synchronization engine. Create it once the
// transport knows the local identity and Close it when leaving.
type Engine struct {
	cfg       Config
	self      string
	transport Transport
	renderer  Renderer
	log       logrus.FieldLogger
	batcher   *Batcher

	mu      sync.Mutex
	history *state.HistoryLog
	stacks  state.UndoStack
	peers   *state.Peers
	pen     Pen
	eraser  bool
	active  *localStroke
	join    joinEpisode
	served  mapset.Set[string]
	closed  bool

	onSynced func(source string, events int)
}

// New wires an engine to its transport and renderer. The renderer may be nil.
func New(cfg Config, t Transport, r Renderer) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:       cfg,
		self:      t.LocalID(),
		transport: t,
		renderer:  r,
		history:   state.NewHistoryLog(cfg.DedupeReplay),
		peers:     state.NewPeers(),
		pen:       cfg.Pen,
		served:    mapset.NewThreadUnsafeSet[string](),
		join:      newJoinEpisode(),
	}
	e.log = cfg.Logger.WithField("peer", e.self)
	e.batcher = NewBatcher(cfg.DebounceWindow, cfg.ChunkLimit, cfg.Scheduler, t.Send, e.log)

	t.OnMessage(e.handleMessage)
	t.OnPeerJoined(e.handlePeerJoined)
	t.OnPeerLeft(e.handlePeerLeft)
	t.OnError(func(err error) {
		e.log.WithError(err).Warn("transport error, signal lost")
	})
	return e
}

// Start announces the local peer. When configured it asks the room for
// history, in addition to the join notification the transport emits.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log.Info("joined session")
	if e.cfg.RequestHistoryOnJoin {
		e.transport.Send(wire.Envelope{Type: wire.KindRequestHistory})
	}
}

// Close flushes queued signals and stops the engine from reacting to
// anything else. It is safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.batcher.FlushAll()
	e.log.Info("left session")
}

func (e *Engine) LocalID() string { return e.self }

// Snapshot returns the visible events in log order.
func (e *Engine) Snapshot() []state.StrokeEvent {
	return e.history.Snapshot()
}

// Entries returns the whole log, hidden events included.
func (e *Engine) Entries() []state.StrokeEvent {
	return e.history.Entries()
}

// UndoDepth returns the sizes of the local undo and redo stacks.
func (e *Engine) UndoDepth() (undo, redo int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stacks.Depth()
}

// Drawing lists remote peers with a stroke in progress.
func (e *Engine) Drawing() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peers.Drawing()
}

// Synced reports the history source of the current join episode and
// whether the episode is complete.
func (e *Engine) Synced() (source string, done bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.join.source, e.join.done
}

// OnHistorySynced registers a callback for the end of the late-join episode.
// It runs with the engine locked and must not call back into the engine.
func (e *Engine) OnHistorySynced(fn func(source string, events int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSynced = fn
}

func (e *Engine) SetPen(color string, width float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if color != "" {
		e.pen.Color = color
	}
	if width > 0 {
		e.pen.Width = width
	}
	e.eraser = false
}

// SetEraser switches new strokes to the eraser until SetPen is called.
func (e *Engine) SetEraser(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eraser = on
}

// Clear empties the log and both stacks and tells the room to do the same.
// Signals already queued in the batcher still go out.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.reset()
	e.render()
	e.transport.Send(wire.Envelope{Type: wire.KindClear})
	e.log.Info("cleared board")
}

func (e *Engine) reset() {
	e.history.Clear()
	e.stacks.Reset()
	e.peers.Reset()
	e.active = nil
}

func (e *Engine) render() {
	if e.renderer != nil {
		e.renderer.Render(e.history.Snapshot())
	}
}

func (e *Engine) enqueue(kind wire.Kind, v any) {
	if err := e.batcher.Enqueue(kind, v); err != nil {
		e.log.WithError(err).Warn("failed to queue signal")
	}
}
