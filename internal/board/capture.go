package board

import (
	"SyncBoard/internal/state"
	"SyncBoard/internal/wire"
)

// Modifiers alter how a captured stroke is drawn.
type Modifiers uint8

const (
	// ModEraser paints the stroke with the eraser regardless of the pen.
	ModEraser Modifiers = 1 << iota
)

// CaptureEvent is what an input adapter reports at device rate.
type CaptureEvent struct {
	Phase     state.Phase
	Point     state.Point
	Modifiers Modifiers
}

type localStroke struct {
	group string
	seq   int
	last  state.Point
	color string
	width float64
	mode  state.Mode
}

// Capture applies one local input event. Drag and End without a preceding
// Start are ignored; a Start while a stroke is open closes that stroke first.
func (e *Engine) Capture(ev CaptureEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	switch ev.Phase {
	case state.PhaseStart:
		if e.active != nil {
			e.finishStroke(e.active.last)
		}
		e.beginStroke(ev)
	case state.PhaseDrag:
		if e.active == nil {
			return
		}
		e.extendStroke(state.PhaseDrag, ev.Point)
	case state.PhaseEnd:
		if e.active == nil {
			return
		}
		e.finishStroke(ev.Point)
	}
}

func (e *Engine) beginStroke(ev CaptureEvent) {
	s := &localStroke{
		group: state.NewGroupID(ev.Point),
		last:  ev.Point,
		color: e.pen.Color,
		width: e.pen.Width,
	}
	if e.eraser || ev.Modifiers&ModEraser != 0 {
		s.mode = state.ModeEraser
		s.color = e.cfg.Background
		s.width = e.cfg.EraserWidth
	}
	e.active = s
	// a new stroke makes the redo stack unreachable
	e.stacks.DiscardRedo()
	e.applyLocal(state.PhaseStart, ev.Point, ev.Point)
}

func (e *Engine) extendStroke(phase state.Phase, to state.Point) {
	from := e.active.last
	e.active.last = to
	e.applyLocal(phase, from, to)
}

func (e *Engine) finishStroke(at state.Point) {
	group := e.active.group
	e.extendStroke(state.PhaseEnd, at)
	e.active = nil
	e.stacks.Completed(group)
}

func (e *Engine) applyLocal(phase state.Phase, from, to state.Point) {
	s := e.active
	ev := state.StrokeEvent{
		GroupID:  s.group,
		OriginID: e.self,
		Seq:      s.seq,
		Phase:    phase,
		From:     from,
		To:       to,
		Color:    s.color,
		Width:    s.width,
		Mode:     s.mode,
		Visible:  true,
	}
	s.seq++
	e.history.Append(ev)
	e.render()
	e.enqueue(wire.KindUpdate, ev)
}
