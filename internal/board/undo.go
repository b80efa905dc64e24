package board

import (
	"SyncBoard/internal/state"
	"SyncBoard/internal/wire"
)

// Undo hides the most recent stroke group completed locally and tells the
// room. It returns false when there is nothing to undo.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	tok, ok := e.stacks.Undo()
	if !ok {
		return false
	}
	e.history.ToggleVisibility(tok.GroupID, tok.Visible)
	e.render()
	e.enqueue(wire.KindUndo, tok)
	return true
}

// Redo restores the group most recently undone.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	tok, ok := e.stacks.Redo()
	if !ok {
		return false
	}
	e.history.ToggleVisibility(tok.GroupID, tok.Visible)
	e.render()
	e.enqueue(wire.KindRedo, tok)
	return true
}

// applyReversals toggles groups named by a remote undo or redo. The local
// stacks are not touched; unknown or already-resolved groups are skipped.
func (e *Engine) applyReversals(from string, tokens []state.UndoToken, visible bool) {
	changed := 0
	for _, tok := range tokens {
		if e.history.ToggleVisibility(tok.GroupID, visible) {
			changed++
		}
	}
	if changed > 0 {
		e.render()
	}
	e.log.WithField("from", from).Debugf("applied %d of %d reversals", changed, len(tokens))
}
