package state

// UndoStack holds the undo and redo stacks of the local peer. They are local
// bookkeeping only: remote peers never see them, only the tokens popped off.
type UndoStack struct {
	undo []UndoToken
	redo []UndoToken
}

// Completed records a finished local stroke group.
func (s *UndoStack) Completed(groupID string) {
	s.undo = append(s.undo, UndoToken{GroupID: groupID, Visible: true})
}

// Undo pops the most recent group and moves it to the redo stack. The
// returned token carries the visibility the group must end up with.
func (s *UndoStack) Undo() (UndoToken, bool) {
	if len(s.undo) == 0 {
		return UndoToken{}, false
	}
	tok := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	tok.Visible = false
	s.redo = append(s.redo, tok)
	return tok, true
}

func (s *UndoStack) Redo() (UndoToken, bool) {
	if len(s.redo) == 0 {
		return UndoToken{}, false
	}
	tok := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	tok.Visible = true
	s.undo = append(s.undo, tok)
	return tok, true
}

// DiscardRedo drops the redo stack; a new local stroke invalidates it.
func (s *UndoStack) DiscardRedo() {
	s.redo = nil
}

func (s *UndoStack) Reset() {
	s.undo = nil
	s.redo = nil
}

// Depth returns the sizes of the undo and redo stacks.
func (s *UndoStack) Depth() (undo, redo int) {
	return len(s.undo), len(s.redo)
}
