package state

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// HistoryLog is the append-only record of drawing events. Entries are never
// removed; undo and redo only flip their Visible flag. Clear is the single
// operation that empties the log.
type HistoryLog struct {
	mu     sync.RWMutex
	events []StrokeEvent
	groups map[string][]int // group id -> indexes into events

	// seen is nil unless de-duplication is enabled.
	seen mapset.Set[eventKey]
}

// NewHistoryLog creates an empty log. With dedupe set, Append ignores an event
// whose (origin, group, phase, seq) was already recorded.
func NewHistoryLog(dedupe bool) *HistoryLog {
	h := &HistoryLog{groups: make(map[string][]int)}
	if dedupe {
		h.seen = mapset.NewThreadUnsafeSet[eventKey]()
	}
	return h
}

// Append records ev at the end of the log and reports whether it was added.
func (h *HistoryLog) Append(ev StrokeEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.seen != nil && !h.seen.Add(keyOf(ev)) {
		return false
	}
	h.groups[ev.GroupID] = append(h.groups[ev.GroupID], len(h.events))
	h.events = append(h.events, ev)
	return true
}

// ToggleVisibility sets every entry of the group to visible. It returns false
// when the group is unknown or already has that visibility.
func (h *HistoryLog) ToggleVisibility(groupID string, visible bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	changed := false
	for _, i := range h.groups[groupID] {
		if h.events[i].Visible != visible {
			h.events[i].Visible = visible
			changed = true
		}
	}
	return changed
}

// Snapshot returns the visible entries in log order.
func (h *HistoryLog) Snapshot() []StrokeEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]StrokeEvent, 0, len(h.events))
	for _, ev := range h.events {
		if ev.Visible {
			out = append(out, ev)
		}
	}
	return out
}

// Entries returns a copy of every entry, hidden ones included.
func (h *HistoryLog) Entries() []StrokeEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]StrokeEvent, len(h.events))
	copy(out, h.events)
	return out
}

func (h *HistoryLog) HasGroup(groupID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.groups[groupID]
	return ok
}

// Group returns the entries of one stroke group in log order.
func (h *HistoryLog) Group(groupID string) []StrokeEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	idx := h.groups[groupID]
	out := make([]StrokeEvent, 0, len(idx))
	for _, i := range idx {
		out = append(out, h.events[i])
	}
	return out
}

func (h *HistoryLog) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}

// Clear empties the log. Calling it on an empty log is a no-op.
func (h *HistoryLog) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = nil
	h.groups = make(map[string][]int)
	if h.seen != nil {
		h.seen.Clear()
	}
}
