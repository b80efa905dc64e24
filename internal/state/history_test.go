package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stroke(origin, group string, n int) []StrokeEvent {
	out := []StrokeEvent{{GroupID: group, OriginID: origin, Phase: PhaseStart, Visible: true}}
	for i := 1; i <= n; i++ {
		out = append(out, StrokeEvent{
			GroupID: group, OriginID: origin, Seq: i, Phase: PhaseDrag,
			From: Point{X: float64(i - 1)}, To: Point{X: float64(i)}, Visible: true,
		})
	}
	return append(out, StrokeEvent{GroupID: group, OriginID: origin, Seq: n + 1, Phase: PhaseEnd, Visible: true})
}

func appendAll(h *HistoryLog, evs []StrokeEvent) {
	for _, ev := range evs {
		h.Append(ev)
	}
}

func TestHistoryPreservesInsertionOrder(t *testing.T) {
	h := NewHistoryLog(false)
	appendAll(h, stroke("a", "g1", 2))
	appendAll(h, stroke("b", "g2", 0))

	entries := h.Entries()
	require.Len(t, entries, 6)
	assert.Equal(t, "g1", entries[0].GroupID)
	assert.Equal(t, PhaseEnd, entries[3].Phase)
	assert.Equal(t, "g2", entries[4].GroupID)
	assert.Equal(t, entries, h.Snapshot())
}

func TestToggleVisibilityHidesWholeGroup(t *testing.T) {
	h := NewHistoryLog(false)
	appendAll(h, stroke("a", "g1", 3))
	appendAll(h, stroke("a", "g2", 1))

	require.True(t, h.ToggleVisibility("g1", false))
	snap := h.Snapshot()
	require.Len(t, snap, 3)
	for _, ev := range snap {
		assert.Equal(t, "g2", ev.GroupID)
	}
	assert.Equal(t, 8, h.Len(), "hidden entries stay in the log")

	assert.False(t, h.ToggleVisibility("g1", false), "already hidden")
	assert.False(t, h.ToggleVisibility("missing", false), "unknown group")

	require.True(t, h.ToggleVisibility("g1", true))
	assert.Len(t, h.Snapshot(), 8)
}

func TestClearIsIdempotent(t *testing.T) {
	h := NewHistoryLog(true)
	appendAll(h, stroke("a", "g1", 1))

	h.Clear()
	assert.Zero(t, h.Len())
	h.Clear()
	assert.Zero(t, h.Len())
	assert.Empty(t, h.Snapshot())
	assert.False(t, h.HasGroup("g1"))

	// the dedupe set is cleared too, so the same stroke can be replayed
	appendAll(h, stroke("a", "g1", 1))
	assert.Equal(t, 3, h.Len())
}

func TestDedupe(t *testing.T) {
	evs := stroke("a", "g1", 2)

	plain := NewHistoryLog(false)
	appendAll(plain, evs)
	appendAll(plain, evs)
	assert.Equal(t, 8, plain.Len())

	deduped := NewHistoryLog(true)
	appendAll(deduped, evs)
	assert.False(t, deduped.Append(evs[1]))
	appendAll(deduped, evs)
	assert.Equal(t, 4, deduped.Len())
	assert.Len(t, deduped.Group("g1"), 4)
}

func TestNewGroupIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewGroupID(Point{X: 10, Y: 20})
		require.False(t, seen[id])
		seen[id] = true
	}
	assert.Contains(t, NewGroupID(Point{X: 10.4, Y: 19.6}), "g10.20-")
}
