package state

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// PeerState tracks one remote originator: the stroke it is streaming and the
// events that arrived ahead of their group's Start.
type PeerState struct {
	ActiveGroup string
	Last        Point
	Events      int

	tick int
	// group -> tick of its Start; 0 marks a group let through without one
	started map[string]int
	closed  mapset.Set[string]
	held    map[string]*heldGroup
}

type heldGroup struct {
	since  int
	events []StrokeEvent
}

func newPeerState() *PeerState {
	return &PeerState{
		started: make(map[string]int),
		closed:  mapset.NewThreadUnsafeSet[string](),
		held:    make(map[string]*heldGroup),
	}
}

// Peers is keyed by origin id. It is owned by a single engine.
type Peers struct {
	byOrigin map[string]*PeerState
}

func NewPeers() *Peers {
	return &Peers{byOrigin: make(map[string]*PeerState)}
}

func (p *Peers) state(origin string) *PeerState {
	st, ok := p.byOrigin[origin]
	if !ok {
		st = newPeerState()
		p.byOrigin[origin] = st
	}
	return st
}

// Admit returns the events that may enter the log now, in log order. Drag and
// End events of a group whose Start has not arrived are held back. They are
// released behind the Start, or without it once the origin has started and
// finished a later stroke, or when Release is called for the origin.
func (p *Peers) Admit(ev StrokeEvent) []StrokeEvent {
	st := p.state(ev.OriginID)

	if tick, ok := st.started[ev.GroupID]; ok {
		st.observe(ev)
		out := []StrokeEvent{ev}
		if ev.Phase == PhaseEnd && tick > 0 {
			out = append(out, st.releaseOlder(tick)...)
		}
		return out
	}

	if ev.Phase == PhaseStart {
		st.tick++
		st.started[ev.GroupID] = st.tick
		out := append([]StrokeEvent{ev}, st.take(ev.GroupID)...)
		for _, e := range out {
			st.observe(e)
		}
		return out
	}

	g, ok := st.held[ev.GroupID]
	if !ok {
		g = &heldGroup{since: st.tick}
		st.held[ev.GroupID] = g
	}
	g.events = append(g.events, ev)
	return nil
}

// Release lets every held event of origin through, ordered by group then seq.
func (p *Peers) Release(origin string) []StrokeEvent {
	st, ok := p.byOrigin[origin]
	if !ok {
		return nil
	}
	return st.releaseOlder(st.tick + 1)
}

// Held counts the events of origin waiting for their Start.
func (p *Peers) Held(origin string) int {
	st, ok := p.byOrigin[origin]
	if !ok {
		return 0
	}
	n := 0
	for _, g := range st.held {
		n += len(g.events)
	}
	return n
}

// Observe updates the tracking for ev and reports whether the event continues
// a group whose Start was seen. Start opens a group, End closes it for good.
func (p *Peers) Observe(ev StrokeEvent) bool {
	return p.state(ev.OriginID).observe(ev)
}

func (st *PeerState) observe(ev StrokeEvent) bool {
	st.Events++
	st.Last = ev.To

	switch ev.Phase {
	case PhaseStart:
		if st.closed.Contains(ev.GroupID) {
			return false
		}
		st.ActiveGroup = ev.GroupID
		return true
	case PhaseEnd:
		st.closed.Add(ev.GroupID)
		if st.ActiveGroup != ev.GroupID {
			return false
		}
		st.ActiveGroup = ""
		return true
	default:
		return st.ActiveGroup == ev.GroupID
	}
}

// take removes a held group and returns its events by seq.
func (st *PeerState) take(group string) []StrokeEvent {
	g, ok := st.held[group]
	if !ok {
		return nil
	}
	delete(st.held, group)
	sort.SliceStable(g.events, func(i, j int) bool { return g.events[i].Seq < g.events[j].Seq })
	return g.events
}

// releaseOlder lets through, without their Start, the groups held before tick.
func (st *PeerState) releaseOlder(tick int) []StrokeEvent {
	var groups []string
	for id, g := range st.held {
		if g.since < tick {
			groups = append(groups, id)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := st.held[groups[i]], st.held[groups[j]]
		if a.since != b.since {
			return a.since < b.since
		}
		return groups[i] < groups[j]
	})

	var out []StrokeEvent
	for _, id := range groups {
		st.started[id] = 0
		for _, ev := range st.take(id) {
			st.observe(ev)
			out = append(out, ev)
		}
	}
	return out
}

// Drawing lists origins with a stroke in progress.
func (p *Peers) Drawing() []string {
	var out []string
	for id, st := range p.byOrigin {
		if st.ActiveGroup != "" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (p *Peers) Forget(origin string) {
	delete(p.byOrigin, origin)
}

func (p *Peers) Reset() {
	p.byOrigin = make(map[string]*PeerState)
}
