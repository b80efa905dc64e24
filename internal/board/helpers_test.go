package board

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/state"
	"SyncBoard/internal/wire"
)

// manualScheduler records timers and runs them only when told to.
type manualScheduler struct {
	mu      sync.Mutex
	pending []scheduled
}

type scheduled struct {
	d time.Duration
	f func()
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, scheduled{d: d, f: f})
}

func (s *manualScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// FireNext runs the oldest armed timer.
func (s *manualScheduler) FireNext() bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()
	next.f()
	return true
}

// Fire runs every timer armed at the time of the call.
func (s *manualScheduler) Fire() int {
	s.mu.Lock()
	due := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, sc := range due {
		sc.f()
	}
	return len(due)
}

// fakeTransport records what the engine sends and lets tests inject signals.
type fakeTransport struct {
	id string

	mu       sync.Mutex
	sent     []wire.Envelope
	onMsg    func(string, wire.Envelope)
	onJoined func(string)
	onLeft   func(string)
	onError  func(error)
}

func (f *fakeTransport) LocalID() string { return f.id }

func (f *fakeTransport) Send(env wire.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
}

func (f *fakeTransport) OnMessage(fn func(string, wire.Envelope)) { f.onMsg = fn }
func (f *fakeTransport) OnPeerJoined(fn func(string))             { f.onJoined = fn }
func (f *fakeTransport) OnPeerLeft(fn func(string))               { f.onLeft = fn }
func (f *fakeTransport) OnError(fn func(error))                   { f.onError = fn }

func (f *fakeTransport) inject(from string, env wire.Envelope) { f.onMsg(from, env) }

// take returns and forgets everything sent so far.
func (f *fakeTransport) take() []wire.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sent
	f.sent = nil
	return out
}

type recordingRenderer struct {
	mu    sync.Mutex
	calls int
	last  []state.StrokeEvent
}

func (r *recordingRenderer) Render(snapshot []state.StrokeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = snapshot
}

func (r *recordingRenderer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig(sched Scheduler) Config {
	cfg := DefaultConfig()
	cfg.Logger = quietLogger()
	cfg.Scheduler = sched
	cfg.RequestHistoryOnJoin = false
	return cfg
}

func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *fakeTransport, *manualScheduler, *recordingRenderer) {
	t.Helper()
	sched := &manualScheduler{}
	cfg := testConfig(sched)
	if mutate != nil {
		mutate(&cfg)
	}
	tr := &fakeTransport{id: "self"}
	r := &recordingRenderer{}
	e := New(cfg, tr, r)
	e.Start()
	return e, tr, sched, r
}

func draw(e *Engine, drags int, at state.Point) {
	e.Capture(CaptureEvent{Phase: state.PhaseStart, Point: at})
	for i := 1; i <= drags; i++ {
		e.Capture(CaptureEvent{Phase: state.PhaseDrag, Point: state.Point{X: at.X + float64(i), Y: at.Y}})
	}
	e.Capture(CaptureEvent{Phase: state.PhaseEnd, Point: state.Point{X: at.X + float64(drags+1), Y: at.Y}})
}

func decodeEvents(t *testing.T, env wire.Envelope) []state.StrokeEvent {
	t.Helper()
	var evs []state.StrokeEvent
	require.NoError(t, env.Decode(&evs))
	return evs
}

func envelope(t *testing.T, kind wire.Kind, to string, v any) wire.Envelope {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return wire.Envelope{Type: kind, Data: data, To: to}
}

// remoteStroke builds a complete stroke as peer origin would send it.
func remoteStroke(origin, group string, drags int) []state.StrokeEvent {
	out := []state.StrokeEvent{{GroupID: group, OriginID: origin, Phase: state.PhaseStart, Color: "red", Width: 2, Visible: true}}
	for i := 1; i <= drags; i++ {
		out = append(out, state.StrokeEvent{
			GroupID: group, OriginID: origin, Seq: i, Phase: state.PhaseDrag,
			From: state.Point{X: float64(i - 1)}, To: state.Point{X: float64(i)},
			Color: "red", Width: 2, Visible: true,
		})
	}
	return append(out, state.StrokeEvent{GroupID: group, OriginID: origin, Seq: drags + 1, Phase: state.PhaseEnd, Color: "red", Width: 2, Visible: true})
}

func groups(evs []state.StrokeEvent) []string {
	var out []string
	seen := map[string]bool{}
	for _, ev := range evs {
		if !seen[ev.GroupID] {
			seen[ev.GroupID] = true
			out = append(out, ev.GroupID)
		}
	}
	return out
}
