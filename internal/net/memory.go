package net

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"SyncBoard/internal/wire"
)

// Bus is an in-process signaling room. Signals are queued and only handed to
// peers when Deliver runs, which lets tests decide the interleaving. Like a
// hosted signaling service, broadcasts are echoed to their sender.
type Bus struct {
	mu      sync.Mutex
	members map[string]*MemoryTransport
	queue   []delivery
	limit   int
	rng     *rand.Rand
	drop    float64
}

type deliveryKind uint8

const (
	deliverSignal deliveryKind = iota
	deliverJoined
	deliverLeft
	deliverError
)

type delivery struct {
	kind deliveryKind
	to   string
	from string
	env  wire.Envelope
	err  error
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithShuffle delivers queued signals in random order.
func WithShuffle(seed int64) BusOption {
	return func(b *Bus) { b.rng = rand.New(rand.NewSource(seed)) }
}

// WithDropRate silently loses the given fraction of signals. It needs a
// random source, so it implies WithShuffle when none is set.
func WithDropRate(rate float64) BusOption {
	return func(b *Bus) { b.drop = rate }
}

// WithPayloadLimit rejects envelopes larger than limit bytes.
func WithPayloadLimit(limit int) BusOption {
	return func(b *Bus) { b.limit = limit }
}

func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		members: make(map[string]*MemoryTransport),
		limit:   wire.DefaultChunkLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.drop > 0 && b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return b
}

// Join adds a peer. An empty id gets a random one. Existing members are
// told about the newcomer; the newcomer is not told about them.
func (b *Bus) Join(id string) *MemoryTransport {
	if id == "" {
		id = uuid.NewString()
	}
	t := &MemoryTransport{bus: b, id: id}

	b.mu.Lock()
	defer b.mu.Unlock()
	for other := range b.members {
		b.queue = append(b.queue, delivery{kind: deliverJoined, to: other, from: id})
	}
	b.members[id] = t
	return t
}

func (b *Bus) leave(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.members[id]; !ok {
		return
	}
	delete(b.members, id)
	for other := range b.members {
		b.queue = append(b.queue, delivery{kind: deliverLeft, to: other, from: id})
	}
}

func (b *Bus) publish(from string, env wire.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if size := env.Size(); size > b.limit {
		b.queue = append(b.queue, delivery{
			kind: deliverError, to: from,
			err: fmt.Errorf("%w: %d bytes over %d", ErrPayloadTooLarge, size, b.limit),
		})
		return
	}
	if env.To != "" {
		if _, ok := b.members[env.To]; ok {
			b.queue = append(b.queue, delivery{kind: deliverSignal, to: env.To, from: from, env: env})
		}
		return
	}
	for id := range b.members {
		b.queue = append(b.queue, delivery{kind: deliverSignal, to: id, from: from, env: env})
	}
}

// Pending returns the number of queued deliveries.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Deliver hands queued signals to their recipients until the queue is empty,
// including signals sent by handlers along the way. It returns how many were
// delivered. Handlers run on the caller's goroutine with the bus unlocked.
func (b *Bus) Deliver() int {
	n := 0
	for {
		d, t, ok := b.next()
		if !ok {
			return n
		}
		if t == nil {
			continue
		}
		t.dispatch(d)
		n++
	}
}

func (b *Bus) next() (delivery, *MemoryTransport, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return delivery{}, nil, false
	}
	i := 0
	if b.rng != nil {
		i = b.rng.Intn(len(b.queue))
	}
	d := b.queue[i]
	b.queue = append(b.queue[:i], b.queue[i+1:]...)

	if d.kind == deliverSignal && b.drop > 0 && b.rng.Float64() < b.drop {
		return d, nil, true
	}
	return d, b.members[d.to], true
}

// Run delivers queued signals every interval until ctx is done.
func (b *Bus) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			b.Deliver()
		case <-ctx.Done():
			return
		}
	}
}

// MemoryTransport is one peer's handle on a Bus.
type MemoryTransport struct {
	bus *Bus
	id  string

	mu       sync.RWMutex
	onMsg    func(string, wire.Envelope)
	onJoined func(string)
	onLeft   func(string)
	onError  func(error)
}

func (t *MemoryTransport) LocalID() string { return t.id }

func (t *MemoryTransport) Send(env wire.Envelope) { t.bus.publish(t.id, env) }

func (t *MemoryTransport) OnMessage(fn func(string, wire.Envelope)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMsg = fn
}

func (t *MemoryTransport) OnPeerJoined(fn func(string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onJoined = fn
}

func (t *MemoryTransport) OnPeerLeft(fn func(string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onLeft = fn
}

func (t *MemoryTransport) OnError(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = fn
}

// Leave removes the peer from the bus; remaining members are notified.
func (t *MemoryTransport) Leave() { t.bus.leave(t.id) }

func (t *MemoryTransport) dispatch(d delivery) {
	t.mu.RLock()
	onMsg, onJoined, onLeft, onError := t.onMsg, t.onJoined, t.onLeft, t.onError
	t.mu.RUnlock()

	switch d.kind {
	case deliverSignal:
		if onMsg != nil {
			onMsg(d.from, d.env)
		}
	case deliverJoined:
		if onJoined != nil {
			onJoined(d.from)
		}
	case deliverLeft:
		if onLeft != nil {
			onLeft(d.from)
		}
	case deliverError:
		if onError != nil {
			onError(d.err)
		}
	}
}
