package board

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"SyncBoard/internal/wire"
)

// Batcher coalesces outgoing items per message kind. The first item queued
// for a kind arms that kind's timer; later items ride along until it fires.
// On flush the queue is cut into envelopes under the chunk limit and sent in
// enqueue order.
type Batcher struct {
	window time.Duration
	limit  int
	sched  Scheduler
	send   func(wire.Envelope)
	log    logrus.FieldLogger

	mu     sync.Mutex
	queues map[wire.Kind][]json.RawMessage
	armed  map[wire.Kind]bool

	// held while a flush emits, so two flushes never interleave their chunks
	emitMu sync.Mutex
}

func NewBatcher(window time.Duration, limit int, sched Scheduler, send func(wire.Envelope), log logrus.FieldLogger) *Batcher {
	return &Batcher{
		window: window,
		limit:  limit,
		sched:  sched,
		send:   send,
		log:    log.WithField("component", "batcher"),
		queues: make(map[wire.Kind][]json.RawMessage),
		armed:  make(map[wire.Kind]bool),
	}
}

// Enqueue serializes v and queues it for kind.
func (b *Batcher) Enqueue(kind wire.Kind, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s item: %w", kind, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[kind] = append(b.queues[kind], raw)
	if !b.armed[kind] {
		b.armed[kind] = true
		b.sched.AfterFunc(b.window, func() { b.flush(kind) })
	}
	return nil
}

// Pending returns how many items are queued for kind.
func (b *Batcher) Pending(kind wire.Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[kind])
}

// FlushAll sends every queued item now. A timer that fires later finds an
// empty queue and sends nothing.
func (b *Batcher) FlushAll() {
	for _, kind := range wire.Kinds() {
		b.flush(kind)
	}
}

func (b *Batcher) flush(kind wire.Kind) {
	b.emitMu.Lock()
	defer b.emitMu.Unlock()

	b.mu.Lock()
	items := b.queues[kind]
	delete(b.queues, kind)
	b.armed[kind] = false
	b.mu.Unlock()

	if len(items) == 0 {
		return
	}
	chunks, err := wire.Chunk(kind, "", items, b.limit)
	if err != nil {
		b.log.WithError(err).Warn("dropping items that cannot be sent")
	}
	for _, env := range chunks {
		b.send(env)
	}
	b.log.WithFields(logrus.Fields{"kind": kind.String(), "items": len(items), "chunks": len(chunks)}).Debug("flushed")
}
