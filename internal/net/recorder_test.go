package net

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"SyncBoard/internal/wire"
)

type received struct {
	from string
	env  wire.Envelope
}

// recorder collects everything a transport hands to its handlers.
type recorder struct {
	mu     sync.Mutex
	msgs   []received
	joined []string
	left   []string
	errs   []error
}

type transport interface {
	OnMessage(func(string, wire.Envelope))
	OnPeerJoined(func(string))
	OnPeerLeft(func(string))
	OnError(func(error))
}

func record(t transport) *recorder {
	r := &recorder{}
	t.OnMessage(func(from string, env wire.Envelope) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.msgs = append(r.msgs, received{from: from, env: env})
	})
	t.OnPeerJoined(func(p string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.joined = append(r.joined, p)
	})
	t.OnPeerLeft(func(p string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.left = append(r.left, p)
	})
	t.OnError(func(err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.errs = append(r.errs, err)
	})
	return r
}

func (r *recorder) messages() []received {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]received(nil), r.msgs...)
}

func (r *recorder) joins() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.joined...)
}

func (r *recorder) leaves() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.left...)
}

func (r *recorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
