package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"SyncBoard/internal/wire"
)

// WSConfig controls how a client reaches the relay.
type WSConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	QueueSize        int
}

func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		QueueSize:        64,
	}
}

// WSTransport is a relay client. Dial it, register handlers, then Listen.
type WSTransport struct {
	cfg     WSConfig
	ws      *websocket.Conn
	id      string
	peers   []string
	writeCh chan wire.Envelope

	mu        sync.RWMutex
	onMsg     func(string, wire.Envelope)
	onJoined  func(string)
	onLeft    func(string)
	onError   func(error)
	listening bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// DialWS connects to the relay and waits for the welcome frame that carries
// the identity the relay assigned.
func DialWS(ctx context.Context, cfg WSConfig) (*WSTransport, error) {
	if cfg.URL == "" {
		return nil, errors.New("empty relay URL")
	}
	def := DefaultWSConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}

	dialCtx := ctx
	if cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}

	var welcome Frame
	if err := wsjson.Read(dialCtx, ws, &welcome); err != nil {
		_ = ws.Close(websocket.StatusInternalError, "handshake error")
		return nil, fmt.Errorf("failed to read welcome: %w", err)
	}
	if welcome.Kind != FrameWelcome || welcome.Peer == "" {
		_ = ws.Close(websocket.StatusProtocolError, "expected welcome")
		return nil, fmt.Errorf("unexpected first frame %q", welcome.Kind)
	}

	return &WSTransport{
		cfg:     cfg,
		ws:      ws,
		id:      welcome.Peer,
		peers:   welcome.Peers,
		writeCh: make(chan wire.Envelope, cfg.QueueSize),
		done:    make(chan struct{}),
	}, nil
}

func (t *WSTransport) LocalID() string { return t.id }

// Peers returns the members present when this client connected.
func (t *WSTransport) Peers() []string { return t.peers }

// Send queues env for the write loop. It never blocks: when the queue is full
// or the client is not listening the signal is lost and OnError is told.
func (t *WSTransport) Send(env wire.Envelope) {
	t.mu.RLock()
	listening := t.listening
	t.mu.RUnlock()
	if !listening {
		t.fireError(ErrNotConnected)
		return
	}
	select {
	case t.writeCh <- env:
	default:
		t.fireError(fmt.Errorf("%w: %s dropped", ErrSendQueueFull, env.Type))
	}
}

func (t *WSTransport) OnMessage(fn func(string, wire.Envelope)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMsg = fn
}

func (t *WSTransport) OnPeerJoined(fn func(string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onJoined = fn
}

func (t *WSTransport) OnPeerLeft(fn func(string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onLeft = fn
}

func (t *WSTransport) OnError(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = fn
}

// Listen starts the read and write loops. Handlers registered before Listen
// see every frame after the welcome.
func (t *WSTransport) Listen(ctx context.Context) {
	t.mu.Lock()
	if t.listening {
		t.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.listening = true
	t.mu.Unlock()

	go t.readLoop(runCtx)
	go t.writeLoop(runCtx)
}

// Done is closed when the read loop exits.
func (t *WSTransport) Done() <-chan struct{} { return t.done }

// Close performs the closing handshake, then stops the loops.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	t.listening = false
	cancel := t.cancel
	t.mu.Unlock()

	err := t.ws.Close(websocket.StatusNormalClosure, "leaving")
	if cancel != nil {
		cancel()
	}
	if err != nil && !isExpectedDisconnect(context.Background(), err) {
		return fmt.Errorf("failed to close: %w", err)
	}
	return nil
}

func (t *WSTransport) readLoop(ctx context.Context) {
	defer close(t.done)
	for {
		var f Frame
		if err := wsjson.Read(ctx, t.ws, &f); err != nil {
			if !isExpectedDisconnect(ctx, err) {
				t.fireError(fmt.Errorf("read loop exit: %w", err))
			}
			t.mu.Lock()
			t.listening = false
			t.mu.Unlock()
			return
		}
		t.dispatch(f)
	}
}

func (t *WSTransport) writeLoop(ctx context.Context) {
	for {
		select {
		case env := <-t.writeCh:
			if err := t.write(ctx, env); err != nil {
				t.fireError(fmt.Errorf("failed to send %s: %w", env.Type, err))
				if ctx.Err() != nil {
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (t *WSTransport) write(ctx context.Context, env wire.Envelope) error {
	if t.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.WriteTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, t.ws, env)
}

func (t *WSTransport) dispatch(f Frame) {
	t.mu.RLock()
	onMsg, onJoined, onLeft := t.onMsg, t.onJoined, t.onLeft
	t.mu.RUnlock()

	switch f.Kind {
	case FrameSignal:
		env, err := wire.Parse(f.Signal)
		if err != nil {
			t.fireError(fmt.Errorf("signal from %s: %w", f.From, err))
			return
		}
		if onMsg != nil {
			onMsg(f.From, env)
		}
	case FrameJoined:
		if onJoined != nil {
			onJoined(f.Peer)
		}
	case FrameLeft:
		if onLeft != nil {
			onLeft(f.Peer)
		}
	case FrameError:
		t.fireError(fmt.Errorf("relay: %s", f.Error))
	}
}

func (t *WSTransport) fireError(err error) {
	t.mu.RLock()
	fn := t.onError
	t.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
