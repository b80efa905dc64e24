package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/wire"
)

// DefaultRoom is used when a share link names no room.
const DefaultRoom = "default"

// RelayConfig controls the signaling relay.
type RelayConfig struct {
	Addr         string
	PayloadLimit int
	WriteTimeout time.Duration
	// OutboxSize is how many frames may wait for a slow peer before frames
	// to that peer are dropped.
	OutboxSize int
	Logger     logrus.FieldLogger
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Addr:         ":8888",
		PayloadLimit: wire.DefaultChunkLimit,
		WriteTimeout: 10 * time.Second,
		OutboxSize:   256,
	}
}

// Relay is a broadcast signaling server. It assigns every connection an
// identity, echoes broadcasts to all members of the room including the
// sender, delivers addressed signals to one member, and announces joins and
// departures. It keeps no drawing state and imposes no ordering.
type Relay struct {
	cfg      RelayConfig
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRelay(cfg RelayConfig) *Relay {
	def := DefaultRelayConfig()
	if cfg.PayloadLimit <= 0 {
		cfg.PayloadLimit = def.PayloadLimit
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = def.OutboxSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Relay{
		cfg: cfg,
		log: cfg.Logger.WithField("component", "relay"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]*Room),
	}
}

// Handler routes /rooms/{room}/ws to the websocket endpoint and
// /rooms/{room} to a JSON listing of its members.
func (r *Relay) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, req)
			r.log.WithFields(logrus.Fields{
				"method":   req.Method,
				"url":      req.URL.String(),
				"status":   m.Code,
				"duration": m.Duration,
			}).Debug("handled")
		})
	})
	router.Methods(http.MethodGet).Path("/rooms/{room}/ws").HandlerFunc(r.serveWS)
	router.Methods(http.MethodGet).Path("/rooms/{room}").HandlerFunc(r.serveRoom)
	router.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return router
}

// ListenAndServe runs the relay until ctx is done.
func (r *Relay) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: r.cfg.Addr, Handler: r.Handler()}
	errCh := make(chan error, 1)
	go func() {
		r.log.WithField("addr", r.cfg.Addr).Info("relay listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay listen failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		r.closeAll()
		return nil
	}
}

func (r *Relay) room(name string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[name]
	if !ok {
		rm = &Room{name: name, peers: make(map[string]*Peer)}
		r.rooms[name] = rm
	}
	return rm
}

// Members lists the peer ids currently in a room.
func (r *Relay) Members(room string) []string {
	return r.room(room).IDs()
}

func (r *Relay) closeAll() {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.Unlock()
	for _, rm := range rooms {
		for _, p := range rm.snapshot() {
			_ = p.conn.Close()
		}
	}
}

func (r *Relay) serveRoom(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["room"]
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"room": name, "peers": r.Members(name)}); err != nil {
		r.log.WithError(err).Warn("failed to write room listing")
	}
}

func (r *Relay) serveWS(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["room"]
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.WithError(err).Warn("failed to upgrade")
		return
	}
	// frames over twice the limit are not worth reading; gorilla closes the connection
	conn.SetReadLimit(int64(r.cfg.PayloadLimit) * 2)

	p := &Peer{id: uuid.NewString(), conn: conn, out: make(chan Frame, r.cfg.OutboxSize)}
	rm := r.room(name)
	log := r.log.WithFields(logrus.Fields{"room": name, "peer": p.id})

	others := rm.Add(p)
	go r.writeLoop(p, log)
	rm.Broadcast(Frame{Kind: FrameJoined, Peer: p.id}, p.id, log)
	log.WithField("members", len(others)+1).Info("peer connected")

	r.readLoop(rm, p, log)

	rm.Remove(p.id)
	close(p.out)
	rm.Broadcast(Frame{Kind: FrameLeft, Peer: p.id}, "", log)
	log.Info("peer disconnected")
}

func (r *Relay) readLoop(rm *Room, p *Peer, log logrus.FieldLogger) {
	for {
		mt, raw, err := p.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("read failed")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > r.cfg.PayloadLimit {
			p.send(Frame{Kind: FrameError, Error: fmt.Sprintf("%v: %d bytes over %d", ErrPayloadTooLarge, len(raw), r.cfg.PayloadLimit)}, log)
			continue
		}
		var head struct {
			To string `json:"to"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			p.send(Frame{Kind: FrameError, Error: "malformed signal"}, log)
			continue
		}
		f := Frame{Kind: FrameSignal, From: p.id, Signal: raw}
		if head.To != "" {
			rm.SendTo(head.To, f, log)
			continue
		}
		rm.Broadcast(f, "", log)
	}
}

func (r *Relay) writeLoop(p *Peer, log logrus.FieldLogger) {
	defer p.conn.Close()
	for f := range p.out {
		_ = p.conn.SetWriteDeadline(time.Now().Add(r.cfg.WriteTimeout))
		if err := p.conn.WriteJSON(f); err != nil {
			log.WithError(err).Warn("write failed")
			return
		}
	}
	_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Peer is one websocket connection to the relay.
type Peer struct {
	id   string
	conn *websocket.Conn
	out  chan Frame

	mu     sync.Mutex
	closed bool
}

// send queues f without blocking; a full outbox drops the frame.
func (p *Peer) send(f Frame, log logrus.FieldLogger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.out <- f:
	default:
		log.WithField("to", p.id).Warn("outbox full, frame dropped")
	}
}

// Room is the set of peers sharing one board.
type Room struct {
	name  string
	mu    sync.RWMutex
	peers map[string]*Peer
}

// Add registers p and returns the ids of the members already present. The
// welcome frame is queued before p becomes visible, so it is always the
// first frame p receives.
func (rm *Room) Add(p *Peer) []string {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	others := make([]string, 0, len(rm.peers))
	for id := range rm.peers {
		others = append(others, id)
	}
	sort.Strings(others)
	p.out <- Frame{Kind: FrameWelcome, Peer: p.id, Peers: others}
	rm.peers[p.id] = p
	return others
}

func (rm *Room) Remove(id string) {
	rm.mu.Lock()
	p, ok := rm.peers[id]
	delete(rm.peers, id)
	rm.mu.Unlock()
	if ok {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
	}
}

func (rm *Room) IDs() []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	ids := make([]string, 0, len(rm.peers))
	for id := range rm.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (rm *Room) snapshot() []*Peer {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]*Peer, 0, len(rm.peers))
	for _, p := range rm.peers {
		out = append(out, p)
	}
	return out
}

// Broadcast queues f for every member except exclude.
func (rm *Room) Broadcast(f Frame, exclude string, log logrus.FieldLogger) {
	for _, p := range rm.snapshot() {
		if p.id != exclude {
			p.send(f, log)
		}
	}
}

// SendTo queues f for one member; unknown members are ignored.
func (rm *Room) SendTo(id string, f Frame, log logrus.FieldLogger) {
	rm.mu.RLock()
	p, ok := rm.peers[id]
	rm.mu.RUnlock()
	if ok {
		p.send(f, log)
	}
}
