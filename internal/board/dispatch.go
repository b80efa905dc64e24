package board

import (
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/state"
	"SyncBoard/internal/wire"
)

// handleMessage routes one inbound signal. Signals sent by this peer come
// back from the transport and are dropped: they were applied at capture.
func (e *Engine) handleMessage(from string, env wire.Envelope) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if from == e.self {
		return
	}
	log := e.log.WithFields(logrus.Fields{"from": from, "kind": env.Type.String()})

	switch env.Type {
	case wire.KindUpdate:
		var events []state.StrokeEvent
		if err := env.Decode(&events); err != nil {
			log.WithError(err).Warn("dropping malformed update")
			return
		}
		e.applyRemote(from, events)
	case wire.KindUndo, wire.KindRedo:
		var tokens []state.UndoToken
		if err := env.Decode(&tokens); err != nil {
			log.WithError(err).Warn("dropping malformed reversal")
			return
		}
		e.applyReversals(from, tokens, env.Type == wire.KindRedo)
	case wire.KindClear:
		e.reset()
		e.render()
		log.Info("board cleared by peer")
	case wire.KindRequestHistory:
		e.serveHistory(from)
	case wire.KindHistory:
		e.acceptHistory(from, env)
	case wire.KindHistoryDone:
		e.finishHistory(from)
	default:
		log.Warn("dropping signal of unknown kind")
	}
}

// applyRemote appends a peer's live events. Events that beat their group's
// Start across chunks wait in the peer's tracking until it arrives.
func (e *Engine) applyRemote(from string, events []state.StrokeEvent) {
	appended := 0
	for _, ev := range events {
		if ev.OriginID == "" {
			ev.OriginID = from
		}
		ready := e.peers.Admit(ev)
		if len(ready) == 0 {
			e.log.WithFields(logrus.Fields{"from": from, "group": ev.GroupID, "phase": ev.Phase.String()}).
				Debug("holding event until its stroke starts")
			continue
		}
		appended += e.appendAll(ready)
	}
	if appended > 0 {
		e.render()
	}
}

func (e *Engine) appendAll(events []state.StrokeEvent) int {
	n := 0
	for _, ev := range events {
		if e.history.Append(ev) {
			n++
		}
	}
	return n
}

func (e *Engine) handlePeerJoined(peer string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || peer == e.self {
		return
	}
	e.log.WithField("joined", peer).Info("peer joined")
	e.serveHistory(peer)
}

func (e *Engine) handlePeerLeft(peer string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.served.Remove(peer)
	log := e.log.WithField("left", peer)
	if held := e.peers.Release(peer); len(held) > 0 {
		log.WithField("events", len(held)).Debug("appending events whose stroke never started")
		if e.appendAll(held) > 0 {
			e.render()
		}
	}
	e.peers.Forget(peer)
	log.Info("peer left")
}
