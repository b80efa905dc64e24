package board

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/state"
	"SyncBoard/internal/wire"
)

// joinEpisode is the joiner's view of the history replay. The first peer
// whose history chunk arrives becomes the only accepted source; merging two
// peers' histories is not attempted.
type joinEpisode struct {
	source   string
	accepted int
	done     bool
	// bumped on every accepted chunk; a settle timer only closes the episode
	// if no chunk arrived since it was armed
	generation int
	rejected   mapset.Set[string]
}

func newJoinEpisode() joinEpisode {
	return joinEpisode{rejected: mapset.NewThreadUnsafeSet[string]()}
}

// serveHistory streams the whole log to peer, once per peer.
func (e *Engine) serveHistory(peer string) {
	log := e.log.WithField("to", peer)
	if e.history.Len() == 0 {
		return
	}
	if !e.served.Add(peer) {
		log.Debug("history already sent")
		return
	}

	entries := e.history.Entries()
	items, err := wire.Encode(entries)
	if err != nil {
		log.WithError(err).Warn("failed to encode history")
		return
	}
	chunks, err := wire.Chunk(wire.KindHistory, peer, items, e.cfg.ChunkLimit)
	if err != nil {
		log.WithError(err).Warn("history sent without oversized entries")
	}
	for _, env := range chunks {
		e.transport.Send(env)
	}
	e.transport.Send(wire.Envelope{Type: wire.KindHistoryDone, To: peer})
	log.WithFields(logrus.Fields{"events": len(entries), "chunks": len(chunks)}).Info("sent history")
}

func (e *Engine) acceptHistory(from string, env wire.Envelope) {
	log := e.log.WithField("from", from)
	if e.join.done {
		log.Debug("history episode closed, chunk ignored")
		return
	}
	if e.join.source != "" && e.join.source != from {
		if e.join.rejected.Add(from) {
			log.WithField("source", e.join.source).Info("ignoring history from second responder")
		}
		return
	}

	var events []state.StrokeEvent
	if err := env.Decode(&events); err != nil {
		log.WithError(err).Warn("dropping malformed history chunk")
		return
	}
	if e.join.source == "" {
		e.join.source = from
		log.Info("accepting history")
	}
	for _, ev := range events {
		e.appendAll(e.peers.Admit(ev))
	}
	e.join.accepted += len(events)
	e.join.generation++
	e.render()
	e.armSettle()
}

func (e *Engine) finishHistory(from string) {
	if e.join.done || e.join.source != from {
		return
	}
	e.completeJoin("marker")
}

func (e *Engine) armSettle() {
	if e.cfg.HistorySettle <= 0 {
		return
	}
	gen := e.join.generation
	e.cfg.Scheduler.AfterFunc(e.cfg.HistorySettle, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || e.join.done || e.join.generation != gen {
			return
		}
		e.completeJoin("settle")
	})
}

func (e *Engine) completeJoin(how string) {
	e.join.done = true
	e.log.WithFields(logrus.Fields{
		"source": e.join.source,
		"events": e.join.accepted,
		"by":     how,
	}).Info("history synced")
	if e.onSynced != nil {
		e.onSynced(e.join.source, e.join.accepted)
	}
}
