package board

import (
	"SyncBoard/internal/state"
	"SyncBoard/internal/wire"
)

// Transport is the unreliable broadcast channel the engine talks through.
// Implementations must not block in Send; failures are reported through the
// OnError callback and are never retried. Inbound messages carry no ordering
// guarantee across senders and are echoed back to their own sender.
type Transport interface {
	LocalID() string
	// Send broadcasts env, or delivers it only to env.To when set.
	Send(env wire.Envelope)
	OnMessage(fn func(from string, env wire.Envelope))
	OnPeerJoined(fn func(peer string))
	OnPeerLeft(fn func(peer string))
	OnError(fn func(err error))
}

// Renderer paints the visible events of the log, in log order.
type Renderer interface {
	Render(snapshot []state.StrokeEvent)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(snapshot []state.StrokeEvent)

func (f RendererFunc) Render(snapshot []state.StrokeEvent) { f(snapshot) }
