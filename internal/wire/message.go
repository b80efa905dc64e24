// Package wire defines the signal envelope exchanged between peers and the
// chunking that keeps every envelope under the transport's payload ceiling.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultChunkLimit is the serialized envelope ceiling used when none is
// configured. Typical stroke events are ~250 bytes, so about 32 fit.
const DefaultChunkLimit = 8192

var ErrUnknownKind = errors.New("unknown message kind")

// Kind is the closed set of message types.
type Kind uint8

const (
	KindUpdate Kind = iota + 1
	KindUndo
	KindRedo
	KindClear
	KindRequestHistory
	KindHistory
	KindHistoryDone
)

var kindNames = map[Kind]string{
	KindUpdate:         "update",
	KindUndo:           "undo",
	KindRedo:           "redo",
	KindClear:          "clear",
	KindRequestHistory: "request-history",
	KindHistory:        "history",
	KindHistoryDone:    "history-done",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindUpdate, KindUndo, KindRedo, KindClear, KindRequestHistory, KindHistory, KindHistoryDone}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(name), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Batched reports whether the kind carries a payload that goes through the
// debounced batcher.
func (k Kind) Batched() bool {
	return k == KindUpdate || k == KindUndo || k == KindRedo
}

// Envelope is one signal on the wire. Data is a serialized JSON array of
// stroke events or undo tokens. To is set for unicast signals.
type Envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	To   string          `json:"to,omitempty"`
}

// Size is the serialized size of the envelope in bytes.
func (e Envelope) Size() int {
	raw, err := json.Marshal(e)
	if err != nil {
		return 0
	}
	return len(raw)
}

// Items splits Data into its array elements.
func (e Envelope) Items() ([]json.RawMessage, error) {
	if len(e.Data) == 0 {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(e.Data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return items, nil
}

// Decode unmarshals Data into v, typically a slice of events or tokens.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Parse decodes a raw envelope, rejecting unknown kinds.
func Parse(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if _, ok := kindNames[env.Type]; !ok {
		return Envelope{}, fmt.Errorf("failed to parse envelope: %w", ErrUnknownKind)
	}
	return env, nil
}
