package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrItemTooLarge = errors.New("item exceeds chunk limit")

// Chunk packs items, in order, into as few envelopes as possible such that
// every envelope's serialized size is at most limit. Concatenating the Data
// arrays of the result reproduces items. An item that cannot fit even alone is
// left out and reported through an error wrapping ErrItemTooLarge; the other
// items are still returned.
func Chunk(kind Kind, to string, items []json.RawMessage, limit int) ([]Envelope, error) {
	if len(items) == 0 {
		return nil, nil
	}
	empty := Envelope{Type: kind, To: to, Data: json.RawMessage("[]")}
	// bytes taken by everything except the array contents
	overhead := empty.Size()
	if overhead == 0 {
		return nil, fmt.Errorf("failed to size %s envelope", kind)
	}

	var (
		chunks  []Envelope
		buf     bytes.Buffer
		dropped int
	)
	emit := func() {
		if buf.Len() == 0 {
			return
		}
		data := make([]byte, 0, buf.Len()+2)
		data = append(data, '[')
		data = append(data, buf.Bytes()...)
		data = append(data, ']')
		chunks = append(chunks, Envelope{Type: kind, To: to, Data: data})
		buf.Reset()
	}

	for _, item := range items {
		item = compact(item)
		if overhead+len(item) > limit {
			dropped++
			continue
		}
		sep := 0
		if buf.Len() > 0 {
			sep = 1
		}
		if overhead+buf.Len()+sep+len(item) > limit {
			emit()
			sep = 0
		}
		if sep == 1 {
			buf.WriteByte(',')
		}
		buf.Write(item)
	}
	emit()

	if dropped > 0 {
		return chunks, fmt.Errorf("%w: dropped %d %s item(s) over %d bytes", ErrItemTooLarge, dropped, kind, limit)
	}
	return chunks, nil
}

// compact strips insignificant whitespace so the size accounting matches what
// json.Marshal emits for the envelope.
func compact(item json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, item); err != nil {
		return item
	}
	return buf.Bytes()
}

// Encode marshals each value into a raw array element.
func Encode[T any](values []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode item: %w", err)
		}
		out = append(out, raw)
	}
	return out, nil
}
