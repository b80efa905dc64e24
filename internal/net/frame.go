package net

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrNotConnected    = errors.New("not connected")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrSendQueueFull   = errors.New("send queue full")
	ErrBadShareLink    = errors.New("bad share link")
)

// Scheme prefixes share links handed between users.
const Scheme = "syncboard://"

// FrameKind tags frames between the relay and its clients.
type FrameKind string

const (
	FrameWelcome FrameKind = "welcome"
	FrameJoined  FrameKind = "joined"
	FrameLeft    FrameKind = "left"
	FrameSignal  FrameKind = "signal"
	FrameError   FrameKind = "error"
)

// Frame is what the relay writes to clients. Clients write bare envelopes.
type Frame struct {
	Kind   FrameKind       `json:"kind"`
	From   string          `json:"from,omitempty"`
	Peer   string          `json:"peer,omitempty"`
	Peers  []string        `json:"peers,omitempty"`
	Signal json.RawMessage `json:"signal,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ShareLink builds the link a host gives to people joining its room.
func ShareLink(host string, port int, room string) string {
	return fmt.Sprintf("%s%s:%d/%s", Scheme, host, port, url.PathEscape(room))
}

// ParseShareLink turns a share link into the relay's websocket URL.
func ParseShareLink(link string) (string, error) {
	if !strings.HasPrefix(link, Scheme) {
		return "", fmt.Errorf("%w: %q", ErrBadShareLink, link)
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(link, Scheme), "/")
	addr, room, _ := strings.Cut(rest, "/")
	if addr == "" {
		return "", fmt.Errorf("%w: missing address in %q", ErrBadShareLink, link)
	}
	if room == "" {
		room = DefaultRoom
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: "/rooms/" + room + "/ws"}
	return u.String(), nil
}
