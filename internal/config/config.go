// Package config loads the optional TOML settings file shared by the
// desktop app and the commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/board"
	boardnet "SyncBoard/internal/net"
	"SyncBoard/internal/wire"
)

var (
	ErrUnknownKey       = errors.New("unknown config key")
	ErrChunkOverPayload = errors.New("board.chunk_limit exceeds relay.payload_limit")
)

// Duration reads "100ms" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type File struct {
	Board   Board   `toml:"board"`
	Relay   Relay   `toml:"relay"`
	Archive Archive `toml:"archive"`
	Log     Log     `toml:"log"`
}

type Board struct {
	DebounceWindow       Duration `toml:"debounce_window"`
	ChunkLimit           int      `toml:"chunk_limit"`
	HistorySettle        Duration `toml:"history_settle"`
	RequestHistoryOnJoin bool     `toml:"request_history_on_join"`
	DedupeReplay         bool     `toml:"dedupe_replay"`
	PenColor             string   `toml:"pen_color"`
	PenWidth             float64  `toml:"pen_width"`
	EraserWidth          float64  `toml:"eraser_width"`
	Background           string   `toml:"background"`
}

type Relay struct {
	Addr         string   `toml:"addr"`
	Room         string   `toml:"room"`
	PayloadLimit int      `toml:"payload_limit"`
	WriteTimeout Duration `toml:"write_timeout"`
	OutboxSize   int      `toml:"outbox_size"`
	Advertise    bool     `toml:"advertise"`
}

type Archive struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default mirrors board.DefaultConfig and net.DefaultRelayConfig.
func Default() File {
	b := board.DefaultConfig()
	r := boardnet.DefaultRelayConfig()
	return File{
		Board: Board{
			DebounceWindow:       Duration{b.DebounceWindow},
			ChunkLimit:           b.ChunkLimit,
			HistorySettle:        Duration{b.HistorySettle},
			RequestHistoryOnJoin: b.RequestHistoryOnJoin,
			DedupeReplay:         b.DedupeReplay,
			PenColor:             b.Pen.Color,
			PenWidth:             b.Pen.Width,
			EraserWidth:          b.EraserWidth,
			Background:           b.Background,
		},
		Relay: Relay{
			Addr:         r.Addr,
			Room:         boardnet.DefaultRoom,
			PayloadLimit: r.PayloadLimit,
			WriteTimeout: Duration{r.WriteTimeout},
			OutboxSize:   r.OutboxSize,
			Advertise:    true,
		},
		Archive: Archive{Path: "syncboard.sqlite3"},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults. Keys the file sets but no field knows are an error.
func Load(path string) (File, error) {
	f := Default()
	if path == "" {
		return f, nil
	}
	md, err := toml.DecodeFile(path, &f)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	} else if err != nil {
		return File{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return File{}, fmt.Errorf("%w in %s: %s", ErrUnknownKey, path, strings.Join(keys, ", "))
	}
	// the relay refuses any envelope over its payload limit
	chunk, payload := orDefault(f.Board.ChunkLimit), orDefault(f.Relay.PayloadLimit)
	if chunk > payload {
		return File{}, fmt.Errorf("%w in %s: %d > %d", ErrChunkOverPayload, path, chunk, payload)
	}
	return f, nil
}

func orDefault(limit int) int {
	if limit <= 0 {
		return wire.DefaultChunkLimit
	}
	return limit
}

func (f File) BoardConfig(log logrus.FieldLogger) board.Config {
	return board.Config{
		DebounceWindow:       f.Board.DebounceWindow.Duration,
		ChunkLimit:           f.Board.ChunkLimit,
		HistorySettle:        f.Board.HistorySettle.Duration,
		RequestHistoryOnJoin: f.Board.RequestHistoryOnJoin,
		DedupeReplay:         f.Board.DedupeReplay,
		Pen:                  board.Pen{Color: f.Board.PenColor, Width: f.Board.PenWidth},
		EraserWidth:          f.Board.EraserWidth,
		Background:           f.Board.Background,
		Logger:               log,
	}
}

func (f File) RelayConfig(log logrus.FieldLogger) boardnet.RelayConfig {
	return boardnet.RelayConfig{
		Addr:         f.Relay.Addr,
		PayloadLimit: f.Relay.PayloadLimit,
		WriteTimeout: f.Relay.WriteTimeout.Duration,
		OutboxSize:   f.Relay.OutboxSize,
		Logger:       log,
	}
}

// Logger builds the process logger from the [log] table.
func (f File) Logger() (*logrus.Logger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(f.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("bad log level: %w", err)
	}
	log.SetLevel(level)
	switch f.Log.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("bad log format %q", f.Log.Format)
	}
	return log, nil
}
