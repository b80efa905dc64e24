package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/board"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "syncboard.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsMatchEngine(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)

	cfg := f.BoardConfig(logrus.New())
	def := board.DefaultConfig()
	assert.Equal(t, def.DebounceWindow, cfg.DebounceWindow)
	assert.Equal(t, def.ChunkLimit, cfg.ChunkLimit)
	assert.Equal(t, def.HistorySettle, cfg.HistorySettle)
	assert.Equal(t, def.Pen, cfg.Pen)
	assert.True(t, cfg.RequestHistoryOnJoin)
	assert.False(t, cfg.DedupeReplay)
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := write(t, `
[board]
debounce_window = "250ms"
dedupe_replay = true
pen_color = "blue"

[relay]
addr = ":9999"
room = "team"

[archive]
enabled = true
`)
	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, f.Board.DebounceWindow.Duration)
	assert.True(t, f.Board.DedupeReplay)
	assert.Equal(t, "blue", f.Board.PenColor)
	assert.Equal(t, 2.0, f.Board.PenWidth)
	assert.Equal(t, 3*time.Second, f.Board.HistorySettle.Duration)
	assert.Equal(t, ":9999", f.RelayConfig(nil).Addr)
	assert.Equal(t, "team", f.Relay.Room)
	assert.True(t, f.Archive.Enabled)
	assert.Equal(t, "syncboard.sqlite3", f.Archive.Path)
}

func TestLoadMissingFile(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), f)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load(write(t, "[board]\nchunk_size = 10\n"))
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = Load(write(t, "[board]\ndebounce_window = \"soon\"\n"))
	assert.Error(t, err)
}

func TestLoadRejectsChunkOverPayload(t *testing.T) {
	_, err := Load(write(t, "[board]\nchunk_limit = 16384\n\n[relay]\npayload_limit = 4096\n"))
	assert.ErrorIs(t, err, ErrChunkOverPayload)

	// the default chunk limit does not fit a smaller relay
	_, err = Load(write(t, "[relay]\npayload_limit = 4096\n"))
	assert.ErrorIs(t, err, ErrChunkOverPayload)

	f, err := Load(write(t, "[board]\nchunk_limit = 4096\n\n[relay]\npayload_limit = 4096\n"))
	require.NoError(t, err)
	assert.Equal(t, 4096, f.Board.ChunkLimit)
}

func TestLogger(t *testing.T) {
	f := Default()
	f.Log.Level = "debug"
	f.Log.Format = "json"
	log, err := f.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	f.Log.Level = "loud"
	_, err = f.Logger()
	assert.Error(t, err)
}
