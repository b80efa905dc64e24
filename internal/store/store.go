// Package store archives board sessions in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/state"
)

var ErrSessionNotFound = errors.New("session not found")

// Session describes one archived board.
type Session struct {
	ID      string
	Room    string
	Peer    string
	SavedAt time.Time
	Events  int
}

type Store struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open opens or creates the archive at path.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	s := &Store{db: db, log: log.WithField("component", "store")}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS sessions (
		id text not null primary key,
		room text not null,
		peer text not null,
		saved_at integer not null,
		events integer not null
		)`,
	); err != nil {
		return fmt.Errorf("failed to create sessions: %w", err)
	}
	if _, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS events (
		session_id text not null references sessions(id) on delete cascade,
		idx integer not null,
		group_id text not null,
		origin_id text not null,
		visible integer not null,
		content text not null,
		primary key (session_id, idx)
		)`,
	); err != nil {
		return fmt.Errorf("failed to create events: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession stores a copy of a log, hidden entries included.
func (s *Store) SaveSession(ctx context.Context, room, peer string, events []state.StrokeEvent) (Session, error) {
	sess := Session{
		ID:      uuid.NewString(),
		Room:    room,
		Peer:    peer,
		SavedAt: time.Now().UTC(),
		Events:  len(events),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("failed to begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, room, peer, saved_at, events) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Room, sess.Peer, sess.SavedAt.UnixNano(), sess.Events,
	); err != nil {
		return Session{}, fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (session_id, idx, group_id, origin_id, visible, content) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Session{}, fmt.Errorf("failed to prepare: %w", err)
	}
	defer stmt.Close()

	for i, ev := range events {
		content, err := json.Marshal(ev)
		if err != nil {
			return Session{}, fmt.Errorf("failed to encode event %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, sess.ID, i, ev.GroupID, ev.OriginID, ev.Visible, string(content)); err != nil {
			return Session{}, fmt.Errorf("failed to insert event %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("failed to commit: %w", err)
	}
	s.log.WithFields(logrus.Fields{"session": sess.ID, "events": sess.Events}).Info("archived session")
	return sess, nil
}

// ListSessions returns every archived session, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room, peer, saved_at, events FROM sessions ORDER BY saved_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			s.log.WithError(err).Warn("failed to close rows")
		}
	}(rows)

	var out []Session
	for rows.Next() {
		var sess Session
		var savedAt int64
		if err := rows.Scan(&sess.ID, &sess.Room, &sess.Peer, &savedAt, &sess.Events); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		sess.SavedAt = time.Unix(0, savedAt).UTC()
		out = append(out, sess)
	}
	return out, rows.Err()
}

// LoadEvents returns the archived log of a session in its original order.
func (s *Store) LoadEvents(ctx context.Context, id string) ([]state.StrokeEvent, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT events FROM sessions WHERE id = ?`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT content FROM events WHERE session_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	out := make([]state.StrokeEvent, 0, n)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		var ev state.StrokeEvent
		if err := json.Unmarshal([]byte(content), &ev); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}
