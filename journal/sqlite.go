package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore stores journal entries in SQLite.
//
// It expects an *sql.DB that uses a SQLite driver. The caller is responsible
// for importing the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in db and returns a store.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			object_id INTEGER NOT NULL,
			event_id TEXT NOT NULL DEFAULT '',
			signal INTEGER NOT NULL DEFAULT -1,
			from_state INTEGER NOT NULL,
			to_state INTEGER NOT NULL,
			from_name TEXT NOT NULL DEFAULT '',
			to_name TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			committed INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transitions_object_id ON transitions(object_id, id);
	`)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	eventID := ""
	if e.EventID != uuid.Nil {
		eventID = e.EventID.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transitions (object_id, event_id, signal, from_state, to_state, from_name, to_name, outcome, committed, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ObjectID,
		eventID,
		e.Signal,
		e.From,
		e.To,
		e.FromName,
		e.ToName,
		e.Outcome,
		e.Committed,
		e.Err,
		at.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, objectID int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT object_id, event_id, signal, from_state, to_state, from_name, to_name, outcome, committed, error, at
		FROM transitions
		WHERE object_id = ?
		ORDER BY id ASC`, objectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			eventID string
			atN     int64
		)
		if err := rows.Scan(&e.ObjectID, &eventID, &e.Signal, &e.From, &e.To, &e.FromName, &e.ToName, &e.Outcome, &e.Committed, &e.Err, &atN); err != nil {
			return nil, err
		}
		if eventID != "" {
			if e.EventID, err = uuid.Parse(eventID); err != nil {
				return nil, fmt.Errorf("parse event id %q: %w", eventID, err)
			}
		}
		e.At = time.Unix(0, atN)
		out = append(out, e)
	}
	return out, rows.Err()
}
