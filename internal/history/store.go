// Package history keeps a SQLite audit log of handled exchanges. The
// conversational session state itself is deliberately in-memory and
// ephemeral; this log exists so a user can ask "what did I tell it to
// send yesterday" against something durable.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded exchange.
type Entry struct {
	ID        int64
	UserID    int64
	Utterance string
	Response  string
	CreatedAt time.Time
}

// Store is an append-mostly exchange log backed by SQLite. All public
// methods are safe for concurrent use (SQLite serializes writes).
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the history database at the given path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL,
		utterance  TEXT NOT NULL,
		response   TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_user ON exchanges (user_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one exchange.
func (s *Store) Record(ctx context.Context, userID int64, utterance, response string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (user_id, utterance, response, created_at)
		 VALUES (?, ?, ?, ?)`,
		userID, utterance, response, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// Recent returns the newest limit exchanges for a user, newest first.
func (s *Store) Recent(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, utterance, response, created_at
		 FROM exchanges WHERE user_id = ?
		 ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Utterance, &e.Response, &created); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
