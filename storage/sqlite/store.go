// Package sqlite persists the completed ledger in an embedded SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// LedgerStore provides SQLite-backed persistence for achieved unlock ids.
type LedgerStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*LedgerStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db %s: %w", path, err)
	}
	// One writer; the engine is single-threaded anyway.
	db.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db)
}

// New returns a LedgerStore bound to an existing, migrated database handle.
func New(db *sql.DB) (*LedgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &LedgerStore{db: db}, nil
}

// Close closes the underlying database.
func (s *LedgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append records ids, ignoring ones already stored. Returns how many were new.
func (s *LedgerStore) Append(ids ...string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("append: store is nil")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("append: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var next int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM achieved_unlocks;`).Scan(&next); err != nil {
		return 0, fmt.Errorf("append: read seq: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	inserted := 0
	for _, id := range ids {
		if id == "" {
			return 0, fmt.Errorf("append: empty unlock id")
		}
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO achieved_unlocks (unlock_id, seq, achieved_at) VALUES (?, ?, ?)`,
			id, next+1, now,
		)
		if err != nil {
			return 0, fmt.Errorf("append: insert %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("append: rows affected: %w", err)
		}
		if n > 0 {
			next++
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append: commit: %w", err)
	}
	return inserted, nil
}

// Load returns every stored id in ascending order.
func (s *LedgerStore) Load() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("load: store is nil")
	}
	rows, err := s.db.Query(`SELECT unlock_id FROM achieved_unlocks ORDER BY unlock_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load: query: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("load: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load: rows: %w", err)
	}
	return ids, nil
}

// Reset deletes every stored id.
func (s *LedgerStore) Reset() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("reset: store is nil")
	}
	if _, err := s.db.Exec(`DELETE FROM achieved_unlocks`); err != nil {
		return fmt.Errorf("reset: delete: %w", err)
	}
	return nil
}
