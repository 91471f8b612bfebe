// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
)

// ErrDatabase wraps every failure of the underlying database.
var ErrDatabase = errors.New("history database error")

// Schema creates the journal table.
const Schema = `
CREATE TABLE IF NOT EXISTS calls (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	at          INTEGER NOT NULL,
	method      TEXT    NOT NULL,
	path        TEXT    NOT NULL,
	status      INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	error       TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_calls_at ON calls(at);
`

// Entry is one journaled call.
type Entry struct {
	ID       int64
	Time     time.Time
	Method   string
	Path     string
	Status   int // 0 when no reply was received
	Duration time.Duration
	Err      string
}

// Failed reports whether the call did not succeed.
func (e Entry) Failed() bool {
	return e.Err != "" || e.Status == 0 || e.Status >= 300
}

// Journal is the call history. It is safe for concurrent use.
type Journal struct {
	db   *sql.DB
	keep int
}

// Open opens or creates the journal at path. When keep > 0 only the newest
// keep rows survive each insert.
func Open(path string, keep int) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDatabase, path, err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrDatabase, pragma, err)
		}
	}

	j, err := NewWithDB(db, keep)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// NewWithDB wraps an open database, creating the schema if needed.
func NewWithDB(db *sql.DB, keep int) (*Journal, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("%w: create schema: %v", ErrDatabase, err)
	}
	return &Journal{db: db, keep: keep}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends an entry and applies the retention limit.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO calls (at, method, path, status, duration_ns, error) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Time.UnixNano(), e.Method, e.Path, e.Status, int64(e.Duration), e.Err)
	if err != nil {
		return fmt.Errorf("%w: insert: %v", ErrDatabase, err)
	}

	if j.keep > 0 {
		if _, err := j.Prune(ctx, j.keep); err != nil {
			return err
		}
	}
	return nil
}

// RecordCall implements api.Recorder.
func (j *Journal) RecordCall(ctx context.Context, c api.Call) error {
	return j.Record(ctx, Entry{
		Time:     c.Time,
		Method:   c.Method,
		Path:     c.Path,
		Status:   c.Status,
		Duration: c.Duration,
		Err:      c.Err,
	})
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, method, path, status, duration_ns, error FROM calls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			at, dur int64
		)
		if err := rows.Scan(&e.ID, &at, &e.Method, &e.Path, &e.Status, &dur, &e.Err); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrDatabase, err)
		}
		e.Time = time.Unix(0, at)
		e.Duration = time.Duration(dur)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return entries, nil
}

// Prune deletes all but the newest keep entries and returns how many went.
func (j *Journal) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := j.db.ExecContext(ctx,
		`DELETE FROM calls WHERE id NOT IN (SELECT id FROM calls ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("%w: prune: %v", ErrDatabase, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Clear deletes every entry and returns how many went.
func (j *Journal) Clear(ctx context.Context) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM calls`)
	if err != nil {
		return 0, fmt.Errorf("%w: clear: %v", ErrDatabase, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
