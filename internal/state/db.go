// Package state persists a ledger of discovered sources and rotating
// writer announcements, adapted from the teacher's internal/state/db.go
// (schema-versioned sqlite table, Open/retention-sweep shape) repurposed
// from an execution-history ledger to a discovery/rotation ledger —
// the same "what happened, queryable after the fact" operational need
// the teacher served for rule runs, now serving sources and output
// files (SPEC_FULL.md §4.5's /api/sources and /api/files surfaces).
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS sources (
	protocol    TEXT NOT NULL,
	relpath     TEXT NOT NULL,
	abspath     TEXT NOT NULL,
	rule_topic  TEXT NOT NULL,
	discovered_at INTEGER NOT NULL,
	PRIMARY KEY (protocol, relpath)
);

CREATE TABLE IF NOT EXISTS announcements (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	action        TEXT NOT NULL,
	read_relpath  TEXT NOT NULL,
	read_abspath  TEXT NOT NULL,
	write_relpath TEXT NOT NULL,
	write_abspath TEXT NOT NULL,
	at_unix       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_announcements_read ON announcements(read_relpath);
`

// DB is the discovery/rotation ledger.
type DB struct {
	db *sql.DB
}

// Open creates (if absent) and opens the sqlite ledger at path.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging state db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &DB{db: sqlDB}, nil
}

// RecordSource inserts a newly discovered (protocol, relpath) binding.
func (d *DB) RecordSource(ctx context.Context, protocol, relpath, abspath, ruleTopic string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sources (protocol, relpath, abspath, rule_topic, discovered_at)
		VALUES (?, ?, ?, ?, ?)`,
		protocol, relpath, abspath, ruleTopic, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("recording source: %w", err)
	}
	return nil
}

// RecordAnnouncement inserts one opened/closed announcement.
func (d *DB) RecordAnnouncement(ctx context.Context, action, readRelpath, readAbspath, writeRelpath, writeAbspath string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO announcements (action, read_relpath, read_abspath, write_relpath, write_abspath, at_unix)
		VALUES (?, ?, ?, ?, ?, ?)`,
		action, readRelpath, readAbspath, writeRelpath, writeAbspath, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("recording announcement: %w", err)
	}
	return nil
}

// SourceRecord is one row from the sources table.
type SourceRecord struct {
	Protocol     string
	RelPath      string
	AbsPath      string
	RuleTopic    string
	DiscoveredAt int64
}

// ListSources returns every discovered source (SPEC_FULL.md's
// /api/sources).
func (d *DB) ListSources(ctx context.Context) ([]SourceRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT protocol, relpath, abspath, rule_topic, discovered_at FROM sources
		ORDER BY discovered_at`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []SourceRecord
	for rows.Next() {
		var r SourceRecord
		if err := rows.Scan(&r.Protocol, &r.RelPath, &r.AbsPath, &r.RuleTopic, &r.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FileRecord is one row from the announcements table.
type FileRecord struct {
	Action       string
	ReadRelPath  string
	WriteRelPath string
	At           int64
}

// ListFiles returns the rotation history for a source (SPEC_FULL.md's
// /api/files).
func (d *DB) ListFiles(ctx context.Context, readRelpath string) ([]FileRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT action, read_relpath, write_relpath, at_unix FROM announcements
		WHERE read_relpath = ?
		ORDER BY at_unix`, readRelpath)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var r FileRecord
		if err := rows.Scan(&r.Action, &r.ReadRelPath, &r.WriteRelPath, &r.At); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}
