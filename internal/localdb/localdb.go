// Package localdb opens the SQLite database that the monitor process and the
// app process share. The file lives in the app-group container, so both
// processes see the same path; SQLite's own locking (WAL + busy timeout) is
// the only cross-process coordination in play, which is enough because the
// monitor only writes and the app only consumes.
package localdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const fileName = "focuspact.db"

// Open opens (creating if necessary) the shared database under dataDir and
// applies the schema. WAL mode and a 5-second busy timeout keep concurrent
// monitor/app access safe.
func Open(dataDir string) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	path := filepath.Join(dataDir, fileName)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func initSchema(db *sql.DB) error {
	queries := []string{
		// Single-slot outbox: one row per slot name, overwritten in place.
		`CREATE TABLE IF NOT EXISTS outbox (
			slot TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			streak_reset_at INTEGER,
			written_at INTEGER NOT NULL
		)`,

		// Local cache of the trainee's durable settings document.
		`CREATE TABLE IF NOT EXISTS settings_cache (
			uid TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		// Currently shielded app set; empty table means no shield.
		`CREATE TABLE IF NOT EXISTS shield (
			app TEXT PRIMARY KEY
		)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("init local schema: %w", err)
		}
	}
	return nil
}
