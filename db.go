// apps/go-server/db.go
//
// Database helpers for the checkers Go server.
// Responsibilities:
//   - Opening SQLite database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the embedded migrations (assets/sql/*.sql, recorded in _migrations).
//   - Choosing the session store: SQLite when DB_PATH is set, memory otherwise.

package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/checkers/apps/go-server/assets"
	"github.com/robalobadob/checkers/apps/go-server/internal/store"
)

/**
 * openDB opens (and creates if missing) a SQLite database file.
 *
 * - Ensures parent directory exists for relative DSNs (e.g. ./data/checkers.db).
 * - Configures busy timeout and WAL journaling mode.
 * - Enforces foreign keys.
 */
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// openStore returns the session store for dsn; an empty dsn keeps games in memory.
// The returned close func is never nil.
func openStore(dsn string) (store.Store, func() error, error) {
	if dsn == "" {
		log.Info().Msg("DB_PATH unset; using in-memory session store")
		return store.NewMemoryStore(), func() error { return nil }, nil
	}
	db, err := openDB(dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(db, assets.Migrations, "sql"); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("db", dsn).Msg("using sqlite session store")
	return store.NewSQLiteStore(db), db.Close, nil
}
