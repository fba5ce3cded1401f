package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Lookup indexes for relation filters
const currentSchemaVersion = 1

// Store provides the relational data searched by the engine.
// Uses SQLite with WAL mode for concurrent reads.
type Store struct {
	db *sql.DB
}

// Options tunes the connection pool.
type Options struct {
	// MaxOpenConns bounds concurrent connections. Zero means 4.
	MaxOpenConns int
}

// Open creates or opens the database at path with the default pool size.
// Schema and migrations are applied on every open, so reopening an existing
// file is safe.
//
// Every pooled connection runs with foreign keys on, NORMAL synchronous
// mode and a 5 second busy timeout. The file itself is switched to WAL so
// searches can read while fixtures are written.
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, Options{})
}

// OpenWithOptions is Open with an explicit pool configuration.
func OpenWithOptions(path string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxConns := opts.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes every pooled connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the pool. Search code should prefer Acquire.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Acquire takes a dedicated connection for one request. The caller must
// Close it on every exit path to return it to the pool.
func (s *Store) Acquire(ctx context.Context) (*sql.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// InUse reports how many connections are currently checked out.
func (s *Store) InUse() int {
	return s.db.Stats().InUse
}

// dsn carries the per-connection pragmas so every pooled connection gets
// them, not only the one applyPragmas happens to run on.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_foreign_keys=on&_synchronous=NORMAL"
}

// applyPragmas switches the database file to WAL. journal_mode is stored in
// the file, so one connection is enough; the rest live in the DSN.
func applyPragmas(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
		return fmt.Errorf("set journal_mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("journal_mode = %q, expected \"wal\"", mode)
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// migrations[i] upgrades a database from user_version i to i+1.
var migrations = []func(*sql.DB) error{
	migrateToV1,
}

// runMigrations applies every migration newer than the stored user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		if err := migrations[v](db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 adds the indexes behind relation subqueries and joined sorts.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_post_tags_tag ON post_tags(tag_id);
		CREATE INDEX IF NOT EXISTS idx_post_favorites_user ON post_favorites(user_id);
		CREATE INDEX IF NOT EXISTS idx_post_scores_user ON post_scores(user_id);
		CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);
		CREATE INDEX IF NOT EXISTS idx_comments_user ON comments(user_id);
		CREATE INDEX IF NOT EXISTS idx_tags_category ON tags(category_id);
		CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}
