// Package sqlite implements the repository interfaces using SQLite as the
// document store.
//
// ONE TABLE PER COLLECTION:
// The app has three logical collections: user profiles (keyed by the
// identity provider's user id), picks (generated keys), and follow
// memberships (keyed by "<userID>_<pickID>"). Each becomes one table.
// Columns that may be absent in a document (the onboarding preferences) are
// nullable, so "never written" and "written as empty" stay distinguishable.
//
// SERVER-ASSIGNED TIMESTAMPS:
// Every timestamp is taken from DB.now at write time, never from the caller.
// Tests swap the clock with WithClock to get deterministic values.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, and
// ":memory:" databases make repository tests fast and isolated.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The repositories are views over it
// (Profiles, Picks, Follows) that share the pool and the clock; separate
// view types keep GetByID and Create unambiguous per collection.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Option configures a DB at construction time.
type Option func(*DB)

// WithClock replaces the store clock. The returned times are stored in UTC.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/aurabetz.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// IN-MEMORY POOLS:
// Every new connection to ":memory:" gets its own empty database. The picks
// listing reads in parallel, so the pool would happily open a second
// connection and see no tables. We pin in-memory pools to one connection.
//
// FILE POOLS:
// Pragmas are per connection, and database/sql opens connections whenever it
// likes. They go in the DSN so the driver runs them on every connection it
// opens, not only on the first one.
func New(dbPath string, opts ...Option) (*DB, error) {
	memory := dbPath == ":memory:"
	dsn := dbPath
	if !memory {
		dsn = withPragmas(dbPath)
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// filePragmas run on every new file connection, in order. The busy timeout
// comes first so that switching to WAL already waits for the lock.
//
//   - busy_timeout: a writer waits up to 5s for the lock instead of failing
//     with SQLITE_BUSY
//   - journal_mode: WAL lets readers run while a write is in progress
var filePragmas = []string{"busy_timeout(5000)", "journal_mode(WAL)"}

// withPragmas appends filePragmas to dbPath as modernc _pragma parameters.
func withPragmas(dbPath string) string {
	q := url.Values{}
	for _, p := range filePragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + q.Encode()
}

// timestamp reads the store clock once, in UTC.
func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}

// migrate creates all tables. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id               TEXT PRIMARY KEY,
			email            TEXT NOT NULL DEFAULT '',
			name             TEXT NOT NULL DEFAULT '',
			photo_url        TEXT NOT NULL DEFAULT '',
			created_at       DATETIME NOT NULL,
			last_signed_in   DATETIME NOT NULL,
			preferred_sports TEXT,
			wants_all_picks  INTEGER,
			updated_at       DATETIME
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// updated_at is nullable: picks written by older publishers may lack it,
	// and decode fills it in.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS picks (
			id         TEXT PRIMARY KEY,
			sport      TEXT NOT NULL,
			matchup    TEXT NOT NULL,
			pick       TEXT NOT NULL,
			odds       TEXT NOT NULL DEFAULT '',
			confidence INTEGER NOT NULL DEFAULT 0 CHECK (confidence BETWEEN 0 AND 100),
			analysis   TEXT NOT NULL DEFAULT '',
			created_at DATETIME,
			updated_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_picks_created_at ON picks(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating picks table: %w", err)
	}

	// The primary key is the deterministic "<userID>_<pickID>" id, which is
	// what makes a membership unique per (user, pick).
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS pick_followers (
			id          TEXT PRIMARY KEY,
			pick_id     TEXT NOT NULL,
			user_id     TEXT NOT NULL,
			followed_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pick_followers_pick_id ON pick_followers(pick_id);
	`)
	if err != nil {
		return fmt.Errorf("creating pick_followers table: %w", err)
	}

	return nil
}
