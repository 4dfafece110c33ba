package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store keeps the journal in a single SQLite file. Used for local runs and tests.
type Store struct {
	db     *sql.DB
	dbPath string
	log    *zap.Logger
}

// Open creates the schema if it is missing.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::Open"))
	defer span.Close()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	store := &Store{db: db, dbPath: path, log: log}
	if err := store.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Opened sqlite store", zap.String("path", path))
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.dbPath
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	nickname TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trip (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	public INTEGER NOT NULL DEFAULT 0,
	started_at INTEGER NOT NULL DEFAULT 0,
	ended_at INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trip_owner ON trip(owner_id, started_at);

CREATE TABLE IF NOT EXISTS catch (
	id TEXT PRIMARY KEY,
	trip_id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	species TEXT NOT NULL,
	length_cm REAL NOT NULL DEFAULT 0,
	weight_g INTEGER NOT NULL DEFAULT 0,
	gear_id TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	released INTEGER NOT NULL DEFAULT 0,
	caught_at INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_catch_trip ON catch(trip_id, caught_at);

CREATE TABLE IF NOT EXISTS gear (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	brand TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '',
	weight_g INTEGER NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_gear_owner ON gear(owner_id, kind);

CREATE TABLE IF NOT EXISTS short_link (
	code TEXT PRIMARY KEY,
	target TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	hits INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS species (
	name TEXT PRIMARY KEY,
	family TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	at INTEGER NOT NULL,
	actor_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_at ON audit_log(at);
`

func (s *Store) Init(ctx context.Context) error {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::Init"))
	defer span.Close()
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows to repository.ErrNotFound for single-row lookups.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
