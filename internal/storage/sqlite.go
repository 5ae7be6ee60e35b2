// Package storage provides WorkflowStore implementations: a SQLite-backed
// store for durable workflows and an in-memory store for tests and
// single-run CLI use.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fluxwell/treasury-flow/internal/common"
	"github.com/fluxwell/treasury-flow/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore persists each workflow aggregate as one JSON document row.
// The aggregate is always read and written whole, which matches the
// engine's single-writer-per-workflow model; there is no cross-workflow
// query surface beyond the id lookup.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSQLiteStore opens (or creates) the workflow database at dbPath and
// runs migrations. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		locks:  make(map[string]*sync.Mutex),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS workflows (
			id         TEXT PRIMARY KEY,
			stage      TEXT NOT NULL,
			state      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_workflows_stage ON workflows(stage);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Get returns the stored aggregate, or common.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.WorkflowState, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM workflows WHERE id = ?", id,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
	}

	var state model.WorkflowState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}
	return &state, nil
}

// Put stores or replaces the aggregate.
func (s *SQLiteStore) Put(ctx context.Context, state *model.WorkflowState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("workflow state must have an id")
	}
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", state.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, stage, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			stage      = excluded.stage,
			state      = excluded.state,
			updated_at = datetime('now')`,
		state.ID, string(state.Stage), string(blob), state.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", state.ID, err)
	}
	return nil
}

// Lock acquires the per-workflow mutex. The mutexes are process-local;
// durable storage does not change the single-process ownership model.
func (s *SQLiteStore) Lock(id string) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
