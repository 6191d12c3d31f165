// Package postgres provides a Postgres-backed mission archive that mirrors
// the in-memory semantics, persisting the working set as JSON payloads after
// every mutation.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"oceancurate/internal/infra/persistence/memory"
	"oceancurate/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion.
var _ domain.MissionStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/oceancurate?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists missions to Postgres while serving reads from the
// in-memory implementation hydrated at startup.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the missions table exists, and hydrates the
// in-memory working set from any existing rows.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureMissionsTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

// Put stores the aggregate in memory, then snapshots to Postgres.
func (s *Store) Put(ctx context.Context, mission domain.Mission) error {
	if err := s.Store.Put(ctx, mission); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Delete removes the aggregate in memory, then snapshots to Postgres.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	existed, err := s.Store.Delete(ctx, key)
	if err != nil || !existed {
		return existed, err
	}
	return true, s.persist(ctx)
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func ensureMissionsTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS missions (
		key TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure missions table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, payload FROM missions`)
	if err != nil {
		return nil, fmt.Errorf("select missions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := make(memory.Snapshot)
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		var mission domain.Mission
		if err := json.Unmarshal(payload, &mission); err != nil {
			return nil, fmt.Errorf("decode mission %s: %w", key, err)
		}
		snapshot[key] = mission
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missions: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE missions`); err != nil {
		return fmt.Errorf("truncate missions: %w", err)
	}
	for key, mission := range snapshot {
		data, err := json.Marshal(mission)
		if err != nil {
			return fmt.Errorf("encode mission %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO missions(key,payload) VALUES($1,$2)`, key, data); err != nil {
			return fmt.Errorf("insert mission %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
