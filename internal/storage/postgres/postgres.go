// Package postgres persists encounter snapshots and outcomes in PostgreSQL
// using pgx v5, and manages the schema they live in.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/brave/internal/config"
)

// RequiredSchemaVersion is the migration the snapshot repository is written
// against: 000002_create_combatant_snapshots.
const RequiredSchemaVersion uint = 2

// ErrSchemaNotReady is returned when the database has not been migrated to
// RequiredSchemaVersion, or a previous migration left it dirty.
var ErrSchemaNotReady = errors.New("postgres: snapshot schema not ready")

// Pool owns the connection pool shared by the encounter repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database described by cfg and pings it.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Ready verifies, within timeout, that the database answers and that its
// schema is at RequiredSchemaVersion or later and not dirty. Batches that
// save snapshots call it before the first encounter starts.
//
// Postcondition: Returns nil, an error wrapping ErrSchemaNotReady, or a
// connection error.
func (p *Pool) Ready(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	version, dirty, err := p.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case dirty:
		return fmt.Errorf("%w: version %d is dirty", ErrSchemaNotReady, version)
	case version < RequiredSchemaVersion:
		return fmt.Errorf("%w: at version %d, need %d", ErrSchemaNotReady, version, RequiredSchemaVersion)
	}
	return nil
}

// SchemaVersion reads the version recorded by the migration runner. A
// database that was never migrated reports version 0.
func (p *Pool) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx,
		`SELECT to_regclass('schema_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return 0, false, fmt.Errorf("checking migration table: %w", err)
	}
	if !exists {
		return 0, false, nil
	}
	var (
		version int64
		dirty   bool
	)
	err := p.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("reading schema version: %w", err)
	}
	return uint(version), dirty, nil
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for the repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
