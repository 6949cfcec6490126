// Package repository provides database access layer.
package repository

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SchemaUpFile and SchemaDownFile name the embedded schema migrations.
const (
	SchemaUpFile   = "migrations/000001_init.up.sql"
	SchemaDownFile = "migrations/000001_init.down.sql"
)

// Repository provides database access methods.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new Repository with a connection pool.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// EnsureSchema creates the tables if they do not exist yet.
// The statements are idempotent and safe to run on every start.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	sql, err := SchemaSQL(SchemaUpFile)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SchemaSQL returns the contents of an embedded migration file.
func SchemaSQL(name string) (string, error) {
	data, err := migrations.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read migration %s: %w", name, err)
	}
	return string(data), nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
