package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/seodash/seodash/internal/model"
	"github.com/seodash/seodash/internal/repository"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730730

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates every table using the embedded migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	downSQL, err := repository.SchemaSQL(repository.SchemaDownFile)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, downSQL); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := repository.SchemaSQL(repository.SchemaUpFile)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, upSQL); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// NewRepository connects to DATABASE_URL, takes the advisory lock and resets the schema.
// Everything is released through t.Cleanup.
func NewRepository(t testing.TB) (context.Context, *repository.Repository) {
	t.Helper()
	databaseURL := RequireEnv(t, "DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	repo, err := repository.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("lock database: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestWebsite creates a website model with a unique URL.
func NewTestWebsite(t testing.TB, name string) *model.Website {
	t.Helper()
	return &model.Website{
		Name: name,
		URL:  UniqueURL(name),
	}
}

// NewTestSamples creates one sample per day ending today, oldest first.
func NewTestSamples(days int) []model.MetricSample {
	today := model.NewDate(time.Now())
	samples := make([]model.MetricSample, 0, days)
	for i := days - 1; i >= 0; i-- {
		samples = append(samples, model.MetricSample{
			Date:        model.NewDate(today.AddDate(0, 0, -i)),
			Clicks:      int64(10 + i),
			Impressions: int64(100 + 10*i),
			Position:    5.5,
		})
	}
	return samples
}

// UniqueURL generates a unique website URL for tests.
func UniqueURL(prefix string) string {
	return fmt.Sprintf("https://%s-%d.example.com", prefix, time.Now().UnixNano())
}
