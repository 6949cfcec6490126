package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/seodash/seodash/internal/model"
)

// Common errors for website repository operations.
var (
	ErrWebsiteNotFound = errors.New("website not found")
	ErrWebsiteExists   = errors.New("website already exists")
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const websiteColumns = `id, url, name, created_at, last_audit, is_verified`

// ListWebsites returns every registered website in insertion order.
func (r *Repository) ListWebsites(ctx context.Context) ([]*model.Website, error) {
	query := `SELECT ` + websiteColumns + ` FROM websites ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list websites: %w", err)
	}
	defer rows.Close()

	websites := make([]*model.Website, 0)
	for rows.Next() {
		website, err := scanWebsite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan website: %w", err)
		}
		websites = append(websites, website)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating websites: %w", err)
	}

	return websites, nil
}

// GetWebsite retrieves a website by its ID.
func (r *Repository) GetWebsite(ctx context.Context, id int64) (*model.Website, error) {
	query := `SELECT ` + websiteColumns + ` FROM websites WHERE id = $1`

	website, err := scanWebsite(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWebsiteNotFound
		}
		return nil, fmt.Errorf("failed to get website: %w", err)
	}

	return website, nil
}

// CreateWebsite inserts a website and fills in its generated ID and creation time.
func (r *Repository) CreateWebsite(ctx context.Context, website *model.Website) error {
	query := `
		INSERT INTO websites (url, name, is_verified)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query, website.URL, website.Name, website.IsVerified).
		Scan(&website.ID, &createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrWebsiteExists
		}
		return fmt.Errorf("failed to create website: %w", err)
	}

	website.CreatedAt = model.NewTimestamp(createdAt)
	return nil
}

// DeleteWebsite removes a website together with its metrics and audit results.
func (r *Repository) DeleteWebsite(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM seo_metrics WHERE website_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete metrics: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM audit_results WHERE website_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete audit results: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM websites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete website: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWebsiteNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// MarkAudited records the completion time of the latest audit.
func (r *Repository) MarkAudited(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE websites SET last_audit = $2 WHERE id = $1`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to update last audit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWebsiteNotFound
	}
	return nil
}

// scanWebsite scans a single row into a Website model.
func scanWebsite(row pgx.Row) (*model.Website, error) {
	var (
		website   model.Website
		createdAt time.Time
		lastAudit *time.Time
	)
	err := row.Scan(
		&website.ID,
		&website.URL,
		&website.Name,
		&createdAt,
		&lastAudit,
		&website.IsVerified,
	)
	if err != nil {
		return nil, err
	}
	website.CreatedAt = model.NewTimestamp(createdAt)
	website.LastAudit = model.TimestampPtr(lastAudit)
	return &website, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
