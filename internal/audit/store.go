package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/seodash/seodash/internal/model"
)

// Store persists audit results.
type Store struct {
	db *sql.DB
}

// NewStore creates a new audit result store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert stores an audit result.
func (s *Store) Insert(ctx context.Context, result *model.AuditResult) error {
	query := `
		INSERT INTO audit_results (
			id, website_id, performance_score, accessibility_score,
			best_practices_score, seo_score, speed_index,
			first_contentful_paint, largest_contentful_paint,
			failed_audits, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	failed := result.FailedAudits
	if failed == nil {
		failed = []string{}
	}

	_, err := s.db.ExecContext(ctx, query,
		result.ID,
		result.WebsiteID,
		result.PerformanceScore,
		result.AccessibilityScore,
		result.BestPracticesScore,
		result.SEOScore,
		result.SpeedIndex,
		result.FirstContentfulPaint,
		result.LargestContentfulPaint,
		pq.Array(failed),
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit result: %w", err)
	}
	return nil
}

// ListByWebsite returns the most recent audits of a website, newest first.
func (s *Store) ListByWebsite(ctx context.Context, websiteID int64, limit int) ([]*model.AuditResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, website_id,
			   COALESCE(performance_score, 0), COALESCE(accessibility_score, 0),
			   COALESCE(best_practices_score, 0), COALESCE(seo_score, 0),
			   COALESCE(speed_index, 0), COALESCE(first_contentful_paint, 0),
			   COALESCE(largest_contentful_paint, 0), failed_audits, created_at
		FROM audit_results
		WHERE website_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, websiteID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit results: %w", err)
	}
	defer rows.Close()

	results := make([]*model.AuditResult, 0)
	for rows.Next() {
		var (
			result model.AuditResult
			failed []string
		)
		if err := rows.Scan(
			&result.ID,
			&result.WebsiteID,
			&result.PerformanceScore,
			&result.AccessibilityScore,
			&result.BestPracticesScore,
			&result.SEOScore,
			&result.SpeedIndex,
			&result.FirstContentfulPaint,
			&result.LargestContentfulPaint,
			pq.Array(&failed),
			&result.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit result: %w", err)
		}
		result.FailedAudits = failed
		results = append(results, &result)
	}

	return results, rows.Err()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
