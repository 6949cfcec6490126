package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/seodash/seodash/internal/model"
)

// ListMetrics returns the samples of a website with start <= date <= end, oldest first.
func (r *Repository) ListMetrics(ctx context.Context, websiteID int64, start, end model.Date) ([]model.MetricSample, error) {
	query := `
		SELECT date, clicks, impressions, ctr, position
		FROM seo_metrics
		WHERE website_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, websiteID, start.Time, end.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	defer rows.Close()

	samples := make([]model.MetricSample, 0)
	for rows.Next() {
		var (
			sample model.MetricSample
			date   time.Time
		)
		if err := rows.Scan(&date, &sample.Clicks, &sample.Impressions, &sample.CTR, &sample.Position); err != nil {
			return nil, fmt.Errorf("failed to scan metric sample: %w", err)
		}
		sample.Date = model.NewDate(date)
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}

	return samples, nil
}

// UpsertMetrics stores daily samples, replacing any existing row for the same day.
func (r *Repository) UpsertMetrics(ctx context.Context, websiteID int64, samples []model.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	query := `
		INSERT INTO seo_metrics (website_id, date, clicks, impressions, ctr, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (website_id, date) DO UPDATE SET
			clicks = EXCLUDED.clicks,
			impressions = EXCLUDED.impressions,
			ctr = EXCLUDED.ctr,
			position = EXCLUDED.position
	`

	batch := &pgx.Batch{}
	for _, sample := range samples {
		batch.Queue(query,
			websiteID,
			sample.Date.Time,
			sample.Clicks,
			sample.Impressions,
			model.ComputeCTR(sample.Clicks, sample.Impressions),
			sample.Position,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range samples {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch upsert metric %d (%s): %w", i, samples[i].Date, err)
		}
	}

	return nil
}
