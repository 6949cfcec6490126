// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/seodash/seodash/internal/cache"
	"github.com/seodash/seodash/internal/metrics"
	"github.com/seodash/seodash/internal/model"
	"github.com/seodash/seodash/internal/repository"
)

// Service errors.
var (
	ErrNameURLRequired  = errors.New("name and url are required")
	ErrWebsiteExists    = errors.New("website already exists")
	ErrWebsiteNotFound  = errors.New("website not found")
	ErrInvalidSample    = errors.New("invalid metric sample")
	ErrAuditRateLimited = errors.New("audit rate limit exceeded")
)

const (
	// DefaultMetricsDays is the window used when none is requested.
	DefaultMetricsDays = 30
	// MaxMetricsDays caps the requested window.
	MaxMetricsDays = 365
)

// RateLimitError is returned when a website has no audit tokens left.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrAuditRateLimited, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrAuditRateLimited
}

// WebsiteStore is the persistence the service needs.
type WebsiteStore interface {
	ListWebsites(ctx context.Context) ([]*model.Website, error)
	GetWebsite(ctx context.Context, id int64) (*model.Website, error)
	CreateWebsite(ctx context.Context, website *model.Website) error
	DeleteWebsite(ctx context.Context, id int64) error
	MarkAudited(ctx context.Context, id int64, at time.Time) error
	ListMetrics(ctx context.Context, websiteID int64, start, end model.Date) ([]model.MetricSample, error)
	UpsertMetrics(ctx context.Context, websiteID int64, samples []model.MetricSample) error
}

// MetricsCache caches metrics windows and enforces the audit rate limit.
type MetricsCache interface {
	GetMetrics(ctx context.Context, websiteID int64, days int, day model.Date) ([]model.MetricSample, error)
	SetMetrics(ctx context.Context, websiteID int64, days int, day model.Date, samples []model.MetricSample, ttl time.Duration) error
	InvalidateMetrics(ctx context.Context, websiteID int64) error
	CheckAuditRateLimit(ctx context.Context, websiteID int64, perHour int) (*cache.RateLimitResult, error)
}

// AuditRunner audits a website URL.
type AuditRunner interface {
	Run(ctx context.Context, siteURL string) (*model.AuditScores, error)
}

// AuditStore persists audit results.
type AuditStore interface {
	Insert(ctx context.Context, result *model.AuditResult) error
	ListByWebsite(ctx context.Context, websiteID int64, limit int) ([]*model.AuditResult, error)
}

// Options tunes a WebsiteService.
type Options struct {
	MetricsCacheTTL  time.Duration
	DefaultDays      int
	AuditRatePerHour int
	Now              func() time.Time
}

// WebsiteService handles website, metrics and audit business logic.
type WebsiteService struct {
	store   WebsiteStore
	cache   MetricsCache
	runner  AuditRunner
	audits  AuditStore
	metrics metrics.Recorder
	logger  *slog.Logger
	policy  *bluemonday.Policy
	opts    Options
}

// NewWebsiteService creates a new WebsiteService.
func NewWebsiteService(
	store WebsiteStore,
	metricsCache MetricsCache,
	runner AuditRunner,
	audits AuditStore,
	recorder metrics.Recorder,
	logger *slog.Logger,
	opts Options,
) *WebsiteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = DefaultMetricsDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &WebsiteService{
		store:   store,
		cache:   metricsCache,
		runner:  runner,
		audits:  audits,
		metrics: recorder,
		logger:  logger.With("component", "service.website"),
		policy:  bluemonday.StrictPolicy(),
		opts:    opts,
	}
}

// ListWebsites returns every registered website.
func (s *WebsiteService) ListWebsites(ctx context.Context) ([]*model.Website, error) {
	return s.store.ListWebsites(ctx)
}

// CreateWebsite registers a website. Only presence of name and URL is checked.
func (s *WebsiteService) CreateWebsite(ctx context.Context, name, siteURL string) (*model.Website, error) {
	name = s.cleanName(name)
	siteURL = strings.TrimSpace(siteURL)
	if name == "" || siteURL == "" {
		return nil, ErrNameURLRequired
	}

	website := &model.Website{Name: name, URL: siteURL}
	if err := s.store.CreateWebsite(ctx, website); err != nil {
		if errors.Is(err, repository.ErrWebsiteExists) {
			return nil, ErrWebsiteExists
		}
		return nil, fmt.Errorf("failed to create website: %w", err)
	}

	s.metrics.IncWebsiteCreated()
	return website, nil
}

// cleanName strips markup; text entities are kept literal since rendering escapes.
func (s *WebsiteService) cleanName(name string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(name)))
}

// DeleteWebsite removes a website with its metrics and audits.
func (s *WebsiteService) DeleteWebsite(ctx context.Context, id int64) error {
	if err := s.store.DeleteWebsite(ctx, id); err != nil {
		if errors.Is(err, repository.ErrWebsiteNotFound) {
			return ErrWebsiteNotFound
		}
		return fmt.Errorf("failed to delete website: %w", err)
	}

	if err := s.cache.InvalidateMetrics(ctx, id); err != nil {
		s.logger.Warn("metrics cache invalidation failed", "website_id", id, "error", err)
	}

	s.metrics.IncWebsiteDeleted()
	return nil
}

// ParseDays interprets a days query value. Missing, unparsable or
// non-positive values yield def; values above MaxMetricsDays are capped.
func ParseDays(raw string, def int) int {
	if def <= 0 {
		def = DefaultMetricsDays
	}
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days <= 0 {
		return def
	}
	if days > MaxMetricsDays {
		return MaxMetricsDays
	}
	return days
}

// DefaultDays returns the configured default window.
func (s *WebsiteService) DefaultDays() int {
	return s.opts.DefaultDays
}

// GetMetrics returns the samples of the trailing window [today-days, today].
func (s *WebsiteService) GetMetrics(ctx context.Context, websiteID int64, days int) ([]model.MetricSample, error) {
	if days <= 0 {
		days = s.opts.DefaultDays
	}
	if days > MaxMetricsDays {
		days = MaxMetricsDays
	}

	today := model.NewDate(s.opts.Now())

	cached, err := s.cache.GetMetrics(ctx, websiteID, days, today)
	if err == nil {
		s.metrics.IncMetricsCacheHit()
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("metrics cache read failed", "website_id", websiteID, "error", err)
	}
	s.metrics.IncMetricsCacheMiss()

	if _, err := s.getWebsite(ctx, websiteID); err != nil {
		return nil, err
	}

	start := model.NewDate(today.AddDate(0, 0, -days))
	samples, err := s.store.ListMetrics(ctx, websiteID, start, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}

	if err := s.cache.SetMetrics(ctx, websiteID, days, today, samples, s.opts.MetricsCacheTTL); err != nil {
		s.logger.Warn("metrics cache write failed", "website_id", websiteID, "error", err)
	}

	return samples, nil
}

// IngestMetrics upserts daily samples and drops the website's cached windows.
func (s *WebsiteService) IngestMetrics(ctx context.Context, websiteID int64, samples []model.MetricSample) error {
	for i, sample := range samples {
		if sample.Date.IsZero() || sample.Clicks < 0 || sample.Impressions < 0 || sample.Position < 0 {
			return fmt.Errorf("%w at index %d", ErrInvalidSample, i)
		}
	}

	if _, err := s.getWebsite(ctx, websiteID); err != nil {
		return err
	}

	if err := s.store.UpsertMetrics(ctx, websiteID, samples); err != nil {
		return fmt.Errorf("failed to store metrics: %w", err)
	}

	if err := s.cache.InvalidateMetrics(ctx, websiteID); err != nil {
		s.logger.Warn("metrics cache invalidation failed", "website_id", websiteID, "error", err)
	}

	s.metrics.AddMetricsSamplesIngested(len(samples))
	return nil
}

// RunAudit audits a website, stores the result and stamps last_audit.
// Runner errors are returned as-is so their message reaches the caller.
func (s *WebsiteService) RunAudit(ctx context.Context, websiteID int64) (*model.AuditResult, error) {
	website, err := s.getWebsite(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	// An unavailable limiter lets the audit through.
	limit, err := s.cache.CheckAuditRateLimit(ctx, websiteID, s.opts.AuditRatePerHour)
	if err != nil {
		s.logger.Warn("audit rate limit check failed", "website_id", websiteID, "error", err)
	} else if !limit.Allowed {
		s.metrics.IncAuditRun(metrics.AuditStatusLimited)
		return nil, &RateLimitError{RetryAfter: limit.RetryAfter}
	}

	started := time.Now()
	scores, err := s.runner.Run(ctx, website.URL)
	s.metrics.ObserveAuditDuration(time.Since(started))
	if err != nil {
		s.metrics.IncAuditRun(metrics.AuditStatusFailed)
		return nil, err
	}

	now := s.opts.Now().UTC()
	result := &model.AuditResult{
		ID:          ulid.Make().String(),
		WebsiteID:   websiteID,
		CreatedAt:   now,
		AuditScores: *scores,
	}

	if err := s.audits.Insert(ctx, result); err != nil {
		s.metrics.IncAuditRun(metrics.AuditStatusFailed)
		return nil, fmt.Errorf("failed to store audit: %w", err)
	}

	if err := s.store.MarkAudited(ctx, websiteID, now); err != nil {
		s.metrics.IncAuditRun(metrics.AuditStatusFailed)
		return nil, fmt.Errorf("failed to update website: %w", err)
	}

	s.metrics.IncAuditRun(metrics.AuditStatusSuccess)
	return result, nil
}

// ListAudits returns the newest audits of a website, at most limit of them.
func (s *WebsiteService) ListAudits(ctx context.Context, websiteID int64, limit int) ([]*model.AuditResult, error) {
	if _, err := s.getWebsite(ctx, websiteID); err != nil {
		return nil, err
	}
	results, err := s.audits.ListByWebsite(ctx, websiteID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	return results, nil
}

func (s *WebsiteService) getWebsite(ctx context.Context, id int64) (*model.Website, error) {
	website, err := s.store.GetWebsite(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrWebsiteNotFound) {
			return nil, ErrWebsiteNotFound
		}
		return nil, fmt.Errorf("failed to get website: %w", err)
	}
	return website, nil
}
