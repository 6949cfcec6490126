package audit

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seodash/seodash/internal/model"
)

const (
	// MaxAuditDuration caps a whole audit. It stays below the server write
	// timeout and the dashboard's API client timeout.
	MaxAuditDuration = 75 * time.Second
	// PageCheckTimeout caps the on-page fetch, which runs alongside Lighthouse.
	PageCheckTimeout = 15 * time.Second
)

// Auditor runs a remote Lighthouse audit.
type Auditor interface {
	Run(ctx context.Context, pageURL string) (*model.AuditScores, error)
}

// Checker runs on-page checks.
type Checker interface {
	Check(ctx context.Context, pageURL string) ([]string, error)
}

// Runner combines the Lighthouse audit with on-page checks.
type Runner struct {
	auditor Auditor
	checker Checker
	logger  *slog.Logger

	budget       time.Duration
	checkTimeout time.Duration
}

// NewRunner creates a Runner. checker may be nil to skip on-page checks.
func NewRunner(auditor Auditor, checker Checker, logger *slog.Logger) *Runner {
	return &Runner{
		auditor: auditor,
		checker: checker,
		logger:  logger.With("component", "audit.runner"),

		budget:       MaxAuditDuration,
		checkTimeout: PageCheckTimeout,
	}
}

// Run audits a website URL within MaxAuditDuration. The Lighthouse audit
// must succeed; on-page check failures are logged and leave the result
// without on-page findings.
func (r *Runner) Run(ctx context.Context, siteURL string) (*model.AuditScores, error) {
	target := NormalizeURL(siteURL)

	ctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	var scores *model.AuditScores
	g.Go(func() error {
		var err error
		scores, err = r.auditor.Run(gctx, target)
		return err
	})

	var onPage []string
	if r.checker != nil {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(gctx, r.checkTimeout)
			defer cancel()
			failed, err := r.checker.Check(checkCtx, target)
			if err != nil {
				r.logger.Warn("on-page check failed", "url", target, "error", err)
				return nil
			}
			onPage = failed
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores.FailedAudits = append(scores.FailedAudits, onPage...)
	return scores, nil
}

// NormalizeURL adds an https scheme to bare hosts such as "acme.com".
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}
