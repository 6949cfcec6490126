package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/seodash/seodash/internal/model"
)

func parseHTML(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestCheckDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page string
		want []string
	}{
		{
			name: "healthy page",
			page: `<html><head><title>Acme</title><meta name="description" content="Widgets"></head><body><h1>Acme</h1></body></html>`,
			want: nil,
		},
		{
			name: "empty page",
			page: `<html><head></head><body></body></html>`,
			want: []string{CheckMissingTitle, CheckMissingMetaDescription, CheckH1Count},
		},
		{
			name: "blank title and two headings",
			page: `<html><head><title>   </title><meta name="Description" content="x"></head><body><h1>a</h1><h1>b</h1></body></html>`,
			want: []string{CheckMissingTitle, CheckH1Count},
		},
		{
			name: "empty description",
			page: `<html><head><title>Acme</title><meta name="description" content=""></head><body><h1>Acme</h1></body></html>`,
			want: []string{CheckMissingMetaDescription},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CheckDocument(parseHTML(t, tt.page)))
		})
	}
}

func TestPageChecker_Check(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`<title>Acme</title><h1>Hi</h1>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewPageChecker(srv.Client())

	failed, err := c.Check(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, []string{CheckMissingMetaDescription}, failed)

	_, err = c.Check(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

type fakeAuditor struct {
	gotURL string
	scores *model.AuditScores
	err    error
}

func (f *fakeAuditor) Run(_ context.Context, pageURL string) (*model.AuditScores, error) {
	f.gotURL = pageURL
	return f.scores, f.err
}

type fakeChecker struct {
	failed []string
	err    error
}

func (f *fakeChecker) Check(context.Context, string) ([]string, error) {
	return f.failed, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("merges on-page findings", func(t *testing.T) {
		a := &fakeAuditor{scores: &model.AuditScores{SEOScore: 90, FailedAudits: []string{"image-alt"}}}
		r := NewRunner(a, &fakeChecker{failed: []string{CheckH1Count}}, discardLogger())

		scores, err := r.Run(context.Background(), "acme.com")
		require.NoError(t, err)
		assert.Equal(t, "https://acme.com", a.gotURL)
		assert.Equal(t, []string{"image-alt", CheckH1Count}, scores.FailedAudits)
	})

	t.Run("on-page failure is not fatal", func(t *testing.T) {
		a := &fakeAuditor{scores: &model.AuditScores{SEOScore: 90}}
		r := NewRunner(a, &fakeChecker{err: errors.New("timeout")}, discardLogger())

		scores, err := r.Run(context.Background(), "https://acme.com")
		require.NoError(t, err)
		assert.Equal(t, 90, scores.SEOScore)
		assert.Empty(t, scores.FailedAudits)
	})

	t.Run("lighthouse failure is fatal", func(t *testing.T) {
		a := &fakeAuditor{err: errors.New("PageSpeed API error: Invalid URL")}
		r := NewRunner(a, nil, discardLogger())

		_, err := r.Run(context.Background(), "https://acme.com")
		assert.EqualError(t, err, "PageSpeed API error: Invalid URL")
	})
}

type blockingChecker struct{}

func (blockingChecker) Check(ctx context.Context, _ string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type blockingAuditor struct{}

func (blockingAuditor) Run(ctx context.Context, _ string) (*model.AuditScores, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunner_Deadlines(t *testing.T) {
	t.Parallel()

	t.Run("slow page check is cut short", func(t *testing.T) {
		a := &fakeAuditor{scores: &model.AuditScores{SEOScore: 80}}
		r := NewRunner(a, blockingChecker{}, discardLogger())
		r.checkTimeout = 50 * time.Millisecond

		start := time.Now()
		scores, err := r.Run(context.Background(), "https://acme.com")
		require.NoError(t, err)
		assert.Equal(t, 80, scores.SEOScore)
		assert.Empty(t, scores.FailedAudits)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("whole audit is bounded", func(t *testing.T) {
		r := NewRunner(blockingAuditor{}, &fakeChecker{}, discardLogger())
		r.budget = 50 * time.Millisecond

		_, err := r.Run(context.Background(), "https://acme.com")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("budget stays below the client timeouts", func(t *testing.T) {
		assert.Less(t, MaxAuditDuration, 90*time.Second)
		assert.Less(t, PageCheckTimeout, MaxAuditDuration)
	})
}
