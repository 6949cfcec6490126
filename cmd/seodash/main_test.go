package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seodash/seodash/internal/config"
	"github.com/seodash/seodash/internal/handler"
	"github.com/seodash/seodash/internal/metrics"
	"github.com/seodash/seodash/internal/middleware"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"postgres://seo:s3cret@db:5432/seodash?sslmode=disable", "postgres://seo@db:5432/seodash?sslmode=disable"},
		{"redis://:s3cret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"http://localhost:8080", "http://localhost:8080"},
	}

	for _, tt := range tests {
		if got := redactURL(tt.raw); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://seo:s3cret@db:5432/seodash"
	err := errors.New("failed to connect to " + dsn + ": password=hunter2 rejected")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") || strings.Contains(got, "hunter2") {
		t.Errorf("secrets leaked: %s", got)
	}
	if !strings.Contains(got, "password=redacted") {
		t.Errorf("expected password marker, got %s", got)
	}

	if sanitizeError(nil) != "" {
		t.Error("expected empty string for nil error")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		AppEnv:             "development",
		CORSAllowedOrigins: "https://app.example.com",
		MaxRequestBodySize: 1 << 20,
	}
	return setupRouter(
		handler.New(),
		handler.NewHealthHandler(),
		handler.NewMetricsHandler(metrics.NewInMemory()),
		handler.NewWebsiteHandler(nil, logger),
		handler.NewDashboardHandler(nil, nil, nil, logger),
		cfg,
		logger,
	)
}

func TestSetupRouter_APIInfo(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["message"] != "SEODash API" || body["version"] != handler.Version {
		t.Errorf("unexpected body: %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID")
	}
	if got := rec.Header().Get("Content-Security-Policy"); got != middleware.APIContentSecurityPolicy {
		t.Errorf("Content-Security-Policy = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestSetupRouter_Fallbacks(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/nope", http.StatusNotFound},
		{http.MethodDelete, "/api", http.StatusMethodNotAllowed},
		{http.MethodGet, "/healthz", http.StatusOK},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.status, rec.Code)
		}
	}
}
