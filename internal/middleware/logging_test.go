package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func serveLogged(logger *slog.Logger, status int, req *http.Request, quietPaths ...string) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	RequestID(Logger(logger, quietPaths...)(handler)).ServeHTTP(httptest.NewRecorder(), req)
}

// TestLogging_QueryNotLogged ensures query strings, which may carry keys, stay out of logs.
func TestLogging_QueryNotLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	req := httptest.NewRequest("GET", "/api/websites/1/metrics?days=30&key=secret-key-123", nil)
	serveLogged(newTestLogger(&buf), http.StatusOK, req)

	logOutput := buf.String()
	if strings.Contains(logOutput, "secret-key-123") {
		t.Error("Log output contains the query string")
	}
	if !strings.Contains(logOutput, `"path":"/api/websites/1/metrics"`) {
		t.Errorf("Expected path without query, got %s", logOutput)
	}
}

// TestLogging_BasicFields verifies that expected non-sensitive fields are logged.
func TestLogging_BasicFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	req := httptest.NewRequest("POST", "/api/websites", nil)
	req.Header.Set("User-Agent", "TestBrowser/2.0")
	req.Header.Set(RequestIDHeader, "req-42")
	serveLogged(newTestLogger(&buf), http.StatusCreated, req)

	logOutput := buf.String()

	expectedFields := []string{
		`"method":"POST"`,
		`"path":"/api/websites"`,
		`"status_code":201`,
		`"user_agent":"TestBrowser/2.0"`,
		`"request_id":"req-42"`,
	}

	for _, field := range expectedFields {
		if !strings.Contains(logOutput, field) {
			t.Errorf("Expected log field %s not found in output", field)
		}
	}

	if strings.Contains(logOutput, `"htmx"`) {
		t.Error("Plain requests must not be flagged as htmx")
	}
}

func TestLogging_HTMXFlag(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	req := httptest.NewRequest("POST", "/dashboard/audit", nil)
	req.Header.Set("HX-Request", "true")
	serveLogged(newTestLogger(&buf), http.StatusOK, req)

	if !strings.Contains(buf.String(), `"htmx":true`) {
		t.Errorf("Expected htmx flag, got %s", buf.String())
	}
}

// TestLogging_Level verifies levels by status and quiet path.
func TestLogging_Level(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		statusCode int
		wantLevel  string
	}{
		{"success", "/api/websites", http.StatusOK, "INFO"},
		{"created", "/api/websites", http.StatusCreated, "INFO"},
		{"bad request", "/api/websites", http.StatusBadRequest, "WARN"},
		{"rate limited", "/api/websites/1/audit", http.StatusTooManyRequests, "WARN"},
		{"not found", "/api/websites/9", http.StatusNotFound, "WARN"},
		{"internal error", "/api/websites/1/audit", http.StatusInternalServerError, "ERROR"},
		{"quiet poll", "/dashboard/notifications", http.StatusOK, "DEBUG"},
		{"quiet path failing", "/dashboard/notifications", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			req := httptest.NewRequest("GET", tt.path, nil)
			serveLogged(newTestLogger(&buf), tt.statusCode, req, "/dashboard/notifications", "/healthz")

			logOutput := buf.String()
			if !strings.Contains(logOutput, `"level":"`+tt.wantLevel+`"`) {
				t.Errorf("Expected log level %s for status %d, got output: %s", tt.wantLevel, tt.statusCode, logOutput)
			}
		})
	}
}

// TestResponseWriter_CapturesStatus verifies the response writer correctly captures status codes.
func TestResponseWriter_CapturesStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusOK, http.StatusCreated, http.StatusNoContent, http.StatusBadRequest, http.StatusInternalServerError} {
		rec := httptest.NewRecorder()
		wrapped := wrapResponseWriter(rec)

		wrapped.WriteHeader(code)

		if wrapped.status != code {
			t.Errorf("status = %d, want %d", wrapped.status, code)
		}
	}
}

// TestResponseWriter_DefaultStatus verifies default status is 200 OK.
func TestResponseWriter_DefaultStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapped := wrapResponseWriter(rec)

	_, _ = wrapped.Write([]byte("hello"))

	if wrapped.status != http.StatusOK {
		t.Errorf("default status = %d, want %d", wrapped.status, http.StatusOK)
	}
}

// TestResponseWriter_DoubleWriteHeader ensures only first WriteHeader takes effect.
func TestResponseWriter_DoubleWriteHeader(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapped := wrapResponseWriter(rec)

	wrapped.WriteHeader(http.StatusCreated)
	wrapped.WriteHeader(http.StatusInternalServerError)

	if wrapped.status != http.StatusCreated {
		t.Errorf("status after double write = %d, want %d", wrapped.status, http.StatusCreated)
	}
}
