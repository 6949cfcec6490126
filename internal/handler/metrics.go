package handler

import (
	"fmt"
	"net/http"

	"github.com/seodash/seodash/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "seodash_websites_created_total %d\n", snap.WebsitesCreated)
	writeMetric(w, "seodash_websites_deleted_total %d\n", snap.WebsitesDeleted)

	writeMetric(w, "seodash_metrics_cache_hits_total %d\n", snap.MetricsCacheHits)
	writeMetric(w, "seodash_metrics_cache_misses_total %d\n", snap.MetricsCacheMisses)
	writeMetric(w, "seodash_metrics_samples_ingested_total %d\n", snap.MetricsSamplesIngested)

	writeMetric(w, "seodash_audits_total{status=\"success\"} %d\n", snap.AuditsSucceeded)
	writeMetric(w, "seodash_audits_total{status=\"failed\"} %d\n", snap.AuditsFailed)
	writeMetric(w, "seodash_audits_total{status=\"rate_limited\"} %d\n", snap.AuditsRateLimited)
	writeMetric(w, "seodash_audit_duration_seconds_count %d\n", snap.AuditDurationCount)
	writeMetric(w, "seodash_audit_duration_seconds_sum %.6f\n", float64(snap.AuditDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
