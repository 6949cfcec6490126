// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Audit outcome labels.
const (
	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
	AuditStatusLimited = "rate_limited"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Website management metrics
	IncWebsiteCreated()
	IncWebsiteDeleted()

	// Metrics API cache
	IncMetricsCacheHit()
	IncMetricsCacheMiss()
	AddMetricsSamplesIngested(n int)

	// Audit metrics
	IncAuditRun(status string) // status: "success", "failed", "rate_limited"
	ObserveAuditDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
