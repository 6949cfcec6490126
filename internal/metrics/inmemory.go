package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	WebsitesCreated        uint64
	WebsitesDeleted        uint64
	MetricsCacheHits       uint64
	MetricsCacheMisses     uint64
	MetricsSamplesIngested uint64
	AuditsSucceeded        uint64
	AuditsFailed           uint64
	AuditsRateLimited      uint64
	AuditDurationCount     uint64
	AuditDurationTotalNs   int64
}

// InMemoryRecorder keeps counters in process memory.
// It backs the /metrics endpoint and is safe for concurrent use.
type InMemoryRecorder struct {
	websitesCreated        uint64
	websitesDeleted        uint64
	metricsCacheHits       uint64
	metricsCacheMisses     uint64
	metricsSamplesIngested uint64
	auditsSucceeded        uint64
	auditsFailed           uint64
	auditsRateLimited      uint64
	auditDurationCount     uint64
	auditDurationTotalNs   int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		WebsitesCreated:        atomic.LoadUint64(&m.websitesCreated),
		WebsitesDeleted:        atomic.LoadUint64(&m.websitesDeleted),
		MetricsCacheHits:       atomic.LoadUint64(&m.metricsCacheHits),
		MetricsCacheMisses:     atomic.LoadUint64(&m.metricsCacheMisses),
		MetricsSamplesIngested: atomic.LoadUint64(&m.metricsSamplesIngested),
		AuditsSucceeded:        atomic.LoadUint64(&m.auditsSucceeded),
		AuditsFailed:           atomic.LoadUint64(&m.auditsFailed),
		AuditsRateLimited:      atomic.LoadUint64(&m.auditsRateLimited),
		AuditDurationCount:     atomic.LoadUint64(&m.auditDurationCount),
		AuditDurationTotalNs:   atomic.LoadInt64(&m.auditDurationTotalNs),
	}
}

// IncWebsiteCreated increments the website created counter.
func (m *InMemoryRecorder) IncWebsiteCreated() {
	atomic.AddUint64(&m.websitesCreated, 1)
}

// IncWebsiteDeleted increments the website deleted counter.
func (m *InMemoryRecorder) IncWebsiteDeleted() {
	atomic.AddUint64(&m.websitesDeleted, 1)
}

// IncMetricsCacheHit increments the metrics cache hit counter.
func (m *InMemoryRecorder) IncMetricsCacheHit() {
	atomic.AddUint64(&m.metricsCacheHits, 1)
}

// IncMetricsCacheMiss increments the metrics cache miss counter.
func (m *InMemoryRecorder) IncMetricsCacheMiss() {
	atomic.AddUint64(&m.metricsCacheMisses, 1)
}

// AddMetricsSamplesIngested adds n ingested samples.
func (m *InMemoryRecorder) AddMetricsSamplesIngested(n int) {
	if n > 0 {
		atomic.AddUint64(&m.metricsSamplesIngested, uint64(n))
	}
}

// IncAuditRun counts an audit by outcome. Unknown statuses are counted as failed.
func (m *InMemoryRecorder) IncAuditRun(status string) {
	switch status {
	case AuditStatusSuccess:
		atomic.AddUint64(&m.auditsSucceeded, 1)
	case AuditStatusLimited:
		atomic.AddUint64(&m.auditsRateLimited, 1)
	default:
		atomic.AddUint64(&m.auditsFailed, 1)
	}
}

// ObserveAuditDuration records how long an audit took.
func (m *InMemoryRecorder) ObserveAuditDuration(duration time.Duration) {
	atomic.AddUint64(&m.auditDurationCount, 1)
	atomic.AddInt64(&m.auditDurationTotalNs, duration.Nanoseconds())
}
