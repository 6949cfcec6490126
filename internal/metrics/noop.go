package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncWebsiteCreated is a no-op.
func (n *NoopRecorder) IncWebsiteCreated() {}

// IncWebsiteDeleted is a no-op.
func (n *NoopRecorder) IncWebsiteDeleted() {}

// IncMetricsCacheHit is a no-op.
func (n *NoopRecorder) IncMetricsCacheHit() {}

// IncMetricsCacheMiss is a no-op.
func (n *NoopRecorder) IncMetricsCacheMiss() {}

// AddMetricsSamplesIngested is a no-op.
func (n *NoopRecorder) AddMetricsSamplesIngested(int) {}

// IncAuditRun is a no-op.
func (n *NoopRecorder) IncAuditRun(string) {}

// ObserveAuditDuration is a no-op.
func (n *NoopRecorder) ObserveAuditDuration(time.Duration) {}
