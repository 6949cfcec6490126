package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncWebsiteCreated()
	m.IncWebsiteCreated()
	m.IncWebsiteDeleted()
	m.IncMetricsCacheHit()
	m.IncMetricsCacheMiss()
	m.AddMetricsSamplesIngested(30)
	m.AddMetricsSamplesIngested(-1)
	m.IncAuditRun(AuditStatusSuccess)
	m.IncAuditRun(AuditStatusFailed)
	m.IncAuditRun(AuditStatusLimited)
	m.IncAuditRun("bogus")
	m.ObserveAuditDuration(2 * time.Second)

	snap := m.Snapshot()
	if snap.WebsitesCreated != 2 || snap.WebsitesDeleted != 1 {
		t.Errorf("website counters = %d/%d, want 2/1", snap.WebsitesCreated, snap.WebsitesDeleted)
	}
	if snap.MetricsCacheHits != 1 || snap.MetricsCacheMisses != 1 {
		t.Errorf("cache counters = %d/%d, want 1/1", snap.MetricsCacheHits, snap.MetricsCacheMisses)
	}
	if snap.MetricsSamplesIngested != 30 {
		t.Errorf("MetricsSamplesIngested = %d, want 30", snap.MetricsSamplesIngested)
	}
	if snap.AuditsSucceeded != 1 || snap.AuditsFailed != 2 || snap.AuditsRateLimited != 1 {
		t.Errorf("audit counters = %d/%d/%d, want 1/2/1", snap.AuditsSucceeded, snap.AuditsFailed, snap.AuditsRateLimited)
	}
	if snap.AuditDurationCount != 1 || snap.AuditDurationTotalNs != int64(2*time.Second) {
		t.Errorf("audit duration = %d/%d", snap.AuditDurationCount, snap.AuditDurationTotalNs)
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncWebsiteCreated()
		}()
	}
	wg.Wait()

	if got := m.Snapshot().WebsitesCreated; got != 50 {
		t.Errorf("WebsitesCreated = %d, want 50", got)
	}
}

func TestNoopRecorder_SatisfiesRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncAuditRun(AuditStatusSuccess)
	r.ObserveAuditDuration(time.Second)
}
