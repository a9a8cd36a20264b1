// Package metrics tracks sync counters and gauges and serves them in the
// Prometheus text exposition format.
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// SyncMetrics holds the daemon's counters and gauges. The sync loop is the
// only writer; the metrics HTTP handler reads concurrently, so access is
// mutex-guarded.
type SyncMetrics struct {
	mu sync.Mutex

	fullSyncsTotal   int64
	quickChecksTotal int64
	vmsSyncedTotal   int64
	lxcSyncedTotal   int64
	errorsTotal      int64

	vmsTracked        int
	lxcTracked        int
	lastSyncDuration  time.Duration
	lastSyncTimestamp time.Time
	changesDetected   int
}

// New creates an empty metrics registry.
func New() *SyncMetrics {
	return &SyncMetrics{}
}

// RecordFullSyncStart counts a full pass and returns its start time.
func (m *SyncMetrics) RecordFullSyncStart() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullSyncsTotal++
	return time.Now()
}

// RecordFullSyncEnd records the duration and guest counts of a finished
// full pass.
func (m *SyncMetrics) RecordFullSyncEnd(start time.Time, vmCount, lxcCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSyncDuration = time.Since(start)
	m.lastSyncTimestamp = time.Now()
	m.vmsTracked = vmCount
	m.lxcTracked = lxcCount
}

// RecordQuickCheck counts a quick check and its detected change count.
func (m *SyncMetrics) RecordQuickCheck(changes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quickChecksTotal++
	m.changesDetected = changes
}

// RecordVMSync counts one synchronized QEMU guest.
func (m *SyncMetrics) RecordVMSync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vmsSyncedTotal++
}

// RecordLXCSync counts one synchronized LXC container.
func (m *SyncMetrics) RecordLXCSync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lxcSyncedTotal++
}

// RecordError counts a pass-level error.
func (m *SyncMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorsTotal++
}

// Render produces the Prometheus text exposition of all metrics.
func (m *SyncMetrics) Render() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	counter := func(name, help string, value int64) {
		fmt.Fprintf(&b, "# HELP pve2netbox_%s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE pve2netbox_%s counter\n", name)
		fmt.Fprintf(&b, "pve2netbox_%s %d\n\n", name, value)
	}
	gauge := func(name, help, value string) {
		fmt.Fprintf(&b, "# HELP pve2netbox_%s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE pve2netbox_%s gauge\n", name)
		fmt.Fprintf(&b, "pve2netbox_%s %s\n\n", name, value)
	}

	counter("full_syncs_total", "Total number of full synchronizations", m.fullSyncsTotal)
	counter("quick_checks_total", "Total number of quick checks", m.quickChecksTotal)
	counter("vms_synced_total", "Total number of VMs synchronized", m.vmsSyncedTotal)
	counter("lxc_synced_total", "Total number of LXC containers synchronized", m.lxcSyncedTotal)
	counter("errors_total", "Total number of errors", m.errorsTotal)

	gauge("vms_tracked", "Number of VMs currently tracked", fmt.Sprintf("%d", m.vmsTracked))
	gauge("lxc_tracked", "Number of LXC containers currently tracked", fmt.Sprintf("%d", m.lxcTracked))
	gauge("last_sync_duration_seconds", "Duration of last sync in seconds",
		fmt.Sprintf("%.2f", m.lastSyncDuration.Seconds()))

	var ts int64
	if !m.lastSyncTimestamp.IsZero() {
		ts = m.lastSyncTimestamp.Unix()
	}
	gauge("last_sync_timestamp_seconds", "Timestamp of last successful sync", fmt.Sprintf("%d", ts))
	gauge("changes_detected", "Number of changes detected in last quick check",
		fmt.Sprintf("%d", m.changesDetected))

	return strings.TrimSuffix(b.String(), "\n")
}
