package audiocore

import (
	"sync"
	"sync/atomic"

	"github.com/tphakala/soundpool/internal/logging"
	"github.com/tphakala/soundpool/internal/observability/metrics"
)

// MetricsCollector forwards pool events to Prometheus. A collector without
// metrics is a no-op, so call sites never check whether metrics are enabled.
type MetricsCollector struct {
	metrics *metrics.SoundPoolMetrics
	enabled bool
}

// globalMetrics is a package-level metrics instance
var (
	globalMetrics     atomic.Pointer[MetricsCollector]
	globalMetricsOnce sync.Once
	noopMetrics       = &MetricsCollector{}
)

// NewMetricsCollector wraps metrics for use by a context or pool. Nil metrics
// yield a disabled collector.
func NewMetricsCollector(m *metrics.SoundPoolMetrics) *MetricsCollector {
	return &MetricsCollector{metrics: m, enabled: m != nil}
}

// InitMetrics initializes the global metrics collector. Only the first call has an effect.
func InitMetrics(metricsInstance *metrics.SoundPoolMetrics) {
	globalMetricsOnce.Do(func() {
		logger := logging.ForServiceOrDefault(ComponentAudioCore).With("component", "metrics")

		globalMetrics.Store(NewMetricsCollector(metricsInstance))

		if metricsInstance != nil {
			logger.Info("metrics collector initialized")
		} else {
			logger.Debug("metrics collector disabled")
		}
	})
}

// GetMetrics returns the global metrics collector
func GetMetrics() *MetricsCollector {
	mc := globalMetrics.Load()
	if mc == nil {
		return noopMetrics
	}
	return mc
}

// Enabled reports whether events reach Prometheus
func (mc *MetricsCollector) Enabled() bool {
	return mc != nil && mc.enabled
}

func (mc *MetricsCollector) recordPlayRequest(pool string, priority Priority, outcome string) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordPlayRequest(pool, priority.String(), outcome)
}

func (mc *MetricsCollector) recordAllocation(pool string, seconds float64) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordAllocationDuration(pool, seconds)
}

func (mc *MetricsCollector) recordSlots(pool string, stats PoolStats) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.UpdateSlots(pool, stats.Capacity, stats.Occupied, stats.ActiveHigh, stats.ActiveLow)
}

func (mc *MetricsCollector) recordFinished(pool string, count int) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordSoundsFinished(pool, count)
}

func (mc *MetricsCollector) recordStaleHandle(pool, op string) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordStaleHandle(pool, op)
}

func (mc *MetricsCollector) recordFatal(category string) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordFatalError(category)
}

func (mc *MetricsCollector) recordBuffer(kind string, count, bytes int) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.AddBuffer(kind, count, bytes)
}

// BankLookup records a sound bank hit or miss
func (mc *MetricsCollector) BankLookup(hit bool) {
	if !mc.Enabled() {
		return
	}
	if hit {
		mc.metrics.RecordBankLookup(metrics.ResultHit)
	} else {
		mc.metrics.RecordBankLookup(metrics.ResultMiss)
	}
}

// BankEntries records the number of sounds held by a sound bank
func (mc *MetricsCollector) BankEntries(count int) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.SetBankEntries(count)
}
