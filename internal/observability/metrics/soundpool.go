package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SoundPoolMetrics contains Prometheus metrics for the source pool, its
// buffers and the sound bank.
type SoundPoolMetrics struct {
	registry *prometheus.Registry

	// Pool metrics
	slotsCapacity      *prometheus.GaugeVec
	slotsOccupied      *prometheus.GaugeVec
	slotsActive        *prometheus.GaugeVec
	playRequests       *prometheus.CounterVec
	allocationDuration *prometheus.HistogramVec
	soundsFinished     *prometheus.CounterVec
	staleHandleOps     *prometheus.CounterVec

	// Failure metrics
	fatalErrors *prometheus.CounterVec

	// Buffer metrics
	buffersLoaded *prometheus.GaugeVec
	bufferBytes   *prometheus.GaugeVec

	// Sound bank metrics
	bankLookups *prometheus.CounterVec
	bankEntries prometheus.Gauge

	collectors []prometheus.Collector
}

// NewSoundPoolMetrics creates and registers new sound pool metrics
func NewSoundPoolMetrics(registry *prometheus.Registry) (*SoundPoolMetrics, error) {
	m := &SoundPoolMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *SoundPoolMetrics) initMetrics() {
	m.slotsCapacity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundpool_slots_capacity",
			Help: "Number of native sources owned by the pool",
		},
		[]string{"pool"},
	)

	m.slotsOccupied = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundpool_slots_occupied",
			Help: "Number of slots that have been assigned a sound",
		},
		[]string{"pool"},
	)

	m.slotsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundpool_slots_active",
			Help: "Number of slots whose sound is playing or paused",
		},
		[]string{"pool", "priority"},
	)

	m.playRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundpool_play_requests_total",
			Help: "Total number of play requests by priority and allocation outcome",
		},
		[]string{"pool", "priority", "outcome"},
	)

	m.allocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundpool_allocation_duration_seconds",
			Help:    "Time taken to select, prepare and start a slot",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10), // 1us to ~0.26s
		},
		[]string{"pool"},
	)

	m.soundsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundpool_sounds_finished_total",
			Help: "Total number of sounds that reached the end of their data",
		},
		[]string{"pool"},
	)

	m.staleHandleOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundpool_stale_handle_operations_total",
			Help: "Total number of operations issued through handles whose slot was reused",
		},
		[]string{"pool", "operation"},
	)

	m.fatalErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundpool_fatal_errors_total",
			Help: "Total number of contract violations that aborted an operation",
		},
		[]string{"category"},
	)

	m.buffersLoaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundpool_buffers_loaded",
			Help: "Number of live sound buffers",
		},
		[]string{"kind"},
	)

	m.bufferBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundpool_buffer_bytes",
			Help: "PCM bytes held by live sound buffers",
		},
		[]string{"kind"},
	)

	m.bankLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundpool_bank_lookups_total",
			Help: "Total number of sound bank lookups by result",
		},
		[]string{"result"},
	)

	m.bankEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "soundpool_bank_entries",
			Help: "Number of sounds held by the sound bank",
		},
	)

	m.collectors = []prometheus.Collector{
		m.slotsCapacity,
		m.slotsOccupied,
		m.slotsActive,
		m.playRequests,
		m.allocationDuration,
		m.soundsFinished,
		m.staleHandleOps,
		m.fatalErrors,
		m.buffersLoaded,
		m.bufferBytes,
		m.bankLookups,
		m.bankEntries,
	}
}

// Describe implements the Collector interface
func (m *SoundPoolMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *SoundPoolMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// UpdateSlots records the pool occupancy gauges
func (m *SoundPoolMetrics) UpdateSlots(pool string, capacity, occupied, activeHigh, activeLow int) {
	m.slotsCapacity.WithLabelValues(pool).Set(float64(capacity))
	m.slotsOccupied.WithLabelValues(pool).Set(float64(occupied))
	m.slotsActive.WithLabelValues(pool, "high").Set(float64(activeHigh))
	m.slotsActive.WithLabelValues(pool, "low").Set(float64(activeLow))
}

// RecordPlayRequest records a play request and its allocation outcome
func (m *SoundPoolMetrics) RecordPlayRequest(pool, priority, outcome string) {
	m.playRequests.WithLabelValues(pool, priority, outcome).Inc()
}

// RecordAllocationDuration records how long a successful allocation took
func (m *SoundPoolMetrics) RecordAllocationDuration(pool string, seconds float64) {
	m.allocationDuration.WithLabelValues(pool).Observe(seconds)
}

// RecordSoundsFinished records sounds that ended naturally
func (m *SoundPoolMetrics) RecordSoundsFinished(pool string, count int) {
	if count > 0 {
		m.soundsFinished.WithLabelValues(pool).Add(float64(count))
	}
}

// RecordStaleHandle records an operation issued through a stale handle
func (m *SoundPoolMetrics) RecordStaleHandle(pool, operation string) {
	m.staleHandleOps.WithLabelValues(pool, operation).Inc()
}

// RecordFatalError records a contract violation
func (m *SoundPoolMetrics) RecordFatalError(category string) {
	m.fatalErrors.WithLabelValues(category).Inc()
}

// AddBuffer adjusts the live buffer gauges; pass negative values on release
func (m *SoundPoolMetrics) AddBuffer(kind string, count int, bytes int) {
	m.buffersLoaded.WithLabelValues(kind).Add(float64(count))
	m.bufferBytes.WithLabelValues(kind).Add(float64(bytes))
}

// RecordBankLookup records a sound bank hit or miss
func (m *SoundPoolMetrics) RecordBankLookup(result string) {
	m.bankLookups.WithLabelValues(result).Inc()
}

// SetBankEntries records the number of sounds held by the bank
func (m *SoundPoolMetrics) SetBankEntries(count int) {
	m.bankEntries.Set(float64(count))
}
