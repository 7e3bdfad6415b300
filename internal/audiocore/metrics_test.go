package audiocore

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/soundpool/internal/audiocore/device/sim"
	"github.com/tphakala/soundpool/internal/observability/metrics"
)

func newMeteredFixture(t *testing.T, opts PoolOptions) (*fixture, *prometheus.Registry) {
	t.Helper()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewSoundPoolMetrics(registry)
	require.NoError(t, err)

	dev := sim.New(0)
	ctx, err := NewContext(dev, ContextOptions{Logger: quietLogger(), Metrics: NewMetricsCollector(m)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	pool, err := NewSourcePool(ctx, opts)
	require.NoError(t, err)
	return &fixture{
		dev:  dev,
		ctx:  ctx,
		pool: pool,
		buf:  NewSoundBuffer(ctx, FormatMono16, testRate, oneSecond),
	}, registry
}

func TestPoolRecordsPlayOutcomes(t *testing.T) {
	t.Parallel()

	f, registry := newMeteredFixture(t, PoolOptions{Name: "sfx", Capacity: 2, HighPriorityCap: 2})
	low := f.play(t, PriorityLow)
	f.play(t, PriorityHigh)
	f.play(t, PriorityLow) // evicts low
	f.pool.Stop(low)       // stale, recorded
	f.play(t, PriorityHigh)

	f.pool.Stop(Handle{})
	_, err := f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, PriorityLow)
	require.ErrorIs(t, err, ErrNoSlotAvailable)

	expected := `
# HELP soundpool_play_requests_total Total number of play requests by priority and allocation outcome
# TYPE soundpool_play_requests_total counter
soundpool_play_requests_total{outcome="evicted",pool="sfx",priority="high"} 1
soundpool_play_requests_total{outcome="evicted",pool="sfx",priority="low"} 1
soundpool_play_requests_total{outcome="free",pool="sfx",priority="high"} 1
soundpool_play_requests_total{outcome="free",pool="sfx",priority="low"} 1
soundpool_play_requests_total{outcome="rejected",pool="sfx",priority="low"} 1
# HELP soundpool_slots_occupied Number of slots that have been assigned a sound
# TYPE soundpool_slots_occupied gauge
soundpool_slots_occupied{pool="sfx"} 2
# HELP soundpool_stale_handle_operations_total Total number of operations issued through handles whose slot was reused
# TYPE soundpool_stale_handle_operations_total counter
soundpool_stale_handle_operations_total{operation="stop",pool="sfx"} 2
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"soundpool_play_requests_total",
		"soundpool_slots_occupied",
		"soundpool_stale_handle_operations_total"))
}

func TestPoolRecordsFinishedSoundsAndBuffers(t *testing.T) {
	t.Parallel()

	f, registry := newMeteredFixture(t, PoolOptions{Capacity: 2})
	f.play(t, PriorityLow)
	f.dev.Advance(f.buf.Duration())
	require.Equal(t, 1, f.pool.Update())

	expected := `
# HELP soundpool_sounds_finished_total Total number of sounds that reached the end of their data
# TYPE soundpool_sounds_finished_total counter
soundpool_sounds_finished_total{pool="default"} 1
# HELP soundpool_buffers_loaded Number of live sound buffers
# TYPE soundpool_buffers_loaded gauge
soundpool_buffers_loaded{kind="static"} 1
# HELP soundpool_buffer_bytes PCM bytes held by live sound buffers
# TYPE soundpool_buffer_bytes gauge
soundpool_buffer_bytes{kind="static"} 16000
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"soundpool_sounds_finished_total",
		"soundpool_buffers_loaded",
		"soundpool_buffer_bytes"))

	require.NoError(t, f.buf.Close())
	count, err := testutil.GatherAndCount(registry, "soundpool_allocation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFatalErrorsAreCounted(t *testing.T) {
	t.Parallel()

	f, registry := newMeteredFixture(t, PoolOptions{Capacity: 2, HighPriorityCap: 1})
	f.play(t, PriorityHigh)
	requireFatal(t, ErrHighPriorityBudget, func() {
		_, _ = f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, PriorityHigh)
	})

	expected := `
# HELP soundpool_fatal_errors_total Total number of contract violations that aborted an operation
# TYPE soundpool_fatal_errors_total counter
soundpool_fatal_errors_total{category="limit"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"soundpool_fatal_errors_total"))
}

func TestDisabledMetricsCollector(t *testing.T) {
	t.Parallel()

	mc := NewMetricsCollector(nil)
	assert.False(t, mc.Enabled())
	mc.BankLookup(true)
	mc.BankEntries(3)
	mc.recordPlayRequest("x", PriorityLow, metrics.OutcomeFree)

	var nilCollector *MetricsCollector
	assert.False(t, nilCollector.Enabled())
	assert.NotNil(t, GetMetrics())
}
