package audiocore

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/soundpool/internal/audiocore/device/sim"
	"github.com/tphakala/soundpool/internal/errors"
)

// oneSecond is one second of silence at 8 kHz mono 16-bit.
var oneSecond = make([]byte, 8000*2)

const testRate = 8000

type fixture struct {
	dev  *sim.Device
	ctx  *Context
	pool *SourcePool
	buf  *SoundBuffer
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(t *testing.T, maxSources int) (*Context, *sim.Device) {
	t.Helper()
	dev := sim.New(maxSources)
	ctx, err := NewContext(dev, ContextOptions{
		Logger:  quietLogger(),
		Metrics: NewMetricsCollector(nil),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, dev
}

func newFixture(t *testing.T, opts PoolOptions) *fixture {
	t.Helper()
	ctx, dev := newTestContext(t, 0)
	pool, err := NewSourcePool(ctx, opts)
	require.NoError(t, err)
	return &fixture{
		dev:  dev,
		ctx:  ctx,
		pool: pool,
		buf:  NewSoundBuffer(ctx, FormatMono16, testRate, oneSecond),
	}
}

func (f *fixture) play(t *testing.T, priority Priority) Handle {
	t.Helper()
	h, err := f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, priority)
	require.NoError(t, err)
	require.False(t, h.IsZero())
	return h
}

func (f *fixture) live(h Handle) bool {
	_, ok := f.pool.Resolve(h)
	return ok
}

// requireFatal runs fn and asserts it aborts with an error wrapping target.
// A nil target accepts any contract violation.
func requireFatal(t *testing.T, target error, fn func()) *errors.EnhancedError {
	t.Helper()

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()

	require.NotNil(t, recovered, "expected a contract violation")
	err, ok := recovered.(error)
	require.True(t, ok, "panic value should be an error, got %T", recovered)
	if target != nil {
		require.ErrorIs(t, err, target)
	}

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	return ee
}
