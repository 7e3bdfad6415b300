package audiocore

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/soundpool/internal/errors"
)

func TestPlaySoundFillsFreeSlotsInOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 4})
	for i := range 4 {
		h := f.play(t, PriorityLow)
		assert.Equal(t, i, h.Slot())
		assert.Equal(t, uint64(1), h.Generation())
		assert.Equal(t, StatePlaying, f.pool.State(h))
	}

	stats := f.pool.Stats()
	assert.Equal(t, 4, stats.Occupied)
	assert.Equal(t, 4, stats.ActiveLow)
	assert.Equal(t, uint64(4), stats.Created)
	assert.Zero(t, stats.Evicted)
}

func TestLowRequestOnFullPoolEvictsOneLowSound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 4})
	handles := make([]Handle, 4)
	for i := range handles {
		handles[i] = f.play(t, PriorityLow)
	}

	h4 := f.play(t, PriorityLow)

	stale := 0
	for _, h := range handles {
		if !f.live(h) {
			stale++
			assert.Equal(t, StateStopped, f.pool.State(h))
		}
	}
	assert.Equal(t, 1, stale)
	assert.Equal(t, 4, f.pool.Stats().Occupied)
	assert.True(t, f.pool.IsActive(h4))

	// the oldest sound goes first
	assert.False(t, f.live(handles[0]))
	assert.Equal(t, 0, h4.Slot())
	assert.Equal(t, uint64(2), h4.Generation())
	assert.Equal(t, uint64(1), f.pool.Stats().Evicted)
}

func TestHighSoundSurvivesLowPressure(t *testing.T) {
	t.Parallel()

	const capacity = 4
	f := newFixture(t, PoolOptions{Capacity: capacity})

	high := f.play(t, PriorityHigh)
	lows := make([]Handle, capacity-1)
	for i := range lows {
		lows[i] = f.play(t, PriorityLow)
	}

	f.play(t, PriorityLow)
	assert.True(t, f.live(high))
	assert.True(t, f.pool.IsActive(high))

	evicted := 0
	for _, h := range lows {
		if !f.live(h) {
			evicted++
		}
	}
	assert.Equal(t, 1, evicted)

	for range 20 {
		f.play(t, PriorityLow)
		require.True(t, f.live(high))
	}
	assert.Equal(t, 1, f.pool.Stats().ActiveHigh)
}

func TestLowRequestRejectedWhenEverySlotIsHigh(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 2, HighPriorityCap: 2})
	a := f.play(t, PriorityHigh)
	b := f.play(t, PriorityHigh)

	h, err := f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, PriorityLow)
	require.ErrorIs(t, err, ErrNoSlotAvailable)
	assert.True(t, h.IsZero())
	assert.Equal(t, StateStopped, f.pool.State(h))
	assert.False(t, f.pool.IsActive(h))

	assert.True(t, f.pool.IsActive(a))
	assert.True(t, f.pool.IsActive(b))

	stats := f.pool.Stats()
	assert.Equal(t, uint64(1), stats.Rejected)
	assert.Equal(t, uint64(2), stats.Created)
}

func TestHighPriorityCapIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 8, HighPriorityCap: 2})
	first := f.play(t, PriorityHigh)
	f.play(t, PriorityHigh)

	ee := requireFatal(t, ErrHighPriorityBudget, func() {
		_, _ = f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, PriorityHigh)
	})
	assert.Equal(t, errors.CategoryLimit, ee.Category)
	assert.Equal(t, errors.PriorityCritical, ee.GetPriority())
	assert.Equal(t, "play_sound", ee.GetContext()["operation"])
	assert.Equal(t, 2, f.pool.Stats().ActiveHigh, "the rejected request must not evict anything")

	// stopped high sounds no longer count against the budget
	f.pool.Stop(first)
	f.play(t, PriorityHigh)
}

func TestFinishedHighSoundFreesBudget(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 4, HighPriorityCap: 1})
	h := f.play(t, PriorityHigh)

	f.dev.Advance(time.Second)
	next := f.play(t, PriorityHigh)

	assert.Equal(t, StatePlaying, f.pool.State(next))
	assert.Equal(t, StateStopped, f.pool.State(h))
}

func TestStoppedSoundsAreReclaimedBeforeEviction(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 2})
	oldest := f.play(t, PriorityLow)
	stopped := f.play(t, PriorityLow)
	f.pool.Stop(stopped)

	h := f.play(t, PriorityLow)
	assert.Equal(t, stopped.Slot(), h.Slot())
	assert.True(t, f.pool.IsActive(oldest))
	assert.False(t, f.live(stopped))

	stats := f.pool.Stats()
	assert.Equal(t, uint64(1), stats.Reclaimed)
	assert.Zero(t, stats.Evicted)
}

func TestStoppedHighSoundIsReclaimable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 1, HighPriorityCap: 1})
	high := f.play(t, PriorityHigh)
	f.pool.Stop(high)

	low := f.play(t, PriorityLow)
	assert.False(t, f.live(high))
	assert.True(t, f.pool.IsActive(low))
}

func TestSoundStopsOnItsOwnAfterItsDuration(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 2})
	require.Equal(t, time.Second, f.buf.Duration())
	h := f.play(t, PriorityLow)

	f.dev.Advance(500 * time.Millisecond)
	assert.Zero(t, f.pool.Update())
	assert.Equal(t, StatePlaying, f.pool.State(h))

	f.dev.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, f.pool.Update())
	assert.Equal(t, StateStopped, f.pool.State(h))
	assert.False(t, f.pool.IsActive(h))
	assert.Zero(t, f.pool.Update(), "finished sounds are latched once")

	stats := f.pool.Stats()
	assert.Equal(t, uint64(1), stats.Finished)
	assert.Equal(t, 1, stats.Occupied)
	assert.Zero(t, stats.Active)
}

func TestUpdateReportsCompletionsSeenByPlaySound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 2})
	first := f.play(t, PriorityLow)

	f.dev.Advance(2 * time.Second)
	// PlaySound polls the table before selecting a slot
	second := f.play(t, PriorityLow)
	assert.False(t, f.pool.IsActive(first))
	assert.True(t, f.pool.IsActive(second))
	assert.Equal(t, uint64(1), f.pool.Stats().Finished)

	assert.Equal(t, 1, f.pool.Update())
	assert.Zero(t, f.pool.Update())

	f.dev.Advance(2 * time.Second)
	assert.Equal(t, StateStopped, f.pool.State(second))
	assert.Equal(t, 1, f.pool.Update())
	assert.Equal(t, uint64(2), f.pool.Stats().Finished)
}

func TestLoopingSoundKeepsPlaying(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 1})
	h, err := f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, true, PriorityLow)
	require.NoError(t, err)

	f.dev.Advance(10 * time.Second)
	assert.Zero(t, f.pool.Update())
	assert.Equal(t, StatePlaying, f.pool.State(h))

	f.pool.SetLooping(h, false)
	f.dev.Advance(time.Second)
	assert.Equal(t, StateStopped, f.pool.State(h))
}

func TestStaleHandleOperationsAreNoops(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 1})
	old := f.play(t, PriorityLow)
	current := f.play(t, PriorityLow)
	require.Equal(t, old.Slot(), current.Slot())

	src, ok := f.pool.Resolve(current)
	require.True(t, ok)
	_, ok = f.pool.Resolve(old)
	assert.False(t, ok)

	before, _ := f.dev.Source(src)

	v := f.pool.Voice(old)
	v.Pause()
	v.Stop()
	v.Rewind()
	v.Play()
	v.SetPosition(Vec3{X: 100})
	v.SetGain(0)
	f.pool.QueueChunks(old, 0)
	assert.Nil(t, f.pool.ProcessedChunks(old))

	assert.Equal(t, StateStopped, v.State())
	assert.False(t, v.IsActive())

	after, _ := f.dev.Source(src)
	assert.Equal(t, before, after, "stale handles must not reach the device")
	assert.Equal(t, StatePlaying, f.pool.State(current))
}

func TestZeroAndOutOfRangeHandles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 2})
	f.play(t, PriorityLow)

	for _, h := range []Handle{{}, {slot: 0, generation: 0}, {slot: 7, generation: 1}, {slot: 0, generation: 9}} {
		_, ok := f.pool.Resolve(h)
		assert.False(t, ok, h.String())
		assert.Equal(t, StateStopped, f.pool.State(h))
		f.pool.Stop(h)
	}
	assert.Equal(t, 1, f.pool.Stats().Active)
}

func TestPlaybackStateMachine(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 1})
	h := f.play(t, PriorityLow)
	v := f.pool.Voice(h)
	src, _ := f.pool.Resolve(h)

	v.Pause()
	assert.Equal(t, StatePaused, v.State())
	assert.True(t, v.IsActive())

	v.Pause()
	assert.Equal(t, StatePaused, v.State())

	v.Play()
	assert.Equal(t, StatePlaying, v.State())

	f.dev.Advance(300 * time.Millisecond)
	v.Rewind()
	assert.Equal(t, StatePlaying, v.State(), "rewinding a playing sound restarts it")
	info, _ := f.dev.Source(src)
	assert.Zero(t, info.Offset)

	v.Pause()
	v.Rewind()
	assert.Equal(t, StateInitial, v.State(), "rewinding a paused sound waits for Play")
	assert.False(t, v.IsActive())

	v.Play()
	assert.Equal(t, StatePlaying, v.State())

	v.Stop()
	assert.Equal(t, StateStopped, v.State())
	plays := func() int {
		info, _ := f.dev.Source(src)
		return info.Plays
	}
	before := plays()

	v.Play()
	v.Rewind()
	v.Pause()
	assert.Equal(t, StateStopped, v.State(), "stopped is terminal for a generation")
	assert.Equal(t, before, plays())
	assert.True(t, f.live(h), "a stopped sound keeps its slot until reassigned")
}

func TestPlaySoundAppliesSpatialAttributes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 2})
	pos := Vec3{X: 1, Y: 2, Z: 3}
	vel := Vec3{X: -1}
	h, err := f.pool.PlaySound(f.buf, pos, vel, true, PriorityLow)
	require.NoError(t, err)

	src, ok := f.pool.Resolve(h)
	require.True(t, ok)
	info, _ := f.dev.Source(src)
	assert.Equal(t, pos, info.Position)
	assert.Equal(t, vel, info.Velocity)
	assert.True(t, info.Looping)
	assert.InDelta(t, 1.0, info.Gain, 1e-6)

	f.pool.SetPosition(h, Vec3{Z: -5})
	f.pool.SetVelocity(h, Vec3{Y: 2})
	f.pool.SetGain(h, 0.25)

	info, _ = f.dev.Source(src)
	assert.Equal(t, Vec3{Z: -5}, info.Position)
	assert.Equal(t, Vec3{Y: 2}, info.Velocity)
	assert.InDelta(t, 0.25, info.Gain, 1e-6)
}

func TestReusedSlotResetsAttributes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 1})
	h := f.play(t, PriorityLow)
	f.pool.SetGain(h, 0.1)
	f.pool.Stop(h)

	next := f.play(t, PriorityLow)
	src, _ := f.pool.Resolve(next)
	info, _ := f.dev.Source(src)
	assert.InDelta(t, 1.0, info.Gain, 1e-6)
	assert.False(t, info.Looping)
}

func TestGenerationsStrictlyIncrease(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 3})
	last := make(map[int]uint64)
	seen := make(map[Handle]bool)

	for range 100 {
		h := f.play(t, PriorityLow)
		assert.Greater(t, h.Generation(), last[h.Slot()])
		last[h.Slot()] = h.Generation()
		assert.False(t, seen[h], "handle %s issued twice", h)
		seen[h] = true
	}
}

func TestGenerationDoesNotWrapPast32Bits(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 1})
	old := f.play(t, PriorityLow)
	f.pool.slots[0].generation = math.MaxUint32

	h := f.play(t, PriorityLow)
	assert.Equal(t, uint64(math.MaxUint32)+1, h.Generation())
	assert.False(t, h.IsZero())
	assert.True(t, f.live(h))
	assert.Equal(t, StatePlaying, f.pool.State(h))

	next := f.play(t, PriorityLow)
	assert.Greater(t, next.Generation(), h.Generation())
	assert.False(t, f.live(old), "generation 1 is never issued again")
}

func TestPoolInvariantsUnderRandomLoad(t *testing.T) {
	t.Parallel()

	const capacity = 6
	f := newFixture(t, PoolOptions{Capacity: capacity, HighPriorityCap: 3})
	rng := rand.New(rand.NewPCG(7, 11))

	var handles []Handle
	last := make(map[int]uint64)

	for step := range 2000 {
		switch op := rng.IntN(10); {
		case op < 5:
			// high sounds that are active before a low request must stay live
			var protected []Handle
			for _, h := range handles {
				if f.pool.IsActive(h) && f.pool.slots[h.Slot()].priority == PriorityHigh {
					protected = append(protected, h)
				}
			}
			h, err := f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, PriorityLow)
			if err != nil {
				require.ErrorIs(t, err, ErrNoSlotAvailable)
				break
			}
			for _, p := range protected {
				require.True(t, f.live(p), "step %d: high sound %s evicted", step, p)
			}
			require.Greater(t, h.Generation(), last[h.Slot()])
			last[h.Slot()] = h.Generation()
			handles = append(handles, h)
		case op < 7:
			f.pool.Update()
			if f.pool.Stats().ActiveHigh >= f.pool.HighPriorityCap() {
				break
			}
			h := f.play(t, PriorityHigh)
			require.Greater(t, h.Generation(), last[h.Slot()])
			last[h.Slot()] = h.Generation()
			handles = append(handles, h)
		case op < 8 && len(handles) > 0:
			f.pool.Stop(handles[rng.IntN(len(handles))])
		default:
			f.dev.Advance(time.Duration(rng.IntN(400)) * time.Millisecond)
		}

		stats := f.pool.Stats()
		require.LessOrEqual(t, stats.Occupied, capacity)
		require.LessOrEqual(t, stats.ActiveHigh, f.pool.HighPriorityCap())
	}

	for _, h := range handles {
		if !f.live(h) {
			assert.Equal(t, StateStopped, f.pool.State(h))
		}
	}
}

func TestEvictionPolicyChoosesVictim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		policy   EvictionPolicy
		wantSlot int
	}{
		{"oldest", EvictOldest, 0},
		{"newest", EvictNewest, 2},
		{"zero value", EvictionPolicy{}, 0},
		{"custom", NewEvictionPolicy("middle", func(a, b SlotView) bool { return a.Index == 1 }), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, PoolOptions{Capacity: 3, Policy: tt.policy})
			for range 3 {
				f.play(t, PriorityLow)
			}
			h := f.play(t, PriorityLow)
			assert.Equal(t, tt.wantSlot, h.Slot())
		})
	}
}

func TestStopAll(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 3})
	a := f.play(t, PriorityLow)
	b := f.play(t, PriorityHigh)

	f.pool.StopAll()
	assert.Equal(t, StateStopped, f.pool.State(a))
	assert.Equal(t, StateStopped, f.pool.State(b))
	assert.Zero(t, f.pool.Stats().Active)
}

func TestStreamedBufferChunks(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 2})
	quarter := make([]byte, 2000*2) // 250ms at 8 kHz mono 16-bit
	streamed := NewStreamedSoundBuffer(f.ctx, FormatMono16, testRate, [][]byte{quarter, quarter, quarter})
	require.Equal(t, 3, streamed.ChunkCount())
	require.Equal(t, 750*time.Millisecond, streamed.Duration())

	h, err := f.pool.PlaySound(streamed, Vec3{}, Vec3{}, false, PriorityLow)
	require.NoError(t, err)

	f.dev.Advance(300 * time.Millisecond)
	assert.Equal(t, []int{0}, f.pool.ProcessedChunks(h))
	assert.Empty(t, f.pool.ProcessedChunks(h))

	f.pool.QueueChunks(h, 0)
	f.dev.Advance(600 * time.Millisecond)
	assert.Equal(t, StatePlaying, f.pool.State(h), "the requeued chunk extends playback")

	f.dev.Advance(time.Second)
	assert.Equal(t, StateStopped, f.pool.State(h))
	assert.Equal(t, []int{1, 2, 0}, f.pool.ProcessedChunks(h))

	requireFatal(t, ErrChunkOutOfRange, func() {
		h2, err := f.pool.PlaySound(streamed, Vec3{}, Vec3{}, false, PriorityLow)
		require.NoError(t, err)
		f.pool.QueueChunks(h2, 3)
	})
}

func TestChunkOperationsRequireStreamedBuffer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 1})
	h := f.play(t, PriorityLow)

	requireFatal(t, ErrNotStreamed, func() { f.pool.QueueChunks(h, 0) })
	requireFatal(t, ErrNotStreamed, func() { f.pool.ProcessedChunks(h) })
}

func TestPlaySoundContractViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target error
		run    func(t *testing.T, f *fixture)
	}{
		{
			name:   "nil buffer",
			target: ErrNilBuffer,
			run: func(t *testing.T, f *fixture) {
				_, _ = f.pool.PlaySound(nil, Vec3{}, Vec3{}, false, PriorityLow)
			},
		},
		{
			name:   "released buffer",
			target: ErrBufferReleased,
			run: func(t *testing.T, f *fixture) {
				require.NoError(t, f.buf.Close())
				_, _ = f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, PriorityLow)
			},
		},
		{
			name:   "buffer from another context",
			target: ErrForeignBuffer,
			run: func(t *testing.T, f *fixture) {
				other, _ := newTestContext(t, 0)
				foreign := NewSoundBuffer(other, FormatMono16, testRate, oneSecond)
				_, _ = f.pool.PlaySound(foreign, Vec3{}, Vec3{}, false, PriorityLow)
			},
		},
		{
			name:   "unknown priority",
			target: ErrInvalidPriority,
			run: func(t *testing.T, f *fixture) {
				_, _ = f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, Priority(7))
			},
		},
		{
			name:   "closed pool",
			target: ErrPoolClosed,
			run: func(t *testing.T, f *fixture) {
				require.NoError(t, f.pool.Close())
				_, _ = f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, PriorityLow)
			},
		},
		{
			name:   "closed context",
			target: ErrContextClosed,
			run: func(t *testing.T, f *fixture) {
				require.NoError(t, f.ctx.Close())
				_, _ = f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, PriorityLow)
			},
		},
		{
			name:   "control on closed context",
			target: ErrContextClosed,
			run: func(t *testing.T, f *fixture) {
				h := f.play(t, PriorityLow)
				require.NoError(t, f.ctx.Close())
				f.pool.Voice(h).Pause()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, PoolOptions{Capacity: 2})
			requireFatal(t, tt.target, func() { tt.run(t, f) })
		})
	}
}

func TestDeviceFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 2})
	lost := errors.NewStd("device lost")

	f.dev.FailNext("Play", lost)
	ee := requireFatal(t, lost, func() {
		_, _ = f.pool.PlaySound(f.buf, Vec3{}, Vec3{}, false, PriorityLow)
	})
	assert.Equal(t, errors.CategoryAudioDevice, ee.Category)
	assert.Equal(t, "default", ee.GetContext()["pool"])

	h := f.play(t, PriorityLow)
	f.dev.FailNext("Pause", lost)
	requireFatal(t, lost, func() { f.pool.Pause(h) })
}

func TestNewSourcePoolOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		ctx, _ := newTestContext(t, 0)
		pool, err := NewSourcePool(ctx, PoolOptions{})
		require.NoError(t, err)
		assert.Equal(t, DefaultCapacity, pool.Capacity())
		assert.Equal(t, DefaultHighPriorityCap, pool.HighPriorityCap())
		assert.Equal(t, DefaultPoolName, pool.Name())
		assert.Equal(t, "oldest", pool.Policy().Name())
		assert.Same(t, ctx, pool.Context())
	})

	t.Run("clamped to device", func(t *testing.T) {
		t.Parallel()
		ctx, dev := newTestContext(t, 4)
		pool, err := NewSourcePool(ctx, PoolOptions{Capacity: 10, HighPriorityCap: 8})
		require.NoError(t, err)
		assert.Equal(t, 4, pool.Capacity())
		assert.Equal(t, 4, pool.HighPriorityCap())
		assert.Equal(t, 4, dev.LiveSources())
	})

	t.Run("negative capacity", func(t *testing.T) {
		t.Parallel()
		ctx, _ := newTestContext(t, 0)
		_, err := NewSourcePool(ctx, PoolOptions{Capacity: -1})
		require.ErrorIs(t, err, ErrInvalidPoolOptions)
	})

	t.Run("device failure", func(t *testing.T) {
		t.Parallel()
		ctx, dev := newTestContext(t, 0)
		dev.FailNext("GenSources", errors.NewStd("no sources"))
		_, err := NewSourcePool(ctx, PoolOptions{Capacity: 2})
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryAudioDevice))
	})

	t.Run("closed context", func(t *testing.T) {
		t.Parallel()
		ctx, _ := newTestContext(t, 0)
		require.NoError(t, ctx.Close())
		_, err := NewSourcePool(ctx, PoolOptions{})
		require.ErrorIs(t, err, ErrContextClosed)
	})
}

func TestPoolCloseReleasesSources(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PoolOptions{Capacity: 3})
	h := f.play(t, PriorityLow)

	require.NoError(t, f.pool.Close())
	require.NoError(t, f.pool.Close())
	assert.Zero(t, f.dev.LiveSources())
	assert.False(t, f.live(h))
	assert.Equal(t, StateStopped, f.pool.State(h))
	assert.Zero(t, f.pool.Update())

	// the buffer is no longer attached anywhere
	require.NoError(t, f.buf.Close())
	assert.Zero(t, f.dev.LiveBuffers())
}
