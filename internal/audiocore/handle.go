package audiocore

import "fmt"

// Handle identifies one playback request: the slot it was assigned and the
// slot generation at that time. Handles are plain values; copies observe the
// same liveness. The zero Handle is never live.
//
// Generations are 64 bit and start at 1, so a slot never issues the same
// generation twice.
type Handle struct {
	slot       uint32
	generation uint64
}

// Slot returns the slot index
func (h Handle) Slot() int { return int(h.slot) }

// Generation returns the slot generation the handle was issued for
func (h Handle) Generation() uint64 { return h.generation }

// IsZero reports whether h is the zero Handle returned by rejected requests
func (h Handle) IsZero() bool { return h.generation == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.slot, h.generation)
}

// Voice binds a handle to its pool so controls read as methods.
type Voice struct {
	pool   *SourcePool
	handle Handle
}

// Voice returns a Voice for h.
func (p *SourcePool) Voice(h Handle) Voice {
	return Voice{pool: p, handle: h}
}

// Handle returns the wrapped handle
func (v Voice) Handle() Handle { return v.handle }

// Play resumes a paused or rewound sound
func (v Voice) Play() { v.pool.Play(v.handle) }

// Pause pauses a playing sound
func (v Voice) Pause() { v.pool.Pause(v.handle) }

// Stop stops the sound for good
func (v Voice) Stop() { v.pool.Stop(v.handle) }

// Rewind moves the sound back to its start
func (v Voice) Rewind() { v.pool.Rewind(v.handle) }

// State returns the current playback state
func (v Voice) State() State { return v.pool.State(v.handle) }

// IsActive reports whether the sound is playing or paused
func (v Voice) IsActive() bool { return v.pool.IsActive(v.handle) }

// SetPosition moves the sound
func (v Voice) SetPosition(pos Vec3) { v.pool.SetPosition(v.handle, pos) }

// SetVelocity sets the sound velocity
func (v Voice) SetVelocity(vel Vec3) { v.pool.SetVelocity(v.handle, vel) }

// SetGain sets the sound gain
func (v Voice) SetGain(gain float32) { v.pool.SetGain(v.handle, gain) }
