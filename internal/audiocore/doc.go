// Package audiocore manages a fixed table of native playback sources shared by
// many short-lived sounds.
//
// A Context owns the device for the lifetime of the process. A SourcePool
// generates a fixed number of native sources up front and hands them out to
// PlaySound requests. Every request returns a Handle, a value made of the slot
// index and the slot generation at creation time. Reassigning a slot bumps its
// generation so older handles become stale: operations through them are
// no-ops and their state reads as stopped.
//
// When every slot is in use the pool picks a victim with an EvictionPolicy.
// Stopped occupants are reclaimed first, then playing low priority ones. High
// priority sounds are never evicted and are limited by a configurable budget.
//
// Contract violations such as using a closed context, exceeding the high
// priority budget, malformed buffers or device failures are not recoverable:
// they are logged at FATAL level, reported to telemetry and raised as a panic
// carrying an *errors.EnhancedError. A low priority request that finds no slot
// returns ErrNoSlotAvailable instead.
//
// The pool is not safe for concurrent use. Wrap it with NewLocked when sounds
// are triggered from several goroutines.
package audiocore
