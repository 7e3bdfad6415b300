package audiocore

import "time"

// Pool sizing defaults
const (
	// DefaultCapacity is the number of native sources a pool generates when none is configured
	DefaultCapacity = 32

	// DefaultHighPriorityCap is the content budget of concurrently active high priority sounds
	DefaultHighPriorityCap = 15

	// DefaultPoolName labels metrics and logs of a pool created without a name
	DefaultPoolName = "default"
)

// Rejection warning throttling
const (
	// RejectionWarnInterval is the minimum spacing between rejection warnings once the burst is spent
	RejectionWarnInterval = time.Second

	// RejectionWarnBurst is the number of rejection warnings logged back to back
	RejectionWarnBurst = 5
)

// Buffer kinds used as metric labels
const (
	bufferKindStatic   = "static"
	bufferKindStreamed = "streamed"
)
