// Package metrics provides Prometheus metric definitions for the sound pool runtime.
package metrics

import "time"

// Allocation outcomes recorded for every play request.
const (
	// OutcomeFree is a request served by a never used slot.
	OutcomeFree = "free"
	// OutcomeReclaimed is a request served by a slot whose occupant had stopped.
	OutcomeReclaimed = "reclaimed"
	// OutcomeEvicted is a request served by stopping a playing low priority occupant.
	OutcomeEvicted = "evicted"
	// OutcomeRejected is a low priority request dropped for lack of a slot.
	OutcomeRejected = "rejected"
)

// Cache lookup results for the sound bank.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

const (
	// ShutdownTimeout is the timeout for graceful shutdown operations.
	ShutdownTimeout = 5 * time.Second
)
