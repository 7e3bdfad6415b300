package audiocore

import (
	"fmt"
	"strings"

	"github.com/tphakala/soundpool/internal/audiocore/device"
)

// Vec3 is a position, velocity or direction in listener space.
type Vec3 = device.Vec3

// Format is the PCM sample layout of a sound buffer.
type Format = device.Format

// Supported sample formats
const (
	FormatMono8    = device.FormatMono8
	FormatMono16   = device.FormatMono16
	FormatStereo8  = device.FormatStereo8
	FormatStereo16 = device.FormatStereo16
)

// FormatFor returns the format for a channel count and bit depth.
func FormatFor(channels, bitDepth int) (Format, error) {
	return device.FormatFor(channels, bitDepth)
}

// State is the playback state observed through a handle.
type State = device.SourceState

// Playback states
const (
	StateInitial = device.StateInitial
	StatePlaying = device.StatePlaying
	StatePaused  = device.StatePaused
	StateStopped = device.StateStopped
)

// Priority ranks sounds for eviction. Low sounds may be preempted; High
// sounds never are.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority converts "low" or "high" into a Priority.
func ParsePriority(name string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "low":
		return PriorityLow, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PriorityLow, fmt.Errorf("unknown priority %q", name)
	}
}
