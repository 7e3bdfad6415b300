package audiocore

import (
	"fmt"
	"strings"
)

// SlotView is the part of a slot the selection policy looks at.
type SlotView struct {
	Index    int
	InUse    bool
	Priority Priority
	// Stopped is set once the occupant was stopped or finished playing.
	Stopped bool
	// StartSeq orders occupants by the time they were started.
	StartSeq uint64
}

// Selection says how a slot was chosen.
type Selection int

const (
	SelectNone Selection = iota
	SelectFree
	SelectReclaim
	SelectEvict
)

func (s Selection) String() string {
	switch s {
	case SelectNone:
		return "none"
	case SelectFree:
		return "free"
	case SelectReclaim:
		return "reclaim"
	case SelectEvict:
		return "evict"
	default:
		return fmt.Sprintf("selection(%d)", int(s))
	}
}

// EvictionPolicy breaks ties between equally eligible eviction candidates.
// The zero value behaves like EvictOldest.
type EvictionPolicy struct {
	name   string
	prefer func(a, b SlotView) bool
}

// Built-in tie-break policies
var (
	// EvictOldest prefers the occupant that started first
	EvictOldest = EvictionPolicy{name: "oldest", prefer: func(a, b SlotView) bool { return a.StartSeq < b.StartSeq }}
	// EvictNewest prefers the occupant that started last
	EvictNewest = EvictionPolicy{name: "newest", prefer: func(a, b SlotView) bool { return a.StartSeq > b.StartSeq }}
	// EvictLowestIndex prefers the lowest slot index
	EvictLowestIndex = EvictionPolicy{name: "lowest-index", prefer: func(a, b SlotView) bool { return a.Index < b.Index }}
)

// NewEvictionPolicy builds a custom policy. prefer reports whether a should
// be evicted before b.
func NewEvictionPolicy(name string, prefer func(a, b SlotView) bool) EvictionPolicy {
	return EvictionPolicy{name: name, prefer: prefer}
}

// ParseEvictionPolicy returns the built-in policy with the given name.
func ParseEvictionPolicy(name string) (EvictionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EvictOldest.name:
		return EvictOldest, nil
	case EvictNewest.name:
		return EvictNewest, nil
	case EvictLowestIndex.name:
		return EvictLowestIndex, nil
	default:
		return EvictionPolicy{}, fmt.Errorf("unknown eviction policy %q", name)
	}
}

// Name returns the policy name
func (p EvictionPolicy) Name() string {
	if p.prefer == nil {
		return EvictOldest.name
	}
	return p.name
}

func (p EvictionPolicy) preferFunc() func(a, b SlotView) bool {
	if p.prefer == nil {
		return EvictOldest.prefer
	}
	return p.prefer
}

// SelectSlot picks the slot for a new sound. It has no side effects.
//
// A free slot wins, lowest index first. Otherwise a stopped occupant of any
// priority is reclaimed, then a playing or paused low priority occupant is
// evicted; the policy breaks ties within each group. High priority occupants
// that are still active are never selected, so SelectNone means every slot
// holds an active high priority sound.
func SelectSlot(slots []SlotView, policy EvictionPolicy) (int, Selection) {
	for _, s := range slots {
		if !s.InUse {
			return s.Index, SelectFree
		}
	}

	prefer := policy.preferFunc()
	pick := func(eligible func(SlotView) bool) int {
		best := -1
		for i, s := range slots {
			if eligible(s) && (best < 0 || prefer(s, slots[best])) {
				best = i
			}
		}
		return best
	}

	if i := pick(func(s SlotView) bool { return s.Stopped }); i >= 0 {
		return slots[i].Index, SelectReclaim
	}
	if i := pick(func(s SlotView) bool { return s.Priority == PriorityLow }); i >= 0 {
		return slots[i].Index, SelectEvict
	}
	return -1, SelectNone
}
