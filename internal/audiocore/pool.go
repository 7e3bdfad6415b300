package audiocore

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/soundpool/internal/audiocore/device"
	"github.com/tphakala/soundpool/internal/errors"
	"github.com/tphakala/soundpool/internal/observability/metrics"
)

// PoolOptions configures a SourcePool.
type PoolOptions struct {
	// Name labels logs and metrics, defaults to DefaultPoolName.
	Name string
	// Capacity is the number of native sources, defaults to DefaultCapacity.
	// It is clamped to the maximum the device supports.
	Capacity int
	// HighPriorityCap bounds concurrently active high priority sounds,
	// defaults to DefaultHighPriorityCap. It may not exceed Capacity.
	HighPriorityCap int
	// Policy breaks ties between eviction candidates, defaults to EvictOldest.
	Policy EvictionPolicy
}

// PoolStats is a snapshot of pool occupancy and lifetime counters.
type PoolStats struct {
	Capacity        int
	HighPriorityCap int
	Occupied        int
	Active          int
	ActiveHigh      int
	ActiveLow       int
	Created         uint64
	Evicted         uint64
	Reclaimed       uint64
	Rejected        uint64
	Finished        uint64
}

type slot struct {
	source     device.SourceID
	generation uint64
	inUse      bool
	priority   Priority
	stopped    bool
	startSeq   uint64
	buffer     *SoundBuffer
}

func (s *slot) view(index int) SlotView {
	return SlotView{
		Index:    index,
		InUse:    s.inUse,
		Priority: s.priority,
		Stopped:  s.stopped,
		StartSeq: s.startSeq,
	}
}

func (s *slot) active() bool {
	return s.inUse && !s.stopped
}

// SourcePool maps play requests onto a fixed table of native sources.
//
// Every request gets a Handle carrying the slot index and the slot generation.
// Reassigning a slot bumps its generation, which turns all older handles for
// that slot stale; operations through a stale handle are no-ops and report
// StateStopped.
//
// A SourcePool is not safe for concurrent use. Wrap it with NewLocked when
// several goroutines drive it.
type SourcePool struct {
	ctx     *Context
	name    string
	policy  EvictionPolicy
	highCap int
	slots   []slot
	seq     uint64
	closed  bool

	created   uint64
	evicted   uint64
	reclaimed uint64
	rejected  uint64
	finished  uint64

	// completions latched by any poll and not yet reported by Update
	pendingFinished int

	logger      *slog.Logger
	warnLimiter *rate.Limiter
}

// NewSourcePool generates the native sources of a new pool and registers the
// pool with ctx so that closing the context releases it.
func NewSourcePool(ctx *Context, opts PoolOptions) (*SourcePool, error) {
	if ctx == nil || ctx.closed {
		return nil, ErrContextClosed
	}

	name := opts.Name
	if name == "" {
		name = DefaultPoolName
	}
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	highCap := opts.HighPriorityCap
	if highCap == 0 {
		highCap = DefaultHighPriorityCap
	}
	if capacity < 0 || highCap < 0 {
		return nil, errors.New(ErrInvalidPoolOptions).
			Component(ComponentAudioCore).
			Context("pool", name).
			Context("capacity", capacity).
			Context("high_priority_cap", highCap).
			Build()
	}

	logger := ctx.base.With("component", "source_pool", "pool", name)

	if limit := ctx.dev.MaxSources(); capacity > limit {
		logger.Warn("pool capacity exceeds device limit, clamping",
			"requested", capacity,
			"max_sources", limit)
		capacity = limit
	}
	if highCap > capacity {
		if opts.HighPriorityCap != 0 {
			logger.Warn("high priority cap exceeds pool capacity, clamping",
				"requested", highCap,
				"capacity", capacity)
		}
		highCap = capacity
	}

	ids, err := ctx.dev.GenSources(capacity)
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentAudioCore).
			Category(errors.CategoryAudioDevice).
			Context("operation", "new_source_pool").
			Context("pool", name).
			Context("capacity", capacity).
			Build()
	}

	p := &SourcePool{
		ctx:         ctx,
		name:        name,
		policy:      opts.Policy,
		highCap:     highCap,
		slots:       make([]slot, capacity),
		logger:      logger,
		warnLimiter: rate.NewLimiter(rate.Every(RejectionWarnInterval), RejectionWarnBurst),
	}
	for i, id := range ids {
		p.slots[i].source = id
	}
	ctx.registerPool(p)
	p.publish()

	logger.Info("source pool created",
		"capacity", capacity,
		"high_priority_cap", highCap,
		"eviction_policy", p.policy.Name())
	return p, nil
}

// Name returns the pool name
func (p *SourcePool) Name() string { return p.name }

// Capacity returns the number of slots
func (p *SourcePool) Capacity() int { return len(p.slots) }

// HighPriorityCap returns the high priority budget
func (p *SourcePool) HighPriorityCap() int { return p.highCap }

// Policy returns the eviction tie-break policy
func (p *SourcePool) Policy() EvictionPolicy { return p.policy }

// Context returns the owning context
func (p *SourcePool) Context() *Context { return p.ctx }

// PlaySound binds buf to a slot, applies the spatial attributes and starts
// playback.
//
// A low priority request that finds every slot held by an active high
// priority sound returns the zero Handle and ErrNoSlotAvailable; nothing
// plays. A high priority request while the high priority budget is spent
// panics, as does any request on a closed context or with an unusable buffer.
func (p *SourcePool) PlaySound(buf *SoundBuffer, position, velocity Vec3, looping bool, priority Priority) (Handle, error) {
	const op = "play_sound"
	start := time.Now()

	p.ctx.mustBeActive(op)
	if p.closed {
		p.fatal(op, ErrPoolClosed)
	}
	p.checkBuffer(op, buf)
	if priority != PriorityLow && priority != PriorityHigh {
		p.fatal(op, ErrInvalidPriority, "priority", int(priority))
	}

	p.refresh()

	if priority == PriorityHigh {
		if active := p.activeHigh(); active >= p.highCap {
			p.fatal(op, ErrHighPriorityBudget,
				"active_high", active,
				"high_priority_cap", p.highCap)
		}
	}

	index, selection := SelectSlot(p.views(), p.policy)
	if selection == SelectNone {
		if priority == PriorityHigh {
			p.fatal(op, ErrNoSlotAvailable, "capacity", len(p.slots))
		}
		p.reject()
		return Handle{}, ErrNoSlotAvailable
	}

	s := &p.slots[index]
	if s.inUse {
		p.vacate(op, index, selection)
	}

	s.generation++
	s.inUse = true
	s.priority = priority
	s.stopped = false
	s.buffer = buf
	p.seq++
	s.startSeq = p.seq

	p.bind(op, s, buf)
	p.deviceCall(op, p.ctx.dev.SetSourceVec(s.source, device.SourcePosition, position))
	p.deviceCall(op, p.ctx.dev.SetSourceVec(s.source, device.SourceVelocity, velocity))
	p.deviceCall(op, p.ctx.dev.SetSourceFloat(s.source, device.SourceGain, 1))
	p.deviceCall(op, p.ctx.dev.SetLooping(s.source, looping))
	p.deviceCall(op, p.ctx.dev.Play(s.source))

	p.created++
	h := Handle{slot: uint32(index), generation: s.generation}

	p.ctx.metrics.recordPlayRequest(p.name, priority, outcomeFor(selection))
	p.ctx.metrics.recordAllocation(p.name, time.Since(start).Seconds())
	p.publish()

	p.logger.Debug("sound started",
		"handle", h.String(),
		"priority", priority.String(),
		"selection", selection.String(),
		"looping", looping,
		"streamed", buf.streamed)
	return h, nil
}

// Resolve returns the native source of h while h is live.
func (p *SourcePool) Resolve(h Handle) (device.SourceID, bool) {
	s, ok := p.lookup(h)
	if !ok {
		return 0, false
	}
	return s.source, true
}

// Play resumes a paused or rewound sound.
func (p *SourcePool) Play(h Handle) {
	const op = "play"
	s, ok := p.control(op, h)
	if !ok {
		return
	}
	switch p.poll(op, s) {
	case StatePaused, StateInitial:
		p.deviceCall(op, p.ctx.dev.Play(s.source), "handle", h.String())
	}
}

// Pause pauses a playing sound.
func (p *SourcePool) Pause(h Handle) {
	const op = "pause"
	s, ok := p.control(op, h)
	if !ok {
		return
	}
	if p.poll(op, s) == StatePlaying {
		p.deviceCall(op, p.ctx.dev.Pause(s.source), "handle", h.String())
	}
}

// Stop stops the sound. The handle stays live but reports StateStopped until
// its slot is reassigned.
func (p *SourcePool) Stop(h Handle) {
	const op = "stop"
	s, ok := p.control(op, h)
	if !ok {
		return
	}
	p.deviceCall(op, p.ctx.dev.Stop(s.source), "handle", h.String())
	s.stopped = true
	p.publish()
}

// Rewind moves the sound back to its start. A playing sound keeps playing
// from the start; a paused sound waits in StateInitial for Play.
func (p *SourcePool) Rewind(h Handle) {
	const op = "rewind"
	s, ok := p.control(op, h)
	if !ok {
		return
	}
	switch p.poll(op, s) {
	case StatePlaying:
		p.deviceCall(op, p.ctx.dev.Rewind(s.source), "handle", h.String())
		p.deviceCall(op, p.ctx.dev.Play(s.source), "handle", h.String())
	case StatePaused:
		p.deviceCall(op, p.ctx.dev.Rewind(s.source), "handle", h.String())
	}
}

// State returns the playback state of h. Stale handles report StateStopped.
func (p *SourcePool) State(h Handle) State {
	const op = "state"
	p.ctx.mustBeActive(op)
	s, ok := p.lookup(h)
	if !ok || s.stopped {
		return StateStopped
	}
	return p.poll(op, s)
}

// IsActive reports whether h is playing or paused.
func (p *SourcePool) IsActive(h Handle) bool {
	switch p.State(h) {
	case StatePlaying, StatePaused:
		return true
	default:
		return false
	}
}

// SetPosition moves the sound of h.
func (p *SourcePool) SetPosition(h Handle, position Vec3) {
	const op = "set_position"
	if s, ok := p.attribute(op, h); ok {
		p.deviceCall(op, p.ctx.dev.SetSourceVec(s.source, device.SourcePosition, position), "handle", h.String())
	}
}

// SetVelocity sets the velocity of the sound of h.
func (p *SourcePool) SetVelocity(h Handle, velocity Vec3) {
	const op = "set_velocity"
	if s, ok := p.attribute(op, h); ok {
		p.deviceCall(op, p.ctx.dev.SetSourceVec(s.source, device.SourceVelocity, velocity), "handle", h.String())
	}
}

// SetGain sets the gain of the sound of h. Negative gains are rejected by the
// device and therefore fatal.
func (p *SourcePool) SetGain(h Handle, gain float32) {
	const op = "set_gain"
	if s, ok := p.attribute(op, h); ok {
		p.deviceCall(op, p.ctx.dev.SetSourceFloat(s.source, device.SourceGain, gain), "handle", h.String())
	}
}

// SetLooping switches looping of the sound of h.
func (p *SourcePool) SetLooping(h Handle, looping bool) {
	const op = "set_looping"
	if s, ok := p.attribute(op, h); ok {
		p.deviceCall(op, p.ctx.dev.SetLooping(s.source, looping), "handle", h.String())
	}
}

// QueueChunks appends chunks of the streamed buffer bound to h to the play
// queue, in the given order. Chunks returned by ProcessedChunks may be queued
// again. Queuing on a whole-asset buffer or an index out of range panics.
func (p *SourcePool) QueueChunks(h Handle, indices ...int) {
	const op = "queue_chunks"
	s, ok := p.control(op, h)
	if !ok || len(indices) == 0 {
		return
	}
	buf := p.streamedBuffer(op, s)
	ids := make([]device.BufferID, len(indices))
	for i, index := range indices {
		ids[i] = buf.chunk(op, index)
	}
	p.deviceCall(op, p.ctx.dev.QueueBuffers(s.source, ids), "handle", h.String())
}

// ProcessedChunks unqueues the chunks the device has finished playing and
// returns their indices. Stale handles yield nil.
func (p *SourcePool) ProcessedChunks(h Handle) []int {
	const op = "processed_chunks"
	p.ctx.mustBeActive(op)
	s, ok := p.lookup(h)
	if !ok {
		p.stale(op)
		return nil
	}
	buf := p.streamedBuffer(op, s)
	ids, err := p.ctx.dev.UnqueueProcessed(s.source)
	p.deviceCall(op, err, "handle", h.String())

	indices := make([]int, 0, len(ids))
	for _, id := range ids {
		if i := buf.chunkIndex(id); i >= 0 {
			indices = append(indices, i)
		}
	}
	return indices
}

// Update polls the device once per frame, latches sounds that finished on
// their own and refreshes metrics. It returns the number of sounds that
// finished since the previous Update, including completions noticed by
// PlaySound or State in between.
func (p *SourcePool) Update() int {
	p.ctx.mustBeActive("update")
	if p.closed {
		return 0
	}
	p.refresh()
	p.publish()
	n := p.pendingFinished
	p.pendingFinished = 0
	return n
}

// StopAll stops every active sound.
func (p *SourcePool) StopAll() {
	const op = "stop_all"
	p.ctx.mustBeActive(op)
	if p.closed {
		return
	}
	stopped := 0
	for i := range p.slots {
		s := &p.slots[i]
		if !s.active() {
			continue
		}
		p.deviceCall(op, p.ctx.dev.Stop(s.source), "slot", i)
		s.stopped = true
		stopped++
	}
	p.publish()
	p.logger.Debug("stopped all sounds", "stopped", stopped)
}

// Stats returns a snapshot of the pool.
func (p *SourcePool) Stats() PoolStats {
	stats := PoolStats{
		Capacity:        len(p.slots),
		HighPriorityCap: p.highCap,
		Created:         p.created,
		Evicted:         p.evicted,
		Reclaimed:       p.reclaimed,
		Rejected:        p.rejected,
		Finished:        p.finished,
	}
	for i := range p.slots {
		s := &p.slots[i]
		if !s.inUse {
			continue
		}
		stats.Occupied++
		if s.stopped {
			continue
		}
		stats.Active++
		if s.priority == PriorityHigh {
			stats.ActiveHigh++
		} else {
			stats.ActiveLow++
		}
	}
	return stats
}

// Close stops every sound and deletes the native sources. Every handle of
// the pool turns stale. Closing twice, or after the context was closed, is a
// no-op.
func (p *SourcePool) Close() error {
	if p.closed || p.ctx.closed {
		return nil
	}
	p.ctx.unregisterPool(p)
	if err := p.release(); err != nil {
		return errors.New(err).
			Component(ComponentAudioCore).
			Category(errors.CategoryAudioDevice).
			Context("operation", "close_source_pool").
			Context("pool", p.name).
			Build()
	}
	return nil
}

// release deletes the native sources without panicking, so that context
// shutdown can continue past a failing pool.
func (p *SourcePool) release() error {
	if p.closed {
		return nil
	}
	p.closed = true

	ids := make([]device.SourceID, len(p.slots))
	for i := range p.slots {
		s := &p.slots[i]
		ids[i] = s.source
		if s.active() {
			_ = p.ctx.dev.Stop(s.source)
		}
		s.inUse = false
		s.stopped = false
		s.buffer = nil
	}
	err := p.ctx.dev.DeleteSources(ids)

	p.ctx.metrics.recordSlots(p.name, PoolStats{})
	p.logger.Info("source pool closed",
		"created", p.created,
		"evicted", p.evicted,
		"rejected", p.rejected)
	return err
}

// detachBuffer stops every slot playing buf and unbinds it, so that its
// native buffers can be deleted. The affected handles stay live and report
// StateStopped.
func (p *SourcePool) detachBuffer(buf *SoundBuffer) {
	const op = "detach_buffer"
	if p.closed {
		return
	}
	for i := range p.slots {
		s := &p.slots[i]
		if s.buffer != buf {
			continue
		}
		if s.active() {
			p.deviceCall(op, p.ctx.dev.Stop(s.source), "slot", i)
			s.stopped = true
		}
		p.deviceCall(op, p.ctx.dev.SetBuffer(s.source, 0), "slot", i)
		s.buffer = nil
	}
	p.publish()
}

// lookup returns the slot of h while h is live
func (p *SourcePool) lookup(h Handle) (*slot, bool) {
	if p.closed || h.generation == 0 || int(h.slot) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[h.slot]
	if !s.inUse || s.generation != h.generation {
		return nil, false
	}
	return s, true
}

// control resolves h for a state changing operation. Stopped sounds are
// terminal, so only live handles of active slots pass.
func (p *SourcePool) control(op string, h Handle) (*slot, bool) {
	p.ctx.mustBeActive(op)
	s, ok := p.lookup(h)
	if !ok {
		p.stale(op)
		return nil, false
	}
	if s.stopped {
		return nil, false
	}
	return s, true
}

// attribute resolves h for a spatial or gain update
func (p *SourcePool) attribute(op string, h Handle) (*slot, bool) {
	p.ctx.mustBeActive(op)
	s, ok := p.lookup(h)
	if !ok {
		p.stale(op)
		return nil, false
	}
	return s, true
}

// poll reads the device state of an active slot and latches natural completion
func (p *SourcePool) poll(op string, s *slot) State {
	state, err := p.ctx.dev.State(s.source)
	p.deviceCall(op, err)
	if state == StateStopped {
		s.stopped = true
		p.finished++
		p.pendingFinished++
		p.ctx.metrics.recordFinished(p.name, 1)
	}
	return state
}

// refresh polls every active slot
func (p *SourcePool) refresh() {
	for i := range p.slots {
		if s := &p.slots[i]; s.active() {
			p.poll("refresh", s)
		}
	}
}

func (p *SourcePool) activeHigh() int {
	n := 0
	for i := range p.slots {
		if s := &p.slots[i]; s.active() && s.priority == PriorityHigh {
			n++
		}
	}
	return n
}

func (p *SourcePool) views() []SlotView {
	views := make([]SlotView, len(p.slots))
	for i := range p.slots {
		views[i] = p.slots[i].view(i)
	}
	return views
}

// vacate stops the previous occupant of a slot selected for reuse
func (p *SourcePool) vacate(op string, index int, selection Selection) {
	s := &p.slots[index]
	previous := Handle{slot: uint32(index), generation: s.generation}
	if !s.stopped {
		p.deviceCall(op, p.ctx.dev.Stop(s.source), "slot", index)
	}

	switch selection {
	case SelectEvict:
		p.evicted++
		p.logger.Debug("evicting low priority sound",
			"handle", previous.String(),
			"policy", p.policy.Name())
	case SelectReclaim:
		p.reclaimed++
	}
}

// bind attaches buf to a stopped or fresh source
func (p *SourcePool) bind(op string, s *slot, buf *SoundBuffer) {
	p.deviceCall(op, p.ctx.dev.SetBuffer(s.source, 0))
	if buf.streamed {
		p.deviceCall(op, p.ctx.dev.QueueBuffers(s.source, buf.ids), "chunks", len(buf.ids))
		return
	}
	p.deviceCall(op, p.ctx.dev.SetBuffer(s.source, buf.ids[0]))
}

func (p *SourcePool) checkBuffer(op string, buf *SoundBuffer) {
	switch {
	case buf == nil:
		p.fatal(op, ErrNilBuffer)
	case buf.ctx != p.ctx:
		p.fatal(op, ErrForeignBuffer)
	case buf.released:
		p.fatal(op, ErrBufferReleased)
	}
}

func (p *SourcePool) streamedBuffer(op string, s *slot) *SoundBuffer {
	if s.buffer == nil {
		p.fatal(op, ErrBufferReleased)
	}
	if !s.buffer.streamed {
		p.fatal(op, ErrNotStreamed)
	}
	return s.buffer
}

// reject records a low priority request that found no slot
func (p *SourcePool) reject() {
	p.rejected++
	p.ctx.metrics.recordPlayRequest(p.name, PriorityLow, metrics.OutcomeRejected)
	if p.warnLimiter.Allow() {
		p.logger.Warn("no slot available for low priority sound",
			"capacity", len(p.slots),
			"active_high", p.activeHigh(),
			"rejected_total", p.rejected)
	}
}

func (p *SourcePool) stale(op string) {
	p.ctx.metrics.recordStaleHandle(p.name, op)
}

func (p *SourcePool) publish() {
	p.ctx.metrics.recordSlots(p.name, p.Stats())
}

func (p *SourcePool) fatal(op string, cause error, attrs ...any) {
	p.ctx.fatal(op, cause, "", append([]any{"pool", p.name}, attrs...)...)
}

func (p *SourcePool) deviceCall(op string, err error, attrs ...any) {
	if err != nil {
		p.ctx.fatal(op, err, errors.CategoryAudioDevice, append([]any{"pool", p.name}, attrs...)...)
	}
}

func outcomeFor(selection Selection) string {
	switch selection {
	case SelectReclaim:
		return metrics.OutcomeReclaimed
	case SelectEvict:
		return metrics.OutcomeEvicted
	default:
		return metrics.OutcomeFree
	}
}
