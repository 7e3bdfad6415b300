// Package sim provides a deterministic in-memory playback device.
//
// Time only moves when Advance is called. A playing source finishes once the
// simulated clock has covered the duration of its queued buffers, which is
// derived from the buffer size, format and sample rate. Looping sources never
// finish on their own.
package sim

import (
	"sync"
	"time"

	"github.com/tphakala/soundpool/internal/audiocore/device"
	"github.com/tphakala/soundpool/internal/errors"
)

// BackendName is the name the simulated backend registers under.
const BackendName = "sim"

// DefaultMaxSources matches the mono source count typical OpenAL Soft builds report.
const DefaultMaxSources = 255

func init() {
	device.Register(BackendName, func(opts device.Options) (device.Device, error) {
		return New(opts.MaxSources), nil
	})
}

type buffer struct {
	format     device.Format
	sampleRate int
	size       int
	attached   int
}

func (b *buffer) duration() time.Duration {
	if b.sampleRate <= 0 || !b.format.Valid() {
		return 0
	}
	frames := int64(b.size / b.format.FrameSize())
	return time.Duration(frames * int64(time.Second) / int64(b.sampleRate))
}

type source struct {
	state   device.SourceState
	looping bool
	static  bool
	queue   []device.BufferID
	offset  time.Duration
	vecs    map[device.SourceParam]device.Vec3
	floats  map[device.SourceParam]float32
	plays   int
}

// SourceInfo is a snapshot of a simulated source.
type SourceInfo struct {
	State    device.SourceState
	Looping  bool
	Queue    []device.BufferID
	Offset   time.Duration
	Position device.Vec3
	Velocity device.Vec3
	Gain     float32
	Plays    int
}

// ListenerInfo is a snapshot of the simulated listener.
type ListenerInfo struct {
	Position device.Vec3
	Velocity device.Vec3
	At       device.Vec3
	Up       device.Vec3
	Gain     float32
}

// Device is a simulated playback device.
type Device struct {
	mu         sync.Mutex
	maxSources int
	now        time.Duration
	nextSource uint32
	nextBuffer uint32
	sources    map[device.SourceID]*source
	buffers    map[device.BufferID]*buffer
	listener   ListenerInfo
	failures   map[string]error
	closed     bool
}

// New returns a simulated device exposing maxSources sources. Values below
// one select DefaultMaxSources.
func New(maxSources int) *Device {
	if maxSources < 1 {
		maxSources = DefaultMaxSources
	}
	return &Device{
		maxSources: maxSources,
		sources:    make(map[device.SourceID]*source),
		buffers:    make(map[device.BufferID]*buffer),
		failures:   make(map[string]error),
		listener: ListenerInfo{
			At:   device.Vec3{Z: -1},
			Up:   device.Vec3{Y: 1},
			Gain: 1,
		},
	}
}

// Name implements device.Device
func (d *Device) Name() string { return "simulated" }

// MaxSources implements device.Device
func (d *Device) MaxSources() int { return d.maxSources }

// FailNext makes the next call of the named operation return err.
// Operation names match the device.Device method names.
func (d *Device) FailNext(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op] = err
}

// Advance moves the simulated clock forward and lets playing sources progress.
func (d *Device) Advance(dt time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.now += dt
	for _, s := range d.sources {
		if s.state == device.StatePlaying {
			d.progress(s, dt)
		}
	}
}

// Now returns the simulated time elapsed since the device was created.
func (d *Device) Now() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now
}

// Source returns a snapshot of a live source.
func (d *Device) Source(id device.SourceID) (SourceInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sources[id]
	if !ok {
		return SourceInfo{}, false
	}
	return SourceInfo{
		State:    s.state,
		Looping:  s.looping,
		Queue:    append([]device.BufferID(nil), s.queue...),
		Offset:   s.offset,
		Position: s.vecs[device.SourcePosition],
		Velocity: s.vecs[device.SourceVelocity],
		Gain:     s.floats[device.SourceGain],
		Plays:    s.plays,
	}, true
}

// Listener returns a snapshot of the listener.
func (d *Device) Listener() ListenerInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listener
}

// LiveSources returns the number of generated, undeleted sources.
func (d *Device) LiveSources() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sources)
}

// LiveBuffers returns the number of generated, undeleted buffers.
func (d *Device) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// Closed reports whether Close has been called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// GenSources implements device.Device
func (d *Device) GenSources(n int) ([]device.SourceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check("GenSources"); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, invalidValue("GenSources", "n", n)
	}
	if len(d.sources)+n > d.maxSources {
		return nil, errors.Newf("sim: out of sources").
			Component("device").
			Category(errors.CategoryResource).
			Context("operation", "GenSources").
			Context("requested", n).
			Context("available", d.maxSources-len(d.sources)).
			Build()
	}

	ids := make([]device.SourceID, n)
	for i := range ids {
		d.nextSource++
		id := device.SourceID(d.nextSource)
		d.sources[id] = &source{
			vecs:   make(map[device.SourceParam]device.Vec3),
			floats: map[device.SourceParam]float32{device.SourceGain: 1, device.SourcePitch: 1},
		}
		ids[i] = id
	}
	return ids, nil
}

// DeleteSources implements device.Device
func (d *Device) DeleteSources(ids []device.SourceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check("DeleteSources"); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := d.sources[id]; !ok {
			return invalidName("DeleteSources", "source", uint32(id))
		}
	}
	for _, id := range ids {
		d.detach(d.sources[id])
		delete(d.sources, id)
	}
	return nil
}

// GenBuffers implements device.Device
func (d *Device) GenBuffers(n int) ([]device.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check("GenBuffers"); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, invalidValue("GenBuffers", "n", n)
	}

	ids := make([]device.BufferID, n)
	for i := range ids {
		d.nextBuffer++
		id := device.BufferID(d.nextBuffer)
		d.buffers[id] = &buffer{}
		ids[i] = id
	}
	return ids, nil
}

// DeleteBuffers implements device.Device
func (d *Device) DeleteBuffers(ids []device.BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check("DeleteBuffers"); err != nil {
		return err
	}
	for _, id := range ids {
		b, ok := d.buffers[id]
		if !ok {
			return invalidName("DeleteBuffers", "buffer", uint32(id))
		}
		if b.attached > 0 {
			return invalidOperation("DeleteBuffers", "buffer still attached to a source")
		}
	}
	for _, id := range ids {
		delete(d.buffers, id)
	}
	return nil
}

// BufferData implements device.Device
func (d *Device) BufferData(id device.BufferID, format device.Format, data []byte, sampleRate int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check("BufferData"); err != nil {
		return err
	}
	b, ok := d.buffers[id]
	if !ok {
		return invalidName("BufferData", "buffer", uint32(id))
	}
	if !format.Valid() {
		return invalidValue("BufferData", "format", int(format))
	}
	if sampleRate <= 0 {
		return invalidValue("BufferData", "sample_rate", sampleRate)
	}
	if len(data)%format.FrameSize() != 0 {
		return invalidValue("BufferData", "size", len(data))
	}
	if b.attached > 0 {
		return invalidOperation("BufferData", "buffer attached to a source")
	}
	b.format = format
	b.sampleRate = sampleRate
	b.size = len(data)
	return nil
}

// SetBuffer implements device.Device
func (d *Device) SetBuffer(src device.SourceID, buf device.BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("SetBuffer", src)
	if err != nil {
		return err
	}
	if s.state == device.StatePlaying || s.state == device.StatePaused {
		return invalidOperation("SetBuffer", "source is "+s.state.String())
	}
	if buf != 0 {
		if _, ok := d.buffers[buf]; !ok {
			return invalidName("SetBuffer", "buffer", uint32(buf))
		}
	}

	d.detach(s)
	if buf != 0 {
		d.buffers[buf].attached++
		s.queue = []device.BufferID{buf}
		s.static = true
	}
	return nil
}

// QueueBuffers implements device.Device
func (d *Device) QueueBuffers(src device.SourceID, bufs []device.BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("QueueBuffers", src)
	if err != nil {
		return err
	}
	if s.static {
		return invalidOperation("QueueBuffers", "source has a static buffer")
	}
	for _, id := range bufs {
		if _, ok := d.buffers[id]; !ok {
			return invalidName("QueueBuffers", "buffer", uint32(id))
		}
	}
	for _, id := range bufs {
		d.buffers[id].attached++
		s.queue = append(s.queue, id)
	}
	return nil
}

// UnqueueProcessed implements device.Device
func (d *Device) UnqueueProcessed(src device.SourceID) ([]device.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("UnqueueProcessed", src)
	if err != nil {
		return nil, err
	}
	if s.static {
		return nil, invalidOperation("UnqueueProcessed", "source has a static buffer")
	}

	var done []device.BufferID
	for len(s.queue) > 0 {
		b := d.buffers[s.queue[0]]
		dur := b.duration()
		if s.offset < dur || (s.looping && s.state != device.StateStopped) {
			break
		}
		s.offset -= dur
		b.attached--
		done = append(done, s.queue[0])
		s.queue = s.queue[1:]
	}
	return done, nil
}

// Play implements device.Device
func (d *Device) Play(src device.SourceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("Play", src)
	if err != nil {
		return err
	}
	if s.state != device.StatePaused {
		s.offset = 0
	}
	s.plays++
	s.state = device.StatePlaying
	if d.queueDuration(s) == 0 {
		s.state = device.StateStopped
	}
	return nil
}

// Pause implements device.Device
func (d *Device) Pause(src device.SourceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("Pause", src)
	if err != nil {
		return err
	}
	if s.state == device.StatePlaying {
		s.state = device.StatePaused
	}
	return nil
}

// Stop implements device.Device
func (d *Device) Stop(src device.SourceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("Stop", src)
	if err != nil {
		return err
	}
	s.state = device.StateStopped
	s.offset = d.queueDuration(s)
	return nil
}

// Rewind implements device.Device
func (d *Device) Rewind(src device.SourceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("Rewind", src)
	if err != nil {
		return err
	}
	s.state = device.StateInitial
	s.offset = 0
	return nil
}

// State implements device.Device
func (d *Device) State(src device.SourceID) (device.SourceState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("State", src)
	if err != nil {
		return device.StateStopped, err
	}
	return s.state, nil
}

// SetSourceVec implements device.Device
func (d *Device) SetSourceVec(src device.SourceID, param device.SourceParam, v device.Vec3) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("SetSourceVec", src)
	if err != nil {
		return err
	}
	switch param {
	case device.SourcePosition, device.SourceVelocity, device.SourceDirection:
		s.vecs[param] = v
		return nil
	default:
		return invalidValue("SetSourceVec", "param", int(param))
	}
}

// SetSourceFloat implements device.Device
func (d *Device) SetSourceFloat(src device.SourceID, param device.SourceParam, value float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("SetSourceFloat", src)
	if err != nil {
		return err
	}
	switch param {
	case device.SourceGain, device.SourcePitch, device.SourceReferenceDistance,
		device.SourceRolloffFactor, device.SourceMaxDistance:
		if value < 0 {
			return invalidValue("SetSourceFloat", "value", int(value))
		}
		s.floats[param] = value
		return nil
	default:
		return invalidValue("SetSourceFloat", "param", int(param))
	}
}

// SetLooping implements device.Device
func (d *Device) SetLooping(src device.SourceID, looping bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.source("SetLooping", src)
	if err != nil {
		return err
	}
	s.looping = looping
	return nil
}

// SetListenerVec implements device.Device
func (d *Device) SetListenerVec(param device.ListenerParam, v device.Vec3) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check("SetListenerVec"); err != nil {
		return err
	}
	switch param {
	case device.ListenerPosition:
		d.listener.Position = v
	case device.ListenerVelocity:
		d.listener.Velocity = v
	default:
		return invalidValue("SetListenerVec", "param", int(param))
	}
	return nil
}

// SetListenerOrientation implements device.Device
func (d *Device) SetListenerOrientation(at, up device.Vec3) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check("SetListenerOrientation"); err != nil {
		return err
	}
	d.listener.At = at
	d.listener.Up = up
	return nil
}

// SetListenerGain implements device.Device
func (d *Device) SetListenerGain(gain float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check("SetListenerGain"); err != nil {
		return err
	}
	if gain < 0 {
		return invalidValue("SetListenerGain", "gain", int(gain))
	}
	d.listener.Gain = gain
	return nil
}

// Close implements device.Device
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return nil
}

// check returns an injected failure or an error once the device is closed.
func (d *Device) check(op string) error {
	if err, ok := d.failures[op]; ok {
		delete(d.failures, op)
		return err
	}
	if d.closed {
		return invalidOperation(op, "device closed")
	}
	return nil
}

func (d *Device) source(op string, id device.SourceID) (*source, error) {
	if err := d.check(op); err != nil {
		return nil, err
	}
	s, ok := d.sources[id]
	if !ok {
		return nil, invalidName(op, "source", uint32(id))
	}
	return s, nil
}

func (d *Device) detach(s *source) {
	for _, id := range s.queue {
		if b, ok := d.buffers[id]; ok {
			b.attached--
		}
	}
	s.queue = nil
	s.static = false
	s.offset = 0
}

func (d *Device) queueDuration(s *source) time.Duration {
	var total time.Duration
	for _, id := range s.queue {
		total += d.buffers[id].duration()
	}
	return total
}

func (d *Device) progress(s *source, dt time.Duration) {
	total := d.queueDuration(s)
	if total == 0 {
		s.state = device.StateStopped
		return
	}
	s.offset += dt
	if s.offset < total {
		return
	}
	if s.looping {
		s.offset %= total
		return
	}
	s.offset = total
	s.state = device.StateStopped
}

func invalidName(op, kind string, id uint32) error {
	return errors.Newf("sim: invalid %s name %d", kind, id).
		Component("device").
		Category(errors.CategoryAudioDevice).
		Context("operation", op).
		Build()
}

func invalidValue(op, field string, value int) error {
	return errors.Newf("sim: invalid value for %s: %d", field, value).
		Component("device").
		Category(errors.CategoryAudioDevice).
		Context("operation", op).
		Build()
}

func invalidOperation(op, reason string) error {
	return errors.Newf("sim: invalid operation: %s", reason).
		Component("device").
		Category(errors.CategoryAudioDevice).
		Context("operation", op).
		Build()
}
