// Package device defines the native playback device the source pool drives.
//
// A Device owns a fixed number of native sources and any number of sample
// buffers. Backends live in sub-packages and register themselves by name:
// device/openal wraps a real OpenAL implementation and device/sim is a
// deterministic simulation used by tests and the simulate command.
package device

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tphakala/soundpool/internal/errors"
)

// SourceID names a native source. Zero is never a valid source.
type SourceID uint32

// BufferID names a native sample buffer. Zero detaches a source from its buffer.
type BufferID uint32

// SourceState mirrors the OpenAL source state machine.
type SourceState int

const (
	StateInitial SourceState = iota
	StatePlaying
	StatePaused
	StateStopped
)

// String returns the lower case state name
func (s SourceState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Vec3 is a position, velocity or direction in listener space.
type Vec3 struct {
	X, Y, Z float32
}

// SourceParam selects a per-source property.
type SourceParam int

const (
	SourcePosition SourceParam = iota + 1
	SourceVelocity
	SourceDirection
	SourceGain
	SourcePitch
	SourceReferenceDistance
	SourceRolloffFactor
	SourceMaxDistance
)

// ListenerParam selects a listener vector property.
type ListenerParam int

const (
	ListenerPosition ListenerParam = iota + 1
	ListenerVelocity
)

// Device is a native playback device.
//
// Implementations are not required to be safe for concurrent use; the
// source pool serializes all calls.
type Device interface {
	// Name identifies the opened output device.
	Name() string
	// MaxSources is the number of sources the device can generate.
	MaxSources() int

	GenSources(n int) ([]SourceID, error)
	DeleteSources(ids []SourceID) error
	GenBuffers(n int) ([]BufferID, error)
	DeleteBuffers(ids []BufferID) error
	BufferData(id BufferID, format Format, data []byte, sampleRate int) error

	// SetBuffer binds a single static buffer to src, replacing its queue.
	// Passing zero detaches the source.
	SetBuffer(src SourceID, buf BufferID) error
	QueueBuffers(src SourceID, bufs []BufferID) error
	// UnqueueProcessed removes and returns the buffers src has finished playing.
	UnqueueProcessed(src SourceID) ([]BufferID, error)

	Play(src SourceID) error
	Pause(src SourceID) error
	Stop(src SourceID) error
	Rewind(src SourceID) error
	State(src SourceID) (SourceState, error)

	SetSourceVec(src SourceID, param SourceParam, v Vec3) error
	SetSourceFloat(src SourceID, param SourceParam, value float32) error
	SetLooping(src SourceID, looping bool) error

	SetListenerVec(param ListenerParam, v Vec3) error
	SetListenerOrientation(at, up Vec3) error
	SetListenerGain(gain float32) error

	Close() error
}

// Options configures a backend when it is opened.
type Options struct {
	// DeviceName selects an output device, empty for the system default.
	DeviceName string
	// MaxSources limits the sources a simulated device exposes.
	MaxSources int
}

// Factory opens a device for a registered backend.
type Factory func(opts Options) (Device, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available to Open. It panics on duplicate names.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name = strings.ToLower(name)
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("device: backend %q registered twice", name))
	}
	registry[name] = factory
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens a device using the named backend.
func Open(backend string, opts Options) (Device, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(backend)]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.Newf("unknown audio backend %q", backend).
			Component("device").
			Category(errors.CategoryConfiguration).
			Context("backend", backend).
			Context("available", strings.Join(Backends(), ",")).
			Build()
	}

	dev, err := factory(opts)
	if err != nil {
		return nil, errors.New(err).
			Component("device").
			Category(errors.CategoryAudioDevice).
			Context("operation", "open_device").
			Context("backend", backend).
			Build()
	}
	return dev, nil
}
