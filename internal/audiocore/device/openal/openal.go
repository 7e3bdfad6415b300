//go:build openal && cgo

package openal

// #cgo darwin        LDFLAGS: -framework OpenAL
// #cgo freebsd linux LDFLAGS: -lopenal
// #cgo windows       LDFLAGS: -lOpenAL32
//
// #include <stdlib.h>
// #ifdef __APPLE__
// #include <OpenAL/al.h>
// #include <OpenAL/alc.h>
// #else
// #include <AL/al.h>
// #include <AL/alc.h>
// #endif
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/tphakala/soundpool/internal/audiocore/device"
	"github.com/tphakala/soundpool/internal/errors"
)

// fallbackMaxSources is used when the implementation does not report ALC_MONO_SOURCES.
const fallbackMaxSources = 32

func init() {
	device.Register(BackendName, func(opts device.Options) (device.Device, error) {
		return Open(opts.DeviceName)
	})
}

// Device is an opened OpenAL device with a current context.
type Device struct {
	// alContext and alDevice are kept as uintptr since some implementations
	// return values that are not valid Go pointers.
	alContext  uintptr
	alDevice   uintptr
	name       string
	maxSources int
	closed     bool
}

// Open opens the named output device, or the default device when name is empty.
func Open(name string) (*Device, error) {
	var cname *C.ALCchar
	if name != "" {
		cs := C.CString(name)
		defer C.free(unsafe.Pointer(cs))
		cname = (*C.ALCchar)(cs)
	}

	d := uintptr(unsafe.Pointer(C.alcOpenDevice(cname)))
	if d == 0 {
		return nil, errors.Newf("openal: alcOpenDevice failed").
			Component("device").
			Category(errors.CategoryAudioDevice).
			Context("device_name", name).
			Build()
	}

	c := uintptr(unsafe.Pointer(C.alcCreateContext(alcDevice(d), nil)))
	if c == 0 {
		C.alcCloseDevice(alcDevice(d))
		return nil, errors.Newf("openal: alcCreateContext failed").
			Component("device").
			Category(errors.CategoryAudioDevice).
			Context("device_name", name).
			Build()
	}

	// Some Linux implementations report spurious errors before the context is current.
	C.alcMakeContextCurrent((*C.ALCcontext)(unsafe.Pointer(c)))
	if err := alcError(d, "make_context_current"); err != nil {
		C.alcDestroyContext((*C.ALCcontext)(unsafe.Pointer(c)))
		C.alcCloseDevice(alcDevice(d))
		return nil, err
	}

	dev := &Device{
		alContext:  c,
		alDevice:   d,
		name:       C.GoString((*C.char)(unsafe.Pointer(C.alcGetString(alcDevice(d), C.ALC_DEVICE_SPECIFIER)))),
		maxSources: fallbackMaxSources,
	}

	var mono C.ALCint
	C.alcGetIntegerv(alcDevice(d), C.ALC_MONO_SOURCES, 1, &mono)
	if alcError(d, "query_mono_sources") == nil && mono > 0 {
		dev.maxSources = int(mono)
	}

	return dev, nil
}

func alcDevice(d uintptr) *C.ALCdevice {
	return (*C.ALCdevice)(unsafe.Pointer(d))
}

func alcError(d uintptr, op string) error {
	code := C.alcGetError(alcDevice(d))
	if code == C.ALC_NO_ERROR {
		return nil
	}
	var msg string
	switch code {
	case C.ALC_INVALID_DEVICE:
		msg = "invalid device"
	case C.ALC_INVALID_CONTEXT:
		msg = "invalid context"
	case C.ALC_INVALID_ENUM:
		msg = "invalid enum"
	case C.ALC_INVALID_VALUE:
		msg = "invalid value"
	case C.ALC_OUT_OF_MEMORY:
		msg = "out of memory"
	default:
		msg = fmt.Sprintf("code %d", int(code))
	}
	return errors.Newf("openal: alc error: %s", msg).
		Component("device").
		Category(errors.CategoryAudioDevice).
		Context("operation", op).
		Build()
}

// alError drains the AL error flag after an operation.
func alError(op string) error {
	code := C.alGetError()
	if code == C.AL_NO_ERROR {
		return nil
	}
	var msg string
	switch code {
	case C.AL_INVALID_NAME:
		msg = "invalid name"
	case C.AL_INVALID_ENUM:
		msg = "invalid enum"
	case C.AL_INVALID_VALUE:
		msg = "invalid value"
	case C.AL_INVALID_OPERATION:
		msg = "invalid operation"
	case C.AL_OUT_OF_MEMORY:
		msg = "out of memory"
	default:
		msg = fmt.Sprintf("code %d", int(code))
	}
	return errors.Newf("openal: %s", msg).
		Component("device").
		Category(errors.CategoryAudioDevice).
		Context("operation", op).
		Build()
}

func alFormat(f device.Format) (C.ALenum, error) {
	switch f {
	case device.FormatMono8:
		return C.AL_FORMAT_MONO8, nil
	case device.FormatMono16:
		return C.AL_FORMAT_MONO16, nil
	case device.FormatStereo8:
		return C.AL_FORMAT_STEREO8, nil
	case device.FormatStereo16:
		return C.AL_FORMAT_STEREO16, nil
	}
	return 0, errors.Newf("openal: unsupported format %s", f).
		Component("device").
		Category(errors.CategoryValidation).
		Build()
}

func sourceParam(p device.SourceParam) (C.ALenum, bool) {
	switch p {
	case device.SourcePosition:
		return C.AL_POSITION, true
	case device.SourceVelocity:
		return C.AL_VELOCITY, true
	case device.SourceDirection:
		return C.AL_DIRECTION, true
	case device.SourceGain:
		return C.AL_GAIN, true
	case device.SourcePitch:
		return C.AL_PITCH, true
	case device.SourceReferenceDistance:
		return C.AL_REFERENCE_DISTANCE, true
	case device.SourceRolloffFactor:
		return C.AL_ROLLOFF_FACTOR, true
	case device.SourceMaxDistance:
		return C.AL_MAX_DISTANCE, true
	}
	return 0, false
}

// Name implements device.Device
func (d *Device) Name() string { return d.name }

// MaxSources implements device.Device
func (d *Device) MaxSources() int { return d.maxSources }

// GenSources implements device.Device
func (d *Device) GenSources(n int) ([]device.SourceID, error) {
	if n == 0 {
		return nil, nil
	}
	ids := make([]C.ALuint, n)
	C.alGenSources(C.ALsizei(n), &ids[0])
	if err := alError("gen_sources"); err != nil {
		return nil, err
	}
	out := make([]device.SourceID, n)
	for i, id := range ids {
		out[i] = device.SourceID(id)
	}
	return out, nil
}

// DeleteSources implements device.Device
func (d *Device) DeleteSources(ids []device.SourceID) error {
	if len(ids) == 0 {
		return nil
	}
	native := make([]C.ALuint, len(ids))
	for i, id := range ids {
		native[i] = C.ALuint(id)
	}
	C.alDeleteSources(C.ALsizei(len(native)), &native[0])
	return alError("delete_sources")
}

// GenBuffers implements device.Device
func (d *Device) GenBuffers(n int) ([]device.BufferID, error) {
	if n == 0 {
		return nil, nil
	}
	ids := make([]C.ALuint, n)
	C.alGenBuffers(C.ALsizei(n), &ids[0])
	if err := alError("gen_buffers"); err != nil {
		return nil, err
	}
	out := make([]device.BufferID, n)
	for i, id := range ids {
		out[i] = device.BufferID(id)
	}
	return out, nil
}

// DeleteBuffers implements device.Device
func (d *Device) DeleteBuffers(ids []device.BufferID) error {
	if len(ids) == 0 {
		return nil
	}
	native := make([]C.ALuint, len(ids))
	for i, id := range ids {
		native[i] = C.ALuint(id)
	}
	C.alDeleteBuffers(C.ALsizei(len(native)), &native[0])
	return alError("delete_buffers")
}

// BufferData implements device.Device
func (d *Device) BufferData(id device.BufferID, format device.Format, data []byte, sampleRate int) error {
	alf, err := alFormat(format)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.Newf("openal: empty buffer data").
			Component("device").
			Category(errors.CategoryValidation).
			Build()
	}
	// alBufferData copies the samples, so the Go slice is not retained.
	C.alBufferData(C.ALuint(id), alf, unsafe.Pointer(&data[0]), C.ALsizei(len(data)), C.ALsizei(sampleRate))
	return alError("buffer_data")
}

// SetBuffer implements device.Device
func (d *Device) SetBuffer(src device.SourceID, buf device.BufferID) error {
	C.alSourcei(C.ALuint(src), C.AL_BUFFER, C.ALint(buf))
	return alError("set_buffer")
}

// QueueBuffers implements device.Device
func (d *Device) QueueBuffers(src device.SourceID, bufs []device.BufferID) error {
	if len(bufs) == 0 {
		return nil
	}
	native := make([]C.ALuint, len(bufs))
	for i, id := range bufs {
		native[i] = C.ALuint(id)
	}
	C.alSourceQueueBuffers(C.ALuint(src), C.ALsizei(len(native)), &native[0])
	return alError("queue_buffers")
}

// UnqueueProcessed implements device.Device
func (d *Device) UnqueueProcessed(src device.SourceID) ([]device.BufferID, error) {
	var n C.ALint
	C.alGetSourcei(C.ALuint(src), C.AL_BUFFERS_PROCESSED, &n)
	if err := alError("buffers_processed"); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	native := make([]C.ALuint, n)
	C.alSourceUnqueueBuffers(C.ALuint(src), C.ALsizei(n), &native[0])
	if err := alError("unqueue_buffers"); err != nil {
		return nil, err
	}
	out := make([]device.BufferID, n)
	for i, id := range native {
		out[i] = device.BufferID(id)
	}
	return out, nil
}

// Play implements device.Device
func (d *Device) Play(src device.SourceID) error {
	C.alSourcePlay(C.ALuint(src))
	return alError("play")
}

// Pause implements device.Device
func (d *Device) Pause(src device.SourceID) error {
	C.alSourcePause(C.ALuint(src))
	return alError("pause")
}

// Stop implements device.Device
func (d *Device) Stop(src device.SourceID) error {
	C.alSourceStop(C.ALuint(src))
	return alError("stop")
}

// Rewind implements device.Device
func (d *Device) Rewind(src device.SourceID) error {
	C.alSourceRewind(C.ALuint(src))
	return alError("rewind")
}

// State implements device.Device
func (d *Device) State(src device.SourceID) (device.SourceState, error) {
	var state C.ALint
	C.alGetSourcei(C.ALuint(src), C.AL_SOURCE_STATE, &state)
	if err := alError("source_state"); err != nil {
		return device.StateStopped, err
	}
	switch state {
	case C.AL_INITIAL:
		return device.StateInitial, nil
	case C.AL_PLAYING:
		return device.StatePlaying, nil
	case C.AL_PAUSED:
		return device.StatePaused, nil
	default:
		return device.StateStopped, nil
	}
}

// SetSourceVec implements device.Device
func (d *Device) SetSourceVec(src device.SourceID, param device.SourceParam, v device.Vec3) error {
	p, ok := sourceParam(param)
	if !ok {
		return errors.Newf("openal: unsupported source parameter %d", int(param)).
			Component("device").
			Category(errors.CategoryValidation).
			Build()
	}
	C.alSource3f(C.ALuint(src), p, C.ALfloat(v.X), C.ALfloat(v.Y), C.ALfloat(v.Z))
	return alError("source_3f")
}

// SetSourceFloat implements device.Device
func (d *Device) SetSourceFloat(src device.SourceID, param device.SourceParam, value float32) error {
	p, ok := sourceParam(param)
	if !ok {
		return errors.Newf("openal: unsupported source parameter %d", int(param)).
			Component("device").
			Category(errors.CategoryValidation).
			Build()
	}
	C.alSourcef(C.ALuint(src), p, C.ALfloat(value))
	return alError("source_f")
}

// SetLooping implements device.Device
func (d *Device) SetLooping(src device.SourceID, looping bool) error {
	v := C.ALint(C.AL_FALSE)
	if looping {
		v = C.AL_TRUE
	}
	C.alSourcei(C.ALuint(src), C.AL_LOOPING, v)
	return alError("source_looping")
}

// SetListenerVec implements device.Device
func (d *Device) SetListenerVec(param device.ListenerParam, v device.Vec3) error {
	var p C.ALenum
	switch param {
	case device.ListenerPosition:
		p = C.AL_POSITION
	case device.ListenerVelocity:
		p = C.AL_VELOCITY
	default:
		return errors.Newf("openal: unsupported listener parameter %d", int(param)).
			Component("device").
			Category(errors.CategoryValidation).
			Build()
	}
	C.alListener3f(p, C.ALfloat(v.X), C.ALfloat(v.Y), C.ALfloat(v.Z))
	return alError("listener_3f")
}

// SetListenerOrientation implements device.Device
func (d *Device) SetListenerOrientation(at, up device.Vec3) error {
	orientation := [6]C.ALfloat{
		C.ALfloat(at.X), C.ALfloat(at.Y), C.ALfloat(at.Z),
		C.ALfloat(up.X), C.ALfloat(up.Y), C.ALfloat(up.Z),
	}
	C.alListenerfv(C.AL_ORIENTATION, &orientation[0])
	return alError("listener_orientation")
}

// SetListenerGain implements device.Device
func (d *Device) SetListenerGain(gain float32) error {
	C.alListenerf(C.AL_GAIN, C.ALfloat(gain))
	return alError("listener_gain")
}

// Close releases the context and closes the device.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	C.alcMakeContextCurrent(nil)
	C.alcDestroyContext((*C.ALCcontext)(unsafe.Pointer(d.alContext)))
	if C.alcCloseDevice(alcDevice(d.alDevice)) == C.ALC_FALSE {
		return errors.Newf("openal: alcCloseDevice failed").
			Component("device").
			Category(errors.CategoryAudioDevice).
			Context("device_name", d.name).
			Build()
	}
	return nil
}
