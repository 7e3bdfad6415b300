package audiocore

import (
	"github.com/tphakala/soundpool/internal/audiocore/device"
)

// Listener is the receiver pose the device uses for spatialization.
//
// Setters push the value to the device before caching it, so getters always
// return the last committed value without a device round trip.
type Listener struct {
	ctx       *Context
	position  Vec3
	velocity  Vec3
	direction Vec3
	up        Vec3
	gain      float32
}

func newListener(c *Context) (*Listener, error) {
	l := &Listener{
		ctx:       c,
		direction: Vec3{Z: -1},
		up:        Vec3{Y: 1},
		gain:      1,
	}

	dev := c.dev
	if err := dev.SetListenerVec(device.ListenerPosition, l.position); err != nil {
		return nil, err
	}
	if err := dev.SetListenerVec(device.ListenerVelocity, l.velocity); err != nil {
		return nil, err
	}
	if err := dev.SetListenerOrientation(l.direction, l.up); err != nil {
		return nil, err
	}
	if err := dev.SetListenerGain(l.gain); err != nil {
		return nil, err
	}
	return l, nil
}

// SetPosition moves the listener
func (l *Listener) SetPosition(v Vec3) {
	l.ctx.mustBeActive("listener_set_position")
	l.ctx.deviceCall("listener_set_position", l.ctx.dev.SetListenerVec(device.ListenerPosition, v))
	l.position = v
}

// SetVelocity sets the listener velocity used for doppler shift
func (l *Listener) SetVelocity(v Vec3) {
	l.ctx.mustBeActive("listener_set_velocity")
	l.ctx.deviceCall("listener_set_velocity", l.ctx.dev.SetListenerVec(device.ListenerVelocity, v))
	l.velocity = v
}

// SetOrientation sets the facing direction and the up vector together
func (l *Listener) SetOrientation(direction, up Vec3) {
	l.ctx.mustBeActive("listener_set_orientation")
	l.ctx.deviceCall("listener_set_orientation", l.ctx.dev.SetListenerOrientation(direction, up))
	l.direction = direction
	l.up = up
}

// SetGain sets the master gain applied to every source
func (l *Listener) SetGain(gain float32) {
	l.ctx.mustBeActive("listener_set_gain")
	l.ctx.deviceCall("listener_set_gain", l.ctx.dev.SetListenerGain(gain), "gain", gain)
	l.gain = gain
}

// Position returns the last committed position
func (l *Listener) Position() Vec3 { return l.position }

// Velocity returns the last committed velocity
func (l *Listener) Velocity() Vec3 { return l.velocity }

// Direction returns the last committed facing direction
func (l *Listener) Direction() Vec3 { return l.direction }

// Up returns the last committed up vector
func (l *Listener) Up() Vec3 { return l.up }

// Gain returns the last committed master gain
func (l *Listener) Gain() float32 { return l.gain }
