// Package player assembles a playback device, an audio context, a source pool
// and a sound bank from configuration. The commands drive audio through it.
//
// A Player is owned by one goroutine, like the pool it wraps.
package player

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/soundpool/internal/audiocore"
	"github.com/tphakala/soundpool/internal/audiocore/bank"
	"github.com/tphakala/soundpool/internal/audiocore/device"
	"github.com/tphakala/soundpool/internal/audiocore/sources/malgo"
	"github.com/tphakala/soundpool/internal/conf"
	"github.com/tphakala/soundpool/internal/errors"
	"github.com/tphakala/soundpool/internal/logging"

	// Register the playback backends. The OpenAL backend is only compiled
	// with the openal build tag.
	_ "github.com/tphakala/soundpool/internal/audiocore/device/openal"
	_ "github.com/tphakala/soundpool/internal/audiocore/device/sim"
)

// ComponentPlayer identifies player errors
const ComponentPlayer = "player"

// PoolName labels the metrics and logs of the player's pool
const PoolName = "main"

// Options overrides parts of the configured runtime.
type Options struct {
	// Device replaces the configured backend.
	Device  device.Device
	Logger  *slog.Logger
	Metrics *audiocore.MetricsCollector
}

// clock is implemented by devices whose time only moves when told to
type clock interface {
	Advance(dt time.Duration)
}

// Player owns the audio runtime of one command.
type Player struct {
	settings conf.AudioSettings
	ctx      *audiocore.Context
	pool     *audiocore.SourcePool
	bank     *bank.SoundBank
	clock    clock
	logger   *slog.Logger
}

// Open opens the configured device and builds a context, a pool and a bank
// on top of it. The caller must Close the player.
func Open(settings *conf.AudioSettings, opts Options) (*Player, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.ForServiceOrDefault(audiocore.ComponentAudioCore)
	}

	policy, err := audiocore.ParseEvictionPolicy(settings.EvictionPolicy)
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentPlayer).
			Category(errors.CategoryConfiguration).
			Context("eviction_policy", settings.EvictionPolicy).
			Build()
	}

	dev := opts.Device
	if dev == nil {
		name, err := resolveDeviceName(settings, logger)
		if err != nil {
			return nil, err
		}
		dev, err = device.Open(settings.Backend, device.Options{
			DeviceName: name,
			MaxSources: settings.Capacity,
		})
		if err != nil {
			return nil, err
		}
	}

	ctx, err := audiocore.NewContext(dev, audiocore.ContextOptions{
		Logger:  logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	pool, err := audiocore.NewSourcePool(ctx, audiocore.PoolOptions{
		Name:            PoolName,
		Capacity:        settings.Capacity,
		HighPriorityCap: settings.HighPriorityCap,
		Policy:          policy,
	})
	if err != nil {
		_ = ctx.Close()
		return nil, err
	}

	p := &Player{
		settings: *settings,
		ctx:      ctx,
		pool:     pool,
		bank: bank.New(ctx, bank.Options{
			StreamThreshold: settings.StreamThreshold,
			ChunkFrames:     settings.ChunkFrames,
			Logger:          logger,
			Metrics:         opts.Metrics,
		}),
		logger: logger.With("component", ComponentPlayer),
	}
	if c, ok := dev.(clock); ok {
		p.clock = c
	}
	return p, nil
}

// resolveDeviceName checks a configured OpenAL device name against the
// playback devices miniaudio reports and returns the full device name.
// Enumeration failures are logged and the name is passed through unchanged.
func resolveDeviceName(settings *conf.AudioSettings, logger *slog.Logger) (string, error) {
	if !strings.EqualFold(settings.Backend, conf.BackendOpenAL) || settings.Device == "" {
		return settings.Device, nil
	}

	devices, err := malgo.EnumeratePlaybackDevices()
	if err != nil {
		logger.Warn("could not enumerate playback devices, using configured name",
			"device", settings.Device,
			"error", err)
		return settings.Device, nil
	}
	selected, err := malgo.SelectDevice(devices, settings.Device)
	if err != nil {
		return "", err
	}
	return selected.Name, nil
}

// Context returns the audio context
func (p *Player) Context() *audiocore.Context { return p.ctx }

// Pool returns the source pool
func (p *Player) Pool() *audiocore.SourcePool { return p.pool }

// Bank returns the sound bank
func (p *Player) Bank() *bank.SoundBank { return p.bank }

// Simulated reports whether the device runs on a manual clock
func (p *Player) Simulated() bool { return p.clock != nil }

// Load decodes path into the bank under its base name and returns the name.
// Loading the same file twice reuses the first buffer.
func (p *Player) Load(path string) (string, error) {
	name := filepath.Base(path)
	if _, ok := p.bank.Get(name); ok {
		return name, nil
	}
	if _, err := p.bank.Load(name, path); err != nil {
		return "", err
	}
	return name, nil
}

// Play starts the named sound. Contract violations raised by the pool are
// returned as errors.
func (p *Player) Play(name string, position audiocore.Vec3, looping bool, priority audiocore.Priority) (h audiocore.Handle, err error) {
	buf, err := p.bank.MustGet(name)
	if err != nil {
		return audiocore.Handle{}, err
	}
	defer recoverViolation(&err)

	return p.pool.PlaySound(buf, position, audiocore.Vec3{}, looping, priority)
}

// Advance moves a simulated device clock forward. It does nothing on real
// devices.
func (p *Player) Advance(dt time.Duration) {
	if p.clock != nil {
		p.clock.Advance(dt)
	}
}

// Wait updates the pool every interval until none of handles is active or
// ctx is cancelled. On cancellation every sound is stopped and ctx's error
// is returned. A simulated clock advances by interval on every tick.
func (p *Player) Wait(ctx context.Context, handles []audiocore.Handle, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Duration(conf.DefaultUpdateInterval) * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !p.anyActive(handles) {
			return nil
		}
		select {
		case <-ctx.Done():
			p.pool.StopAll()
			p.logger.Info("playback interrupted", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			p.Advance(interval)
			if finished := p.pool.Update(); finished > 0 {
				p.logger.Debug("sounds finished", "count", finished)
			}
		}
	}
}

func (p *Player) anyActive(handles []audiocore.Handle) bool {
	for _, h := range handles {
		if p.pool.IsActive(h) {
			return true
		}
	}
	return false
}

// Close unloads the bank and closes the context, which releases the pool and
// the device.
func (p *Player) Close() error {
	var errs []error
	if err := p.bank.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.ctx.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// recoverViolation turns a contract violation panic into an error. Other
// panics are re-raised.
func recoverViolation(err *error) {
	r := recover()
	if r == nil {
		return
	}
	var ee *errors.EnhancedError
	if e, ok := r.(error); ok && errors.As(e, &ee) {
		*err = ee
		return
	}
	panic(r)
}
