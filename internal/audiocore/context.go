package audiocore

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tphakala/soundpool/internal/audiocore/device"
	"github.com/tphakala/soundpool/internal/errors"
	"github.com/tphakala/soundpool/internal/logging"
)

// ContextOptions configures a new Context.
type ContextOptions struct {
	// Logger is the base logger, defaults to the audiocore service logger.
	Logger *slog.Logger
	// Metrics receives pool and buffer events, defaults to the global collector.
	Metrics *MetricsCollector
}

// Context owns the native device for the lifetime of the process. Listener,
// pools and buffers created from it are only valid until Close.
type Context struct {
	id       uuid.UUID
	dev      device.Device
	logger   *slog.Logger
	base     *slog.Logger
	metrics  *MetricsCollector
	listener *Listener
	pools    []*SourcePool
	buffers  map[*SoundBuffer]struct{}
	closed   bool
}

// NewContext takes ownership of dev and pushes the initial listener pose to it.
func NewContext(dev device.Device, opts ContextOptions) (*Context, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}

	c := &Context{
		id:      uuid.New(),
		dev:     dev,
		metrics: opts.Metrics,
		buffers: make(map[*SoundBuffer]struct{}),
	}
	if c.metrics == nil {
		c.metrics = GetMetrics()
	}

	base := opts.Logger
	if base == nil {
		base = logging.ForServiceOrDefault(ComponentAudioCore)
	}
	c.base = base.With("context_id", c.id.String())
	c.logger = c.base.With("component", "context")

	listener, err := newListener(c)
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentAudioCore).
			Category(errors.CategoryAudioDevice).
			Context("operation", "init_listener").
			Build()
	}
	c.listener = listener

	c.logger.Info("audio context created",
		"device", dev.Name(),
		"max_sources", dev.MaxSources())
	return c, nil
}

// ID uniquely identifies this context in logs and telemetry
func (c *Context) ID() uuid.UUID {
	return c.id
}

// Active reports whether the context has not been closed
func (c *Context) Active() bool {
	return !c.closed
}

// Device returns the device the context drives
func (c *Context) Device() device.Device {
	return c.dev
}

// Listener returns the listener bound to this context
func (c *Context) Listener() *Listener {
	return c.listener
}

// Close stops every pool, releases every buffer and closes the device.
// Closing twice is a no-op.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}

	var errs []error
	for _, p := range c.pools {
		if err := p.release(); err != nil {
			errs = append(errs, err)
		}
	}
	c.pools = nil

	for b := range c.buffers {
		if err := b.release(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := c.dev.Close(); err != nil {
		errs = append(errs, err)
	}
	c.closed = true

	if len(errs) > 0 {
		c.logger.Error("audio context closed with errors", "errors", len(errs))
		return errors.Join(errs...)
	}
	c.logger.Info("audio context closed")
	return nil
}

// mustBeActive aborts when the context has been closed
func (c *Context) mustBeActive(op string) {
	if c.closed {
		c.fatal(op, ErrContextClosed, "")
	}
}

// fatal reports a contract violation and panics with the resulting error.
// An empty category inherits the category of cause. attrs are key/value
// pairs added to both the log entry and the error context.
func (c *Context) fatal(op string, cause error, category errors.ErrorCategory, attrs ...any) {
	b := errors.New(cause).
		Component(ComponentAudioCore).
		Priority(errors.PriorityCritical).
		Context("operation", op).
		Context("context_id", c.id.String())
	if category != "" {
		b = b.Category(category)
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		if key, ok := attrs[i].(string); ok {
			b = b.Context(key, attrs[i+1])
		}
	}
	ee := b.Build()

	args := append([]any{"operation", op, "category", string(ee.Category), "error", ee.Error()}, attrs...)
	c.logger.Log(context.Background(), logging.LevelFatal, "audio contract violation", args...)
	c.metrics.recordFatal(string(ee.Category))

	panic(ee)
}

// deviceCall aborts when a native call failed
func (c *Context) deviceCall(op string, err error, attrs ...any) {
	if err != nil {
		c.fatal(op, err, errors.CategoryAudioDevice, attrs...)
	}
}

func (c *Context) registerPool(p *SourcePool) {
	c.pools = append(c.pools, p)
}

func (c *Context) unregisterPool(p *SourcePool) {
	for i, candidate := range c.pools {
		if candidate == p {
			c.pools = append(c.pools[:i], c.pools[i+1:]...)
			return
		}
	}
}
