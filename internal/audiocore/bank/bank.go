// Package bank keeps decoded sound assets loaded as named buffers.
package bank

import (
	"log/slog"
	"slices"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/soundpool/internal/audiocore"
	"github.com/tphakala/soundpool/internal/audiocore/decode"
	"github.com/tphakala/soundpool/internal/errors"
	"github.com/tphakala/soundpool/internal/logging"
)

// ComponentBank identifies sound bank errors
const ComponentBank = "bank"

// Default loading parameters
const (
	// DefaultStreamThreshold is the payload size above which assets are streamed
	DefaultStreamThreshold = 4 << 20
	// DefaultChunkFrames is the number of frames per streamed chunk
	DefaultChunkFrames = 16384
)

// Options configures a SoundBank.
type Options struct {
	// StreamThreshold is the payload size in bytes above which an asset is
	// split into chunks and loaded as a streamed buffer.
	StreamThreshold int
	// ChunkFrames is the number of frames per streamed chunk.
	ChunkFrames int
	Logger      *slog.Logger
	// Metrics receives lookups, defaults to the global collector.
	Metrics *audiocore.MetricsCollector
}

// SoundBank maps names to sound buffers of one context. Entries never expire;
// they stay loaded until Unload or Close, which close the buffer and stop
// every sound still playing it.
//
// Loading creates native buffers, so a SoundBank belongs to the goroutine
// driving its context.
type SoundBank struct {
	ctx     *audiocore.Context
	items   *cache.Cache
	opts    Options
	logger  *slog.Logger
	metrics *audiocore.MetricsCollector
}

// New returns an empty bank for ctx.
func New(ctx *audiocore.Context, opts Options) *SoundBank {
	if opts.StreamThreshold <= 0 {
		opts.StreamThreshold = DefaultStreamThreshold
	}
	if opts.ChunkFrames <= 0 {
		opts.ChunkFrames = DefaultChunkFrames
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.ForServiceOrDefault(audiocore.ComponentAudioCore)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = audiocore.GetMetrics()
	}

	b := &SoundBank{
		ctx: ctx,
		// no janitor goroutine: entries never expire
		items:   cache.New(cache.NoExpiration, 0),
		opts:    opts,
		logger:  logger.With("component", "sound_bank"),
		metrics: metrics,
	}
	b.items.OnEvicted(b.evicted)
	return b
}

// Load decodes the file at path and stores it under name.
func (b *SoundBank) Load(name, path string) (*audiocore.SoundBuffer, error) {
	pcm, err := decode.File(path)
	if err != nil {
		return nil, err
	}
	buf, err := b.Add(name, pcm)
	if err != nil {
		return nil, err
	}
	b.logger.Info("sound loaded",
		"name", name,
		"duration", pcm.Duration(),
		"streamed", buf.Streamed())
	return buf, nil
}

// Add uploads an already decoded asset and stores it under name. Names are
// unique; Unload the previous asset first to replace it.
func (b *SoundBank) Add(name string, pcm *decode.PCM) (*audiocore.SoundBuffer, error) {
	if _, exists := b.items.Get(name); exists {
		return nil, errors.Newf("sound %q already loaded", name).
			Component(ComponentBank).
			Category(errors.CategoryConflict).
			Context("name", name).
			Build()
	}
	format, err := b.validate(name, pcm)
	if err != nil {
		return nil, err
	}

	var buf *audiocore.SoundBuffer
	if len(pcm.Data) > b.opts.StreamThreshold {
		buf = audiocore.NewStreamedSoundBuffer(b.ctx, format, pcm.SampleRate, pcm.Chunks(b.opts.ChunkFrames))
	} else {
		buf = audiocore.NewSoundBuffer(b.ctx, format, pcm.SampleRate, pcm.Data)
	}

	b.items.Set(name, buf, cache.NoExpiration)
	b.metrics.BankEntries(b.items.ItemCount())
	return buf, nil
}

// Get returns the buffer stored under name.
func (b *SoundBank) Get(name string) (*audiocore.SoundBuffer, bool) {
	v, ok := b.items.Get(name)
	b.metrics.BankLookup(ok)
	if !ok {
		return nil, false
	}
	return v.(*audiocore.SoundBuffer), true
}

// MustGet returns the buffer stored under name or a not-found error.
func (b *SoundBank) MustGet(name string) (*audiocore.SoundBuffer, error) {
	buf, ok := b.Get(name)
	if !ok {
		return nil, errors.Newf("sound %q not loaded", name).
			Component(ComponentBank).
			Category(errors.CategoryNotFound).
			Context("name", name).
			Build()
	}
	return buf, nil
}

// Unload closes and forgets the buffer stored under name. It reports whether
// the name was loaded.
func (b *SoundBank) Unload(name string) bool {
	if _, ok := b.items.Get(name); !ok {
		return false
	}
	b.items.Delete(name)
	b.metrics.BankEntries(b.items.ItemCount())
	return true
}

// Names returns the loaded names in sorted order
func (b *SoundBank) Names() []string {
	items := b.items.Items()
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of loaded sounds
func (b *SoundBank) Len() int {
	return b.items.ItemCount()
}

// Close unloads every sound.
func (b *SoundBank) Close() error {
	for _, name := range b.Names() {
		b.items.Delete(name)
	}
	b.metrics.BankEntries(0)
	return nil
}

func (b *SoundBank) evicted(name string, v any) {
	buf, ok := v.(*audiocore.SoundBuffer)
	if !ok {
		return
	}
	if err := buf.Close(); err != nil {
		b.logger.Warn("failed to close sound buffer", "name", name, "error", err)
		return
	}
	b.logger.Debug("sound unloaded", "name", name)
}

// validate rejects payloads a sound buffer would refuse, so bad files surface
// as errors instead of contract violations
func (b *SoundBank) validate(name string, pcm *decode.PCM) (audiocore.Format, error) {
	invalid := func(reason string) error {
		return errors.Newf("sound %q: %s", name, reason).
			Component(ComponentBank).
			Category(errors.CategoryValidation).
			Context("name", name).
			Build()
	}

	if pcm == nil || len(pcm.Data) == 0 {
		return 0, invalid("empty payload")
	}
	format, err := pcm.Format()
	if err != nil {
		return 0, err
	}
	if pcm.SampleRate <= 0 {
		return 0, invalid("sample rate must be positive")
	}
	if len(pcm.Data)%format.FrameSize() != 0 {
		return 0, invalid("payload is not a whole number of frames")
	}
	return format, nil
}
