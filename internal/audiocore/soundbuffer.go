package audiocore

import (
	"time"

	"github.com/tphakala/soundpool/internal/audiocore/device"
)

// SoundBuffer owns the native buffers holding one decoded asset.
//
// A whole-asset buffer holds a single native buffer. A streamed buffer holds
// one native buffer per chunk; the caller decides when processed chunks are
// queued again. Buffers are immutable after construction.
type SoundBuffer struct {
	ctx        *Context
	format     Format
	sampleRate int
	ids        []device.BufferID
	sizes      []int
	streamed   bool
	released   bool
}

// NewSoundBuffer uploads a whole asset into a single native buffer.
//
// A sample rate that is not positive, an unknown format, an empty payload or
// a payload that is not a whole number of frames is a contract violation.
func NewSoundBuffer(ctx *Context, format Format, sampleRate int, pcm []byte) *SoundBuffer {
	return newSoundBuffer(ctx, "new_sound_buffer", format, sampleRate, [][]byte{pcm}, false)
}

// NewStreamedSoundBuffer uploads successive chunks of a longer asset into one
// native buffer each. Every chunk follows the NewSoundBuffer payload rules.
func NewStreamedSoundBuffer(ctx *Context, format Format, sampleRate int, chunks [][]byte) *SoundBuffer {
	if len(chunks) == 0 {
		ctx.mustBeActive("new_streamed_sound_buffer")
		ctx.fatal("new_streamed_sound_buffer", ErrEmptyPayload, "", "chunks", 0)
	}
	return newSoundBuffer(ctx, "new_streamed_sound_buffer", format, sampleRate, chunks, true)
}

func newSoundBuffer(ctx *Context, op string, format Format, sampleRate int, chunks [][]byte, streamed bool) *SoundBuffer {
	ctx.mustBeActive(op)

	if !format.Valid() {
		ctx.fatal(op, ErrInvalidFormat, "", "format", int(format))
	}
	if sampleRate <= 0 {
		ctx.fatal(op, ErrInvalidSampleRate, "", "sample_rate", sampleRate)
	}
	sizes := make([]int, len(chunks))
	for i, chunk := range chunks {
		if len(chunk) == 0 {
			ctx.fatal(op, ErrEmptyPayload, "", "chunk", i)
		}
		if len(chunk)%format.FrameSize() != 0 {
			ctx.fatal(op, ErrMisalignedPayload, "",
				"chunk", i,
				"size", len(chunk),
				"frame_size", format.FrameSize())
		}
		sizes[i] = len(chunk)
	}

	ids, err := ctx.dev.GenBuffers(len(chunks))
	ctx.deviceCall(op, err, "buffers", len(chunks))
	for i, chunk := range chunks {
		if err := ctx.dev.BufferData(ids[i], format, chunk, sampleRate); err != nil {
			_ = ctx.dev.DeleteBuffers(ids)
			ctx.deviceCall(op, err, "chunk", i)
		}
	}

	b := &SoundBuffer{
		ctx:        ctx,
		format:     format,
		sampleRate: sampleRate,
		ids:        ids,
		sizes:      sizes,
		streamed:   streamed,
	}
	ctx.buffers[b] = struct{}{}
	ctx.metrics.recordBuffer(b.kind(), 1, b.Size())

	ctx.logger.Debug("sound buffer created",
		"format", format.String(),
		"sample_rate", sampleRate,
		"chunks", len(chunks),
		"bytes", b.Size())
	return b
}

// Format returns the sample layout
func (b *SoundBuffer) Format() Format { return b.format }

// SampleRate returns the sample rate in Hz
func (b *SoundBuffer) SampleRate() int { return b.sampleRate }

// Streamed reports whether the buffer was built from chunks
func (b *SoundBuffer) Streamed() bool { return b.streamed }

// ChunkCount returns the number of native buffers, one for whole assets
func (b *SoundBuffer) ChunkCount() int { return len(b.ids) }

// Released reports whether Close has run
func (b *SoundBuffer) Released() bool { return b.released }

// Size returns the total payload size in bytes
func (b *SoundBuffer) Size() int {
	total := 0
	for _, size := range b.sizes {
		total += size
	}
	return total
}

// Duration returns the playback length of the whole asset
func (b *SoundBuffer) Duration() time.Duration {
	return b.durationOf(b.Size())
}

// ChunkDuration returns the playback length of chunk i
func (b *SoundBuffer) ChunkDuration(i int) time.Duration {
	b.checkChunk("chunk_duration", i)
	return b.durationOf(b.sizes[i])
}

func (b *SoundBuffer) durationOf(size int) time.Duration {
	frames := int64(size / b.format.FrameSize())
	return time.Duration(frames * int64(time.Second) / int64(b.sampleRate))
}

// Close detaches the buffer from every slot still using it and deletes the
// native buffers. Handles bound to it read as stopped afterwards. Closing a
// buffer after its context was closed is a no-op.
func (b *SoundBuffer) Close() error {
	if b.released || b.ctx.closed {
		return nil
	}
	for _, p := range b.ctx.pools {
		p.detachBuffer(b)
	}
	delete(b.ctx.buffers, b)
	if err := b.release(); err != nil {
		b.ctx.deviceCall("close_sound_buffer", err, "buffers", len(b.ids))
	}
	return nil
}

func (b *SoundBuffer) release() error {
	if b.released {
		return nil
	}
	b.released = true
	b.ctx.metrics.recordBuffer(b.kind(), -1, -b.Size())
	return b.ctx.dev.DeleteBuffers(b.ids)
}

func (b *SoundBuffer) kind() string {
	if b.streamed {
		return bufferKindStreamed
	}
	return bufferKindStatic
}

func (b *SoundBuffer) checkChunk(op string, i int) {
	if i < 0 || i >= len(b.ids) {
		b.ctx.fatal(op, ErrChunkOutOfRange, "", "index", i, "chunks", len(b.ids))
	}
}

// chunk returns the native buffer of chunk i
func (b *SoundBuffer) chunk(op string, i int) device.BufferID {
	b.checkChunk(op, i)
	return b.ids[i]
}

// chunkIndex maps a native buffer back to its chunk index
func (b *SoundBuffer) chunkIndex(id device.BufferID) int {
	for i, candidate := range b.ids {
		if candidate == id {
			return i
		}
	}
	return -1
}
