package audiocore

import (
	"github.com/tphakala/soundpool/internal/errors"
)

// Component identifier for audiocore errors
const ComponentAudioCore = "audiocore"

// Sentinel errors. Fatal violations panic with an EnhancedError wrapping one
// of these, so errors.Is works on the recovered value.
var (
	// ErrNoSlotAvailable is returned when a low priority request finds every slot held by active high priority sounds
	ErrNoSlotAvailable = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryLimit).
				Context("resource", "source_slot").
				Context("reason", "all_slots_high_priority").
				Build()

	// ErrHighPriorityBudget is raised when a high priority request would exceed the configured budget
	ErrHighPriorityBudget = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryLimit).
				Context("resource", "high_priority_budget").
				Context("reason", "budget_exceeded").
				Build()

	// ErrContextClosed is raised when an operation runs without an active context
	ErrContextClosed = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryState).
				Context("resource", "audio_context").
				Context("reason", "closed").
				Build()

	// ErrPoolClosed is raised when a closed pool is asked to play a sound
	ErrPoolClosed = errors.New(nil).
			Component(ComponentAudioCore).
			Category(errors.CategoryState).
			Context("resource", "source_pool").
			Context("reason", "closed").
			Build()

	// ErrInvalidSampleRate is raised for a buffer with a sample rate that is not positive
	ErrInvalidSampleRate = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("resource", "sample_rate").
				Context("reason", "not_positive").
				Build()

	// ErrInvalidFormat is raised for a buffer with an unknown sample format
	ErrInvalidFormat = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("resource", "audio_format").
				Context("reason", "unknown").
				Build()

	// ErrEmptyPayload is raised for a buffer or chunk without samples
	ErrEmptyPayload = errors.New(nil).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("resource", "pcm_payload").
			Context("reason", "empty").
			Build()

	// ErrMisalignedPayload is raised when a payload is not a whole number of frames
	ErrMisalignedPayload = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("resource", "pcm_payload").
				Context("reason", "misaligned").
				Build()

	// ErrChunkOutOfRange is raised for a chunk index outside a streamed buffer
	ErrChunkOutOfRange = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("resource", "chunk_index").
				Context("reason", "out_of_range").
				Build()

	// ErrNotStreamed is raised when chunk operations target a whole-asset buffer
	ErrNotStreamed = errors.New(nil).
			Component(ComponentAudioCore).
			Category(errors.CategoryState).
			Context("resource", "sound_buffer").
			Context("reason", "not_streamed").
			Build()

	// ErrBufferReleased is raised when a closed buffer is played
	ErrBufferReleased = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryState).
				Context("resource", "sound_buffer").
				Context("reason", "released").
				Build()

	// ErrForeignBuffer is raised when a buffer from another context is played
	ErrForeignBuffer = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("resource", "sound_buffer").
				Context("reason", "foreign_context").
				Build()

	// ErrNilDevice is returned when a context is created without a device
	ErrNilDevice = errors.New(nil).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("resource", "audio_device").
			Context("reason", "nil").
			Build()

	// ErrNilBuffer is raised when a sound is played without a buffer
	ErrNilBuffer = errors.New(nil).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("resource", "sound_buffer").
			Context("reason", "nil").
			Build()

	// ErrInvalidPriority is raised for a priority other than low or high
	ErrInvalidPriority = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("resource", "priority").
				Context("reason", "unknown").
				Build()

	// ErrInvalidPoolOptions is returned when a pool is configured with impossible sizes
	ErrInvalidPoolOptions = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("resource", "pool_options").
				Context("reason", "out_of_range").
				Build()
)
