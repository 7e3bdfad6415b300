package device

import (
	"fmt"

	"github.com/tphakala/soundpool/internal/errors"
)

// Format is a PCM sample layout a buffer can hold.
type Format int

const (
	FormatMono8 Format = iota + 1
	FormatMono16
	FormatStereo8
	FormatStereo16
)

// FormatFor returns the format for a channel count and bit depth.
func FormatFor(channels, bitDepth int) (Format, error) {
	switch {
	case channels == 1 && bitDepth == 8:
		return FormatMono8, nil
	case channels == 1 && bitDepth == 16:
		return FormatMono16, nil
	case channels == 2 && bitDepth == 8:
		return FormatStereo8, nil
	case channels == 2 && bitDepth == 16:
		return FormatStereo16, nil
	}
	return 0, errors.Newf("unsupported sample layout: %d channels at %d bits", channels, bitDepth).
		Component("device").
		Category(errors.CategoryValidation).
		Context("channels", channels).
		Context("bit_depth", bitDepth).
		Build()
}

// Valid reports whether f is one of the defined formats
func (f Format) Valid() bool {
	return f >= FormatMono8 && f <= FormatStereo16
}

// Channels returns the number of interleaved channels
func (f Format) Channels() int {
	if f == FormatStereo8 || f == FormatStereo16 {
		return 2
	}
	return 1
}

// BytesPerSample returns the size of one sample of one channel
func (f Format) BytesPerSample() int {
	if f == FormatMono16 || f == FormatStereo16 {
		return 2
	}
	return 1
}

// FrameSize returns the size in bytes of one sample across all channels
func (f Format) FrameSize() int {
	return f.Channels() * f.BytesPerSample()
}

func (f Format) String() string {
	switch f {
	case FormatMono8:
		return "mono8"
	case FormatMono16:
		return "mono16"
	case FormatStereo8:
		return "stereo8"
	case FormatStereo16:
		return "stereo16"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}
