package decode

import (
	"encoding/binary"
	"io"

	"github.com/go-audio/wav"

	"github.com/tphakala/soundpool/internal/errors"
)

// WAV decodes a PCM WAV stream. 8 bit files keep their unsigned samples,
// deeper files are reduced to 16 bit.
func WAV(r io.ReadSeeker) (*PCM, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, errors.Newf("invalid WAV file format").
			Component(ComponentDecode).
			Category(errors.CategoryFileParsing).
			Build()
	}

	channels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)
	bitDepth := int(decoder.BitDepth)
	if err := checkLayout(channels, sampleRate); err != nil {
		return nil, err
	}

	var shift uint
	switch bitDepth {
	case 8, 16:
	case 24:
		shift = 8
	case 32:
		shift = 16
	default:
		return nil, errors.Newf("unsupported bit depth: %d", bitDepth).
			Component(ComponentDecode).
			Category(errors.CategoryValidation).
			Context("bit_depth", bitDepth).
			Build()
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentDecode).
			Category(errors.CategoryFileParsing).
			Context("operation", "read_wav_samples").
			Build()
	}

	if bitDepth == 8 {
		data := make([]byte, len(buf.Data))
		for i, sample := range buf.Data {
			data[i] = byte(sample)
		}
		return &PCM{Data: data, Channels: channels, BitDepth: 8, SampleRate: sampleRate}, nil
	}

	data := make([]byte, len(buf.Data)*2)
	for i, sample := range buf.Data {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(sample>>shift)))
	}
	return &PCM{Data: data, Channels: channels, BitDepth: 16, SampleRate: sampleRate}, nil
}
