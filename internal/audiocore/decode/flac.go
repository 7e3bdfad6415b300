package decode

import (
	"encoding/binary"
	"io"

	"github.com/tphakala/flac"

	"github.com/tphakala/soundpool/internal/errors"
)

// FLAC decodes a FLAC stream. 8 and 16 bit files keep their depth, 24 bit
// files are reduced to 16 bit.
func FLAC(r io.Reader) (*PCM, error) {
	decoder, err := flac.NewDecoder(r)
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentDecode).
			Category(errors.CategoryFileParsing).
			Context("codec", "flac").
			Build()
	}

	channels := decoder.NChannels
	bitDepth := decoder.BitsPerSample
	if err := checkLayout(channels, decoder.SampleRate); err != nil {
		return nil, err
	}

	switch bitDepth {
	case 8, 16, 24:
	default:
		return nil, errors.Newf("unsupported bit depth: %d", bitDepth).
			Component(ComponentDecode).
			Category(errors.CategoryValidation).
			Context("bit_depth", bitDepth).
			Build()
	}

	outDepth := min(bitDepth, 16)
	width := bitDepth / 8
	data := make([]byte, 0, int(decoder.TotalSamples)*channels*outDepth/8)

	for {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.New(err).
				Component(ComponentDecode).
				Category(errors.CategoryFileParsing).
				Context("codec", "flac").
				Context("operation", "read_flac_frame").
				Build()
		}

		for i := 0; i+width <= len(frame); i += width {
			switch bitDepth {
			case 8:
				// FLAC samples are signed, buffers expect unsigned 8 bit
				data = append(data, frame[i]+128)
			case 16:
				data = append(data, frame[i], frame[i+1])
			case 24:
				// keep the two most significant bytes
				data = binary.LittleEndian.AppendUint16(data, binary.LittleEndian.Uint16(frame[i+1:]))
			}
		}
	}

	frameSize := channels * outDepth / 8
	data = data[:len(data)-len(data)%frameSize]
	return &PCM{Data: data, Channels: channels, BitDepth: outDepth, SampleRate: decoder.SampleRate}, nil
}
