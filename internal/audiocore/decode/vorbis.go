package decode

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/jfreymuth/oggvorbis"

	"github.com/tphakala/soundpool/internal/errors"
)

// Vorbis decodes an Ogg Vorbis stream to 16 bit PCM.
func Vorbis(r io.Reader) (*PCM, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentDecode).
			Category(errors.CategoryFileParsing).
			Context("codec", "vorbis").
			Build()
	}
	if err := checkLayout(format.Channels, format.SampleRate); err != nil {
		return nil, err
	}

	return &PCM{
		Data:       floatToPCM16(samples),
		Channels:   format.Channels,
		BitDepth:   16,
		SampleRate: format.SampleRate,
	}, nil
}

// floatToPCM16 converts samples in [-1, 1] to signed 16 bit little-endian,
// clipping values outside the range
func floatToPCM16(samples []float32) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Round(float64(s) * math.MaxInt16)
		v = max(math.MinInt16, min(math.MaxInt16, v))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
	}
	return data
}
