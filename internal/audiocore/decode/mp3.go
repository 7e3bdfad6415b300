package decode

import (
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/tphakala/soundpool/internal/errors"
)

// MP3 decodes an MP3 stream. go-mp3 always produces 16 bit stereo.
func MP3(r io.Reader) (*PCM, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentDecode).
			Category(errors.CategoryFileParsing).
			Context("codec", "mp3").
			Build()
	}

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentDecode).
			Category(errors.CategoryFileParsing).
			Context("codec", "mp3").
			Build()
	}
	if err := checkLayout(2, dec.SampleRate()); err != nil {
		return nil, err
	}

	// drop a trailing partial frame
	data = data[:len(data)-len(data)%4]
	return &PCM{Data: data, Channels: 2, BitDepth: 16, SampleRate: dec.SampleRate()}, nil
}
