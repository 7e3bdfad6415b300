// Package decode turns audio files into PCM payloads a SoundBuffer accepts.
//
// Decoding itself is left to third-party decoders; this package only
// normalizes their output to 8 or 16 bit interleaved little-endian PCM.
package decode

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/soundpool/internal/audiocore"
	"github.com/tphakala/soundpool/internal/errors"
)

// ComponentDecode identifies decode errors
const ComponentDecode = "decode"

// PCM is a decoded asset.
type PCM struct {
	// Data holds interleaved samples: unsigned for 8 bit, signed little-endian for 16 bit.
	Data       []byte
	Channels   int
	BitDepth   int
	SampleRate int
}

// Format returns the buffer format matching the sample layout.
func (p *PCM) Format() (audiocore.Format, error) {
	return audiocore.FormatFor(p.Channels, p.BitDepth)
}

// FrameSize returns the number of bytes per frame
func (p *PCM) FrameSize() int {
	return p.Channels * p.BitDepth / 8
}

// Frames returns the number of whole frames in Data
func (p *PCM) Frames() int {
	if p.FrameSize() == 0 {
		return 0
	}
	return len(p.Data) / p.FrameSize()
}

// Duration returns the playback length
func (p *PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(p.Frames()) * int64(time.Second) / int64(p.SampleRate))
}

// Chunks splits Data into chunks of at most chunkFrames frames, for use with
// a streamed sound buffer. Trailing bytes that do not form a whole frame are
// dropped.
func (p *PCM) Chunks(chunkFrames int) [][]byte {
	return SplitChunks(p.Data, p.FrameSize(), chunkFrames)
}

// SplitChunks splits data into frame aligned chunks of at most chunkFrames
// frames. The chunks share the backing array of data.
func SplitChunks(data []byte, frameSize, chunkFrames int) [][]byte {
	if frameSize <= 0 || chunkFrames <= 0 {
		return nil
	}
	data = data[:len(data)-len(data)%frameSize]
	step := frameSize * chunkFrames

	chunks := make([][]byte, 0, (len(data)+step-1)/step)
	for start := 0; start < len(data); start += step {
		end := min(start+step, len(data))
		chunks = append(chunks, data[start:end:end])
	}
	return chunks
}

// File decodes the file at path, choosing the decoder by extension.
func File(path string) (*PCM, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decoder, ok := decoders[ext]
	if !ok {
		return nil, errors.Newf("unsupported audio file extension %q", ext).
			Component(ComponentDecode).
			Category(errors.CategoryValidation).
			FileContext(path, 0).
			Context("supported", SupportedExtensions()).
			Build()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentDecode).
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Build()
	}
	defer func() { _ = f.Close() }()

	var size int64
	if info, statErr := f.Stat(); statErr == nil {
		size = info.Size()
	}

	// decoders return categorized errors, the wrapper only adds file context
	pcm, err := decoder(f)
	if err != nil {
		return nil, errors.New(err).
			Component(ComponentDecode).
			FileContext(path, size).
			Build()
	}
	return pcm, nil
}

var decoders = map[string]func(io.ReadSeeker) (*PCM, error){
	".wav":  WAV,
	".wave": WAV,
	".flac": func(r io.ReadSeeker) (*PCM, error) { return FLAC(r) },
	".mp3":  func(r io.ReadSeeker) (*PCM, error) { return MP3(r) },
	".ogg":  func(r io.ReadSeeker) (*PCM, error) { return Vorbis(r) },
	".oga":  func(r io.ReadSeeker) (*PCM, error) { return Vorbis(r) },
}

// SupportedExtensions lists the file extensions File understands
func SupportedExtensions() []string {
	return []string{".flac", ".mp3", ".oga", ".ogg", ".wav", ".wave"}
}

// checkLayout rejects layouts no buffer format exists for
func checkLayout(channels, sampleRate int) error {
	if channels != 1 && channels != 2 {
		return errors.Newf("unsupported number of channels: %d", channels).
			Component(ComponentDecode).
			Category(errors.CategoryValidation).
			Context("channels", channels).
			Build()
	}
	if sampleRate <= 0 {
		return errors.Newf("invalid sample rate: %d", sampleRate).
			Component(ComponentDecode).
			Category(errors.CategoryValidation).
			Context("sample_rate", sampleRate).
			Build()
	}
	return nil
}
