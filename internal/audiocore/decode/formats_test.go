package decode

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/soundpool/internal/audiocore"
	"github.com/tphakala/soundpool/internal/errors"
)

// bitWriter packs values MSB first, as FLAC headers and subframes expect
type bitWriter struct {
	buf   []byte
	cur   byte
	nbits uint
}

func (w *bitWriter) write(v uint64, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		w.cur = w.cur<<1 | byte(v>>uint(i)&1)
		w.nbits++
		if w.nbits == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur, w.nbits = 0, 0
		}
	}
}

// bytes flushes a partial byte padded with zero bits
func (w *bitWriter) bytes() []byte {
	if w.nbits > 0 {
		w.write(0, 8-w.nbits)
	}
	return w.buf
}

func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for range 8 {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x8005
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// encodeFLAC builds a single-frame FLAC stream with verbatim subframes.
// channels holds one slice of signed samples per channel, at most 256 each.
func encodeFLAC(t *testing.T, sampleRate, bitDepth int, channels [][]int32) []byte {
	t.Helper()
	require.NotEmpty(t, channels)
	n := len(channels[0])
	require.True(t, n > 0 && n <= 256)

	out := []byte("fLaC")
	// last metadata block, STREAMINFO, 34 bytes
	out = append(out, 0x80, 0x00, 0x00, 34)

	var info bitWriter
	info.write(uint64(n), 16)
	info.write(uint64(n), 16)
	info.write(0, 24)
	info.write(0, 24)
	info.write(uint64(sampleRate), 20)
	info.write(uint64(len(channels)-1), 3)
	info.write(uint64(bitDepth-1), 5)
	info.write(uint64(n), 36)
	out = append(out, info.bytes()...)
	out = append(out, make([]byte, 16)...) // MD5 is not checked while streaming

	sizeCodes := map[int]uint64{8: 1, 16: 4, 24: 6}
	sizeCode, ok := sizeCodes[bitDepth]
	if !ok {
		// only the STREAMINFO block matters for depths the decoder refuses
		return out
	}

	var header bitWriter
	header.write(0x3FFE, 14)
	header.write(0, 1) // reserved
	header.write(0, 1) // fixed block size
	header.write(6, 4) // block size follows as 8 bits
	header.write(0, 4) // sample rate from STREAMINFO
	header.write(uint64(len(channels)-1), 4)
	header.write(sizeCode, 3)
	header.write(0, 1) // reserved
	header.write(0, 8) // frame number 0
	header.write(uint64(n-1), 8)
	frame := header.bytes()
	frame = append(frame, crc8(frame))

	var body bitWriter
	mask := uint64(1)<<uint(bitDepth) - 1
	for _, samples := range channels {
		require.Len(t, samples, n)
		body.write(0, 1)
		body.write(1, 6) // verbatim
		body.write(0, 1)
		for _, s := range samples {
			body.write(uint64(int64(s))&mask, uint(bitDepth))
		}
	}
	frame = append(frame, body.bytes()...)
	frame = binary.BigEndian.AppendUint16(frame, crc16(frame))

	return append(out, frame...)
}

func le16(samples ...int16) []byte {
	var b []byte
	for _, s := range samples {
		b = binary.LittleEndian.AppendUint16(b, uint16(s))
	}
	return b
}

func TestDecodeFLAC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		sampleRate   int
		bitDepth     int
		channels     [][]int32
		wantChannels int
		wantDepth    int
		want         []byte
	}{
		{
			name:         "8 bit signed samples become unsigned",
			sampleRate:   8000,
			bitDepth:     8,
			channels:     [][]int32{{-128, -1, 0, 1, 127}},
			wantChannels: 1,
			wantDepth:    8,
			want:         []byte{0, 127, 128, 129, 255},
		},
		{
			name:         "16 bit stereo is interleaved unchanged",
			sampleRate:   44100,
			bitDepth:     16,
			channels:     [][]int32{{0, 1000, -1000}, {-32768, 32767, 5}},
			wantChannels: 2,
			wantDepth:    16,
			want:         le16(0, -32768, 1000, 32767, -1000, 5),
		},
		{
			name:         "24 bit keeps the two most significant bytes",
			sampleRate:   48000,
			bitDepth:     24,
			channels:     [][]int32{{0x123456, -0x123456, 0x7FFFFF, -0x800000}},
			wantChannels: 1,
			wantDepth:    16,
			want:         le16(0x1234, -0x1235, 0x7FFF, -0x8000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pcm, err := FLAC(bytes.NewReader(encodeFLAC(t, tt.sampleRate, tt.bitDepth, tt.channels)))
			require.NoError(t, err)
			assert.Equal(t, tt.wantChannels, pcm.Channels)
			assert.Equal(t, tt.wantDepth, pcm.BitDepth)
			assert.Equal(t, tt.sampleRate, pcm.SampleRate)
			assert.Equal(t, tt.want, pcm.Data)
			assert.Equal(t, len(tt.channels[0]), pcm.Frames())
		})
	}
}

func TestDecodeFLACRejects32Bit(t *testing.T) {
	t.Parallel()

	_, err := FLAC(bytes.NewReader(encodeFLAC(t, 48000, 32, [][]int32{{0}})))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestDecodeFLACFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "click.flac")
	stream := encodeFLAC(t, 16000, 16, [][]int32{{100, -100, 200, -200}})
	require.NoError(t, os.WriteFile(path, stream, 0o600))

	pcm, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, le16(100, -100, 200, -200), pcm.Data)

	format, err := pcm.Format()
	require.NoError(t, err)
	assert.Equal(t, audiocore.FormatMono16, format)
}

// silentMP3 builds MPEG-1 Layer III mono frames at 128 kbit/s and 44.1 kHz
// whose side info and main data are all zero.
func silentMP3(frames int) []byte {
	const frameSize = 144 * 128000 / 44100
	var out []byte
	for range frames {
		frame := make([]byte, frameSize)
		copy(frame, []byte{0xFF, 0xFB, 0x90, 0xC0})
		out = append(out, frame...)
	}
	return out
}

func TestDecodeMP3(t *testing.T) {
	t.Parallel()

	const frames = 3
	// go-mp3 yields 1152 stereo 16 bit frames per MPEG-1 frame
	const bytesPerFrame = 1152 * 4

	pcm, err := MP3(bytes.NewReader(silentMP3(frames)))
	require.NoError(t, err)
	assert.Equal(t, 2, pcm.Channels, "mono input is widened to stereo")
	assert.Equal(t, 16, pcm.BitDepth)
	assert.Equal(t, 44100, pcm.SampleRate)
	require.Len(t, pcm.Data, frames*bytesPerFrame)
	assert.Zero(t, len(pcm.Data)%pcm.FrameSize())
	assert.Equal(t, make([]byte, len(pcm.Data)), pcm.Data)
	assert.Equal(t, frames*1152, pcm.Frames())
}

func TestDecodeMP3File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "silence.mp3")
	require.NoError(t, os.WriteFile(path, silentMP3(2), 0o600))

	pcm, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, 2*1152, pcm.Frames())
}
