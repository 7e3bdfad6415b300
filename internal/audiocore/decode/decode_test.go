package decode

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/soundpool/internal/audiocore"
	"github.com/tphakala/soundpool/internal/errors"
)

// writeWAV encodes samples into a WAV file and returns its path.
func writeWAV(t *testing.T, name string, sampleRate, bitDepth, channels int, samples []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           samples,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestDecodeWAV16(t *testing.T) {
	t.Parallel()

	path := writeWAV(t, "tone.wav", 8000, 16, 1, []int{0, 1000, -1000, 32767, -32768, 12})
	pcm, err := File(path)
	require.NoError(t, err)

	assert.Equal(t, 1, pcm.Channels)
	assert.Equal(t, 16, pcm.BitDepth)
	assert.Equal(t, 8000, pcm.SampleRate)
	assert.Equal(t, 6, pcm.Frames())

	format, err := pcm.Format()
	require.NoError(t, err)
	assert.Equal(t, audiocore.FormatMono16, format)

	got := make([]int16, pcm.Frames())
	require.NoError(t, binary.Read(bytes.NewReader(pcm.Data), binary.LittleEndian, got))
	assert.Equal(t, []int16{0, 1000, -1000, 32767, -32768, 12}, got)
}

func TestDecodeWAV24ReducedTo16(t *testing.T) {
	t.Parallel()

	path := writeWAV(t, "deep.WAV", 48000, 24, 2, []int{0x123400, -0x100000, 0, 0x7fff00})
	pcm, err := File(path)
	require.NoError(t, err)

	assert.Equal(t, 2, pcm.Channels)
	assert.Equal(t, 16, pcm.BitDepth)
	assert.Equal(t, 2, pcm.Frames())

	got := make([]int16, 4)
	require.NoError(t, binary.Read(bytes.NewReader(pcm.Data), binary.LittleEndian, got))
	assert.Equal(t, []int16{0x1234, -0x1000, 0, 0x7fff}, got)
}

func TestDecodeWAV8KeepsUnsignedLayout(t *testing.T) {
	t.Parallel()

	path := writeWAV(t, "lofi.wav", 11025, 8, 2, make([]int, 11025*2))
	pcm, err := File(path)
	require.NoError(t, err)

	format, err := pcm.Format()
	require.NoError(t, err)
	assert.Equal(t, audiocore.FormatStereo8, format)
	assert.Len(t, pcm.Data, 11025*2)
	assert.Equal(t, time.Second, pcm.Duration())
}

func TestDecodeRejectsBadInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a riff file"), 0o600))

	_, err := File(garbage)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))

	_, err = File(filepath.Join(dir, "missing.wav"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))

	_, err = File(filepath.Join(dir, "notes.txt"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = MP3(bytes.NewReader([]byte{0, 1, 2, 3}))
	require.Error(t, err)

	_, err = Vorbis(bytes.NewReader([]byte("OggS but not really")))
	require.Error(t, err)

	_, err = FLAC(bytes.NewReader([]byte("fLaC")))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestDecodeRejectsUnsupportedChannelCount(t *testing.T) {
	t.Parallel()

	path := writeWAV(t, "surround.wav", 8000, 16, 6, make([]int, 6*10))
	_, err := File(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestSplitChunks(t *testing.T) {
	t.Parallel()

	data := make([]byte, 10*4+3) // ten stereo 16-bit frames and a partial one
	chunks := SplitChunks(data, 4, 4)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 16)
	assert.Len(t, chunks[1], 16)
	assert.Len(t, chunks[2], 8)

	assert.Nil(t, SplitChunks(data, 0, 4))
	assert.Nil(t, SplitChunks(data, 4, 0))
	assert.Empty(t, SplitChunks(nil, 4, 4))

	// appending to a chunk must not clobber the next one
	chunks[0] = append(chunks[0], 0xff)
	assert.Zero(t, chunks[1][0])
}

func TestPCMChunksFeedStreamedLayout(t *testing.T) {
	t.Parallel()

	pcm := &PCM{Data: make([]byte, 8000*2), Channels: 1, BitDepth: 16, SampleRate: 8000}
	chunks := pcm.Chunks(3000)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 2000*2)
	assert.Equal(t, time.Second, pcm.Duration())
}

func TestFloatToPCM16Clips(t *testing.T) {
	t.Parallel()

	data := floatToPCM16([]float32{0, 1, -1, 2, -2, 0.5})
	got := make([]int16, 6)
	require.NoError(t, binary.Read(bytes.NewReader(data), binary.LittleEndian, got))
	assert.Equal(t, []int16{0, 32767, -32767, 32767, -32768, 16384}, got)
}
