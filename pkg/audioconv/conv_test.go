package audioconv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestDecodeWAVStereo32k(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")

	// 3200 stereo frames at 32 kHz, both channels at half scale.
	data := make([]int, 0, 6400)
	for i := 0; i < 3200; i++ {
		data = append(data, 16384, 16384)
	}
	writeWAV(t, path, 32000, 2, data)

	pcm, err := DecodeFile(path, Options{})
	require.NoError(t, err)
	assert.Len(t, pcm, 1600)
	assert.InDelta(t, 0.5, pcm[10], 1e-3)

	pcm, err = DecodeFile(path, Options{MaxSamples: 100})
	require.NoError(t, err)
	assert.Len(t, pcm, 100)
}

func TestDecodeSniffsMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.bin")
	writeWAV(t, path, 16000, 1, make([]int, 160))

	pcm, err := DecodeFile(path, Options{})
	require.NoError(t, err)
	assert.Len(t, pcm, 160)
}

func TestDecodeUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.xyz")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	_, err := DecodeFile(path, Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDownmixAndResample(t *testing.T) {
	assert.Equal(t, []float32{0.5, 0}, downmix([]float32{1, 0, 0.5, -0.5}, 2))
	assert.Equal(t, []float32{1, 2}, downmix([]float32{1, 2}, 1))

	up := resample([]float32{0, 1}, 1, 2)
	assert.Equal(t, []float32{0, 0.5, 1, 1}, up)

	down := resample([]float32{0, 1, 2, 3}, 2, 1)
	assert.Equal(t, []float32{0, 2}, down)
}

func TestIntsToFloat(t *testing.T) {
	assert.Equal(t, []float32{0, 0.5, -1}, intsToFloat([]int{0, 16384, -32768}, 16))
}
