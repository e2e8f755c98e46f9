package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func frame(level float32) []float32 {
	f := make([]float32, frameSize)
	for i := range f {
		if i%2 == 0 {
			f[i] = level
		} else {
			f[i] = -level
		}
	}
	return f
}

func feedAll(s *Segmenter, frames ...[]float32) (int, bool) {
	for i, f := range frames {
		if s.Feed(f) {
			return i + 1, true
		}
	}
	return len(frames), false
}

func repeat(f []float32, n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = f
	}
	return out
}

func TestSegmenterTimesOutWithoutSpeech(t *testing.T) {
	s := NewSegmenter(0.1, 100*time.Millisecond, time.Second, 60*time.Millisecond)

	n, done := feedAll(s, repeat(frame(0.01), 10)...)
	assert.True(t, done)
	assert.Equal(t, 5, n)
	assert.Nil(t, s.Samples())
}

func TestSegmenterStopsOnTrailingSilence(t *testing.T) {
	s := NewSegmenter(0.1, time.Second, 5*time.Second, 60*time.Millisecond)

	in := append(repeat(frame(0.01), 2), repeat(frame(0.5), 4)...)
	in = append(in, repeat(frame(0.01), 10)...)

	n, done := feedAll(s, in...)
	assert.True(t, done)
	assert.Equal(t, 2+4+3, n)
	assert.Len(t, s.Samples(), (4+3)*frameSize)
}

func TestSegmenterPhraseLimit(t *testing.T) {
	s := NewSegmenter(0.1, time.Second, 200*time.Millisecond, time.Second)

	n, done := feedAll(s, repeat(frame(0.5), 50)...)
	assert.True(t, done)
	assert.Equal(t, 10, n)
	assert.Len(t, s.Samples(), 10*frameSize)
}

func TestSegmenterSpeechBeforeTimeoutKeepsListening(t *testing.T) {
	s := NewSegmenter(0.1, 60*time.Millisecond, time.Second, 100*time.Millisecond)

	in := append(repeat(frame(0.01), 2), repeat(frame(0.5), 6)...)
	_, done := feedAll(s, in...)
	assert.False(t, done)
}

func TestFrameRMS(t *testing.T) {
	assert.InDelta(t, 0.5, frameRMS(frame(0.5)), 1e-6)
	assert.Zero(t, frameRMS(nil))
}
