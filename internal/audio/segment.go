package audio

import (
	"math"
	"time"
)

// Segmenter cuts one utterance out of a stream of fixed 20ms frames using
// an RMS energy gate.
type Segmenter struct {
	threshold float64

	waitFrames    int
	limitFrames   int
	silenceFrames int

	seen     int
	spoken   int
	quiet    int
	speaking bool
	out      []float32
}

func NewSegmenter(threshold float64, timeout, phraseLimit, silence time.Duration) *Segmenter {
	return &Segmenter{
		threshold:     threshold,
		waitFrames:    frames(timeout),
		limitFrames:   frames(phraseLimit),
		silenceFrames: frames(silence),
		out:           make([]float32, 0, SampleRate*3),
	}
}

func frames(d time.Duration) int {
	n := int(d / frameDur)
	if n < 1 {
		n = 1
	}
	return n
}

// Feed consumes one frame and reports whether the utterance is complete.
// The frame is copied.
func (s *Segmenter) Feed(frame []float32) bool {
	s.seen++
	loud := frameRMS(frame) > s.threshold

	if !s.speaking {
		if !loud {
			return s.seen >= s.waitFrames
		}
		s.speaking = true
	}

	s.out = append(s.out, frame...)
	s.spoken++

	if loud {
		s.quiet = 0
	} else {
		s.quiet++
	}
	return s.quiet >= s.silenceFrames || s.spoken >= s.limitFrames
}

// Samples returns the captured speech, or nil if speech never started.
func (s *Segmenter) Samples() []float32 {
	if !s.speaking {
		return nil
	}
	return s.out
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var sum float64
	for _, x := range f {
		sum += float64(x * x)
	}
	return math.Sqrt(sum / float64(len(f)))
}
