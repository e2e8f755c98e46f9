package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
	frameDur   = 20 * time.Millisecond
)

var ErrNoSpeech = errors.New("no speech before timeout")

// Recorder captures one utterance at a time from the default input device.
// Captures are serialized; portaudio streams are not shared.
type Recorder struct {
	mu sync.Mutex

	Threshold float64
	Silence   time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{Threshold: 0.015, Silence: 600 * time.Millisecond}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Capture waits up to timeout for speech to start and then records until
// trailing silence or phraseLimit. It returns ErrNoSpeech when nobody spoke.
func (r *Recorder) Capture(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]float32, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	seg := NewSegmenter(r.Threshold, timeout, phraseLimit, r.Silence)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}
		if seg.Feed(buf) {
			break
		}
	}

	out := seg.Samples()
	if len(out) == 0 {
		return nil, ErrNoSpeech
	}
	return out, nil
}
