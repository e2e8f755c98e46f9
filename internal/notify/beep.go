// Package notify announces finished timers: a chime, a desktop popup and a
// spoken sentence.
package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

const outputRate beep.SampleRate = 44100

// Chime plays a short sound file through the default output.
type Chime struct {
	path string

	mu      sync.Mutex
	once    sync.Once
	initErr error
}

func NewChime(path string) *Chime {
	return &Chime{path: path}
}

// Play blocks until the sound has finished.
func (c *Chime) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.once.Do(func() {
		c.initErr = speaker.Init(outputRate, outputRate.N(time.Second/10))
	})
	if c.initErr != nil {
		return fmt.Errorf("init speaker: %w", c.initErr)
	}

	f, err := os.Open(c.path)
	if err != nil {
		return err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(c.path)) {
	case ".wav":
		stream, format, err = wav.Decode(f)
	default:
		stream, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", c.path, err)
	}
	defer stream.Close()

	done := make(chan struct{})
	speaker.Play(beep.Seq(
		beep.Resample(4, format.SampleRate, outputRate, stream),
		beep.Callback(func() { close(done) }),
	))
	<-done
	return nil
}
