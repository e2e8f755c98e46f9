// Package speech implements the listeners and speakers the conversation
// loop talks through.
package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "log/slog"

	"voxd/internal/audio"
	"voxd/internal/conversation"
	"voxd/internal/fault"
)

type Capturer interface {
	Capture(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

// Mic listens on the default input device and transcribes locally.
type Mic struct {
	Capture Capturer
	STT     Transcriber
}

func (m *Mic) Listen(ctx context.Context, w conversation.Window) (string, error) {
	pcm, err := m.Capture.Capture(ctx, w.Timeout, w.PhraseLimit)
	switch {
	case errors.Is(err, audio.ErrNoSpeech):
		return "", fault.ErrListenTimeout
	case err != nil:
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: capture: %v", fault.ErrSpeechService, err)
	}

	start := time.Now()
	text, err := m.STT.Transcribe(ctx, pcm)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: transcribe: %v", fault.ErrSpeechService, err)
	}
	log.Debug("Transcribed", "text", text, "samples", len(pcm), "took", time.Since(start))

	if text == "" {
		return "", fault.ErrUnintelligible
	}
	return text, nil
}
