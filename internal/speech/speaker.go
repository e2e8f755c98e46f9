package speech

import (
	"context"
	"errors"
	"sync"

	log "log/slog"

	"voxd/internal/conversation"
)

// Serial fans every sentence out to its speakers one sentence at a time,
// so timer notifications never talk over the main loop.
type Serial struct {
	mu       sync.Mutex
	speakers []conversation.Speaker
}

func NewSerial(speakers ...conversation.Speaker) *Serial {
	return &Serial{speakers: speakers}
}

func (s *Serial) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info("Assistant", "says", text)

	var errs []error
	for _, sp := range s.speakers {
		if err := sp.Speak(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
