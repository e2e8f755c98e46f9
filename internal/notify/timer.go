package notify

import (
	"context"
	"time"

	log "log/slog"

	"voxd/internal/timer"
	"voxd/internal/tools"
)

type speaker interface {
	Speak(ctx context.Context, text string) error
}

type player interface {
	Play() error
}

type sender interface {
	Send(ctx context.Context, title, body string) error
}

// TimerAlert announces a finished timer. Only the speaker is required; the
// chime and desktop popup are best effort.
type TimerAlert struct {
	Speaker speaker
	Chime   player
	Desktop sender
	Timeout time.Duration
}

// Done matches timer.Notifier.
func (a *TimerAlert) Done(h timer.Handle) {
	msg := tools.TimerDone(h)

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.Desktop != nil {
		if err := a.Desktop.Send(ctx, "Timer", msg); err != nil {
			log.Warn("Desktop notification failed", "timer", h.ID, "err", err)
		}
	}
	if a.Chime != nil {
		if err := a.Chime.Play(); err != nil {
			log.Warn("Chime failed", "timer", h.ID, "err", err)
		}
	}
	if err := a.Speaker.Speak(ctx, msg); err != nil {
		log.Error("Timer announcement failed", "timer", h.ID, "err", err)
	}
}
