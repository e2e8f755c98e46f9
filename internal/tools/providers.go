package tools

import (
	"context"
	"time"

	"voxd/internal/timer"
)

// WeatherReading is one set of current conditions.
type WeatherReading struct {
	Description string
	TempC       int
	TempF       int
	FeelsLikeC  int
	FeelsLikeF  int
	Humidity    int
	WindKmph    int
}

type WeatherProvider interface {
	Current(ctx context.Context, location string) (WeatherReading, error)
}

type Headline struct {
	Title       string
	Description string
}

type NewsProvider interface {
	Headlines(ctx context.Context, category string, n int) ([]Headline, error)
}

type CalendarProvider interface {
	// Schedule writes one event and returns a provider confirmation id.
	Schedule(ctx context.Context, title string, start, end time.Time) (string, error)
}

type MailSummary struct {
	From    string
	Subject string
	Date    time.Time
}

type MailReader interface {
	Latest(ctx context.Context, n int) ([]MailSummary, error)
}

type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type MediaOpener interface {
	Open(ctx context.Context, platform, query string) error
}

type Answerer interface {
	Answer(ctx context.Context, query string) string
}

type TimerStarter interface {
	Start(d time.Duration) timer.Handle
}
