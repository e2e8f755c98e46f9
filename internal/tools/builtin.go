package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voxd/internal/fault"
	"voxd/internal/intent"
	"voxd/internal/timer"
)

type Weather struct {
	Provider WeatherProvider
}

func (Weather) Name() string { return NameWeather }

func (Weather) Failure() string {
	return "Sorry, I'm having trouble accessing weather information right now."
}

func (w Weather) Invoke(ctx context.Context, p intent.Params) (string, error) {
	if w.Provider == nil {
		return "", fault.NotConfigured("weather")
	}

	loc := p.StringOr(intent.ParamLocation, intent.CurrentLocation)
	r, err := w.Provider.Current(ctx, loc)
	if err != nil {
		return "", fmt.Errorf("weather for %q: %w", loc, err)
	}

	where := "in " + loc
	if loc == intent.CurrentLocation {
		where = "where you are"
	}

	return fmt.Sprintf(
		"The weather %s is %s with a temperature of %d degrees Celsius or %d degrees Fahrenheit. "+
			"It feels like %d degrees. Humidity is %d percent and the wind is %d kilometers per hour.",
		where, strings.ToLower(r.Description), r.TempC, r.TempF, r.FeelsLikeC, r.Humidity, r.WindKmph,
	), nil
}

type Timer struct {
	Timers TimerStarter
}

func (Timer) Name() string { return NameTimer }

func (t Timer) Invoke(_ context.Context, p intent.Params) (string, error) {
	if t.Timers == nil {
		return "", fault.NotConfigured("timers")
	}

	secs, ok := p.Int(intent.ParamDuration)
	if !ok || secs < 0 {
		secs = intent.DefaultDurationSeconds
	}
	if secs > intent.MaxDurationSeconds {
		return fmt.Sprintf("Sorry, I can only set timers for up to %s.",
			timer.Describe(intent.MaxDurationSeconds*time.Second)), nil
	}

	h := t.Timers.Start(time.Duration(secs) * time.Second)
	return fmt.Sprintf("Timer set for %s.", timer.Describe(h.Duration)), nil
}

// TimerDone is what gets said when a timer completes.
func TimerDone(h timer.Handle) string {
	return fmt.Sprintf("Timer for %s is complete!", timer.Describe(h.Duration))
}

var platformNames = map[string]string{
	"youtube": "YouTube",
	"spotify": "Spotify",
	"apple":   "Apple Music",
}

type Music struct {
	Opener MediaOpener
}

func (Music) Name() string { return NameMusic }

func (Music) Failure() string {
	return "Sorry, I couldn't open the music player."
}

func (m Music) Invoke(ctx context.Context, p intent.Params) (string, error) {
	if m.Opener == nil {
		return "", fault.NotConfigured("music playback")
	}

	platform := p.StringOr(intent.ParamPlatform, intent.DefaultPlatform)
	song, hasSong := p.String(intent.ParamSong)

	if err := m.Opener.Open(ctx, platform, song); err != nil {
		return "", fmt.Errorf("open %s: %w", platform, err)
	}

	name := platformNames[platform]
	if name == "" {
		name = platform
	}
	if !hasSong {
		return fmt.Sprintf("Opening %s.", name), nil
	}
	return fmt.Sprintf("Playing %s on %s.", song, name), nil
}

const maxHeadlines = 3

var ordinals = []string{"First", "Second", "Third"}

type News struct {
	Provider NewsProvider
}

func (News) Name() string { return NameNews }

func (News) Failure() string {
	return "Sorry, I couldn't get the news right now."
}

func (n News) Invoke(ctx context.Context, p intent.Params) (string, error) {
	if n.Provider == nil {
		return "", fault.NotConfigured("news")
	}

	category := p.StringOr(intent.ParamCategory, intent.DefaultCategory)
	items, err := n.Provider.Headlines(ctx, category, maxHeadlines)
	if err != nil {
		return "", fmt.Errorf("%s headlines: %w", category, err)
	}
	if len(items) == 0 {
		return fmt.Sprintf("I couldn't find any %s news right now.", category), nil
	}
	if len(items) > maxHeadlines {
		items = items[:maxHeadlines]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the top %s headlines.", category)
	for i, h := range items {
		fmt.Fprintf(&b, " %s: %s.", ordinals[i], strings.TrimRight(h.Title, ". "))
	}
	return b.String(), nil
}

type Question struct {
	Answers Answerer
}

func (Question) Name() string { return NameQuestion }

func (q Question) Invoke(ctx context.Context, p intent.Params) (string, error) {
	if q.Answers == nil {
		return "", fault.NotConfigured("question answering")
	}
	query, ok := p.String(intent.ParamQuery)
	if !ok {
		return "What would you like to know?", nil
	}
	return q.Answers.Answer(ctx, query), nil
}
