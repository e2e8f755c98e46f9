package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"voxd/internal/fault"
	"voxd/internal/intent"
)

const (
	eventLength     = time.Hour
	defaultStartsAt = 9
)

type Calendar struct {
	Provider CalendarProvider
	Now      func() time.Time
}

func (Calendar) Name() string { return NameCalendar }

func (Calendar) Failure() string {
	return "Sorry, I couldn't add that to your calendar."
}

func (c Calendar) Invoke(ctx context.Context, p intent.Params) (string, error) {
	if c.Provider == nil {
		return "", fault.NotConfigured("calendar")
	}

	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}

	title := p.StringOr(intent.ParamTitle, intent.DefaultTitle)
	start := EventStart(now, p.StringOr(intent.ParamDate, "today"), p)
	end := start.Add(eventLength)

	if _, err := c.Provider.Schedule(ctx, title, start, end); err != nil {
		return "", fmt.Errorf("schedule %q: %w", title, err)
	}

	return fmt.Sprintf("I've scheduled %s for %s.", title, start.Format("Monday, January 2 at 3:04 PM")), nil
}

// EventStart resolves the spoken date and time against now. Without a time,
// an event today starts at the next full hour and any other day at 9 AM.
func EventStart(now time.Time, date string, p intent.Params) time.Time {
	day := resolveDay(now, date)

	if c, ok := p.Clock(intent.ParamTime); ok {
		return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, now.Location())
	}

	if sameDay(day, now) {
		return now.Truncate(time.Hour).Add(time.Hour)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), defaultStartsAt, 0, 0, 0, now.Location())
}

func resolveDay(now time.Time, date string) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch date {
	case "", "today":
		return today
	case "tomorrow":
		return today.AddDate(0, 0, 1)
	case "next week":
		return today.AddDate(0, 0, 7)
	}

	if wd, ok := weekdays[date]; ok {
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead)
	}

	if month, day, ok := monthDay(date); ok {
		d := time.Date(today.Year(), month, day, 0, 0, 0, 0, now.Location())
		if d.Before(today) {
			d = d.AddDate(1, 0, 0)
		}
		return d
	}

	return today
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func monthDay(s string) (time.Month, int, bool) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, 0, false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), parts[0]) {
			return m, day, true
		}
	}
	return 0, 0, false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
