package intent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultDurationSeconds is used when a timer request carries no number.
	DefaultDurationSeconds = 60
	// MaxDurationSeconds is the longest timer that can be requested.
	MaxDurationSeconds = 24 * 3600
	// CurrentLocation is the location sentinel for "wherever the user is".
	CurrentLocation = "current location"
	DefaultTitle    = "Meeting"
	DefaultPlatform = "youtube"
	DefaultCategory = "general"
)

type durationUnit struct {
	re    *regexp.Regexp
	scale int
}

// Checked in this order; the first unit pattern that matches wins even when
// a later unit appears earlier in the text.
var durationUnits = []durationUnit{
	{regexp.MustCompile(`(\d+)\s*(?:minute|min)`), 60},
	{regexp.MustCompile(`(\d+)\s*(?:second|sec)`), 1},
	{regexp.MustCompile(`(\d+)\s*(?:hour|hr)`), 3600},
}

var bareNumberRe = regexp.MustCompile(`\d+`)

// ExtractDuration returns the requested duration in seconds. A number
// without a unit is read as minutes; no number at all, or one that would run
// past MaxDurationSeconds, yields the default.
func ExtractDuration(text string) int {
	for _, u := range durationUnits {
		m := u.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if secs, ok := scaleDuration(m[1], u.scale); ok {
			return secs
		}
		return DefaultDurationSeconds
	}

	if m := bareNumberRe.FindString(text); m != "" {
		if secs, ok := scaleDuration(m, 60); ok {
			return secs
		}
	}

	return DefaultDurationSeconds
}

// scaleDuration checks the bound before multiplying so huge numbers cannot
// wrap around.
func scaleDuration(digits string, scale int) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n > MaxDurationSeconds/scale {
		return 0, false
	}
	return n * scale, true
}

var (
	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`weather in ([a-z\s]+)`),
		regexp.MustCompile(`weather for ([a-z\s]+)`),
		regexp.MustCompile(`weather at ([a-z\s]+)`),
		regexp.MustCompile(`\bin ([a-z\s]+)`),
	}
	locationFiller = regexp.MustCompile(`\b(?:the|city|of|today|tomorrow)\b`)
)

// ExtractLocation returns the place named in a weather request, title-cased,
// or CurrentLocation when none is found.
func ExtractLocation(text string) string {
	for _, re := range locationPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		loc := locationFiller.ReplaceAllString(m[1], "")
		loc = strings.Join(strings.Fields(loc), " ")
		if utf8.RuneCountInString(loc) <= 1 {
			continue
		}
		return cases.Title(language.English).String(loc)
	}
	return CurrentLocation
}

var (
	titlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bschedule\s+(?:an?\s+)?(.+?)\s+(?:for|at)\b`),
		regexp.MustCompile(`\bbook\s+(?:an?\s+)?(.+?)\s+(?:for|at)\b`),
		regexp.MustCompile(`\bmeeting\s+(?:about|for)\s+(.+?)\s+at\b`),
	}

	clockAtRe      = regexp.MustCompile(`\bat\s+(\d{1,2}):(\d{2})\s*([ap])\.?\s?m\b`)
	clockRe        = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*([ap])\.?\s?m\b`)
	clockOClockRe  = regexp.MustCompile(`\bat\s+(\d{1,2})\s*o'?\s?clock\b`)
	clockHourAmPm  = regexp.MustCompile(`\bat\s+(\d{1,2})\s*([ap])\.?\s?m\b`)
	weekdayRe      = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	monthDayRe     = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	literalDates   = []string{"tomorrow", "today", "next week"}
)

// ExtractCalendar pulls title, date and time out of a scheduling request.
// The title always has a value; date and time are set only when found.
func ExtractCalendar(text string) Params {
	p := Params{ParamTitle: DefaultTitle}

	for _, re := range titlePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if t := strings.TrimSpace(m[1]); t != "" {
				p[ParamTitle] = capitalize(t)
				break
			}
		}
	}

	if c, ok := extractClock(text); ok {
		p[ParamTime] = c
	}
	p.setString(ParamDate, extractDate(text))

	return p
}

func extractClock(text string) (Clock, bool) {
	for _, re := range []*regexp.Regexp{clockAtRe, clockRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			h, _ := strconv.Atoi(m[1])
			minute, _ := strconv.Atoi(m[2])
			if c, ok := meridiem(h, minute, m[3]); ok {
				return c, true
			}
		}
	}

	if m := clockOClockRe.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h >= 1 && h <= 6 {
			// "at 3 o'clock" almost always means the afternoon.
			h += 12
		}
		if h <= 23 {
			return Clock{Hour: h}, true
		}
	}

	if m := clockHourAmPm.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		if c, ok := meridiem(h, 0, m[2]); ok {
			return c, true
		}
	}

	return Clock{}, false
}

func meridiem(h, minute int, ap string) (Clock, bool) {
	if h < 1 || h > 12 || minute > 59 {
		return Clock{}, false
	}
	h %= 12
	if ap == "p" {
		h += 12
	}
	return Clock{Hour: h, Minute: minute}, true
}

func extractDate(text string) string {
	for _, lit := range literalDates {
		if strings.Contains(text, lit) {
			return lit
		}
	}
	if m := weekdayRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := monthDayRe.FindStringSubmatch(text); m != nil {
		return m[1] + " " + m[2]
	}
	return ""
}

var songRe = regexp.MustCompile(`\bplay\s+(.+?)(?:\s+(?:on|from)\b|$)`)

// ExtractMusic returns the song (when named) and the platform to search.
func ExtractMusic(text string) Params {
	p := Params{ParamPlatform: DefaultPlatform}

	if m := songRe.FindStringSubmatch(text); m != nil {
		p.setString(ParamSong, strings.TrimSpace(m[1]))
	}

	switch {
	case strings.Contains(text, "spotify"):
		p[ParamPlatform] = "spotify"
	case strings.Contains(text, "apple"):
		p[ParamPlatform] = "apple"
	}

	return p
}

var (
	addressRe     = regexp.MustCompile(`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	recipientToRe = regexp.MustCompile(`\bto\s+(.+?)\s+(?:saying|about|with)\b`)
	subjectRes    = []*regexp.Regexp{
		regexp.MustCompile(`\bsubject\s+(.+?)\s+(?:saying|message)\b`),
		regexp.MustCompile(`\babout\s+(.+?)\s+(?:saying|message)\b`),
	}
	bodyRe = regexp.MustCompile(`\b(?:saying|message)\s+(.+)$`)
)

// ExtractEmail returns whichever of recipient, subject and body it can find.
func ExtractEmail(text string) Params {
	p := Params{}

	if addr := addressRe.FindString(text); addr != "" {
		p[ParamRecipient] = addr
	} else if m := recipientToRe.FindStringSubmatch(text); m != nil {
		p.setString(ParamRecipient, spokenAddress(strings.TrimSpace(m[1])))
	}

	for _, re := range subjectRes {
		if m := re.FindStringSubmatch(text); m != nil {
			p.setString(ParamSubject, strings.TrimSpace(m[1]))
			break
		}
	}

	if m := bodyRe.FindStringSubmatch(text); m != nil {
		p.setString(ParamBody, strings.TrimSpace(m[1]))
	}

	return p
}

// spokenAddress turns "jane at example dot com" into "jane@example.com".
// Anything that does not look like a dictated address is returned unchanged.
func spokenAddress(s string) string {
	if !strings.Contains(s, " at ") || !strings.Contains(s, " dot ") {
		return s
	}
	s = strings.ReplaceAll(s, " at ", "@")
	s = strings.ReplaceAll(s, " dot ", ".")
	return strings.Join(strings.Fields(s), "")
}

var newsCategories = []string{"business", "entertainment", "health", "science", "sports", "technology"}

func ExtractNewsCategory(text string) string {
	for _, c := range newsCategories {
		if strings.Contains(text, c) {
			return c
		}
	}
	if strings.Contains(text, "tech") {
		return "technology"
	}
	if strings.Contains(text, "sport") {
		return "sports"
	}
	return DefaultCategory
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
