package intent

import "fmt"

type Kind uint

const (
	Unknown Kind = iota
	Weather
	Timer
	Music
	News
	Calendar
	CheckEmail
	SendEmail
	Question
	Sleep
	Exit
)

var kindNames = map[Kind]string{
	Unknown:    "unknown",
	Weather:    "weather",
	Timer:      "timer",
	Music:      "music",
	News:       "news",
	Calendar:   "calendar",
	CheckEmail: "check_email",
	SendEmail:  "send_email",
	Question:   "question",
	Sleep:      "sleep",
	Exit:       "exit",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint(k))
}

// Parameter names.
const (
	ParamLocation  = "location"
	ParamDuration  = "duration_seconds"
	ParamSong      = "song"
	ParamPlatform  = "platform"
	ParamCategory  = "category"
	ParamTitle     = "title"
	ParamDate      = "date"
	ParamTime      = "time"
	ParamRecipient = "recipient"
	ParamSubject   = "subject"
	ParamBody      = "body"
	ParamQuery     = "query"
)

// Clock is a wall-clock time of day in 24h form.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	suffix := "AM"
	if c.Hour >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, suffix)
}

// Params is the parameter bag extracted for one intent. Values are string,
// int or Clock; a field is either present with its documented type or absent.
type Params map[string]any

func (p Params) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok && v != ""
}

func (p Params) Int(key string) (int, bool) {
	v, ok := p[key].(int)
	return v, ok
}

func (p Params) Clock(key string) (Clock, bool) {
	v, ok := p[key].(Clock)
	return v, ok
}

// StringOr returns the string at key or def when it is absent.
func (p Params) StringOr(key, def string) string {
	if v, ok := p.String(key); ok {
		return v
	}
	return def
}

func (p Params) setString(key, v string) {
	if v != "" {
		p[key] = v
	}
}

// Intent is the classified purpose of one utterance.
type Intent struct {
	Kind   Kind
	Params Params
	Text   string
}
