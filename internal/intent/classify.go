package intent

import (
	"regexp"
	"strings"
)

// rule is one entry of the classification cascade. Rules are evaluated in
// slice order and the first whose match reports true decides the intent.
type rule struct {
	name  string
	match func(text string) bool
	build func(text string) (Kind, Params)
}

func keywords(words ...string) func(string) bool {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re := regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return re.MatchString
}

func fixed(k Kind) func(string) (Kind, Params) {
	return func(string) (Kind, Params) { return k, Params{} }
}

var (
	sendWords     = keywords("send", "write", "compose")
	questionWords = keywords("what", "who", "where", "when", "why", "how", "tell me")
)

func question(text string) (Kind, Params) {
	return Question, Params{ParamQuery: text}
}

var rules = []rule{
	{
		name:  "sleep",
		match: keywords("go to sleep", "sleep mode", "stop listening", "that's all", "thats all", "never mind", "nevermind"),
		build: fixed(Sleep),
	},
	{
		name:  "exit",
		match: keywords("exit", "quit", "stop", "goodbye", "bye", "shut down"),
		build: fixed(Exit),
	},
	{
		name:  "calendar",
		match: keywords("schedule", "calendar", "meeting", "appointment", "book", "event"),
		build: func(text string) (Kind, Params) { return Calendar, ExtractCalendar(text) },
	},
	{
		name:  "email",
		match: keywords("email", "e-mail", "emails", "mail", "inbox"),
		build: func(text string) (Kind, Params) {
			if sendWords(text) {
				return SendEmail, ExtractEmail(text)
			}
			return CheckEmail, Params{}
		},
	},
	{
		name:  "music",
		match: keywords("play", "music", "song", "spotify"),
		build: func(text string) (Kind, Params) { return Music, ExtractMusic(text) },
	},
	{
		name:  "news",
		match: keywords("news", "headline", "headlines"),
		build: func(text string) (Kind, Params) {
			return News, Params{ParamCategory: ExtractNewsCategory(text)}
		},
	},
	{
		name:  "timer",
		match: keywords("timer", "alarm", "remind", "reminder", "countdown"),
		build: func(text string) (Kind, Params) {
			return Timer, Params{ParamDuration: ExtractDuration(text)}
		},
	},
	{
		name:  "weather",
		match: keywords("weather", "temperature", "forecast", "hot", "cold", "rain", "raining", "sunny"),
		build: func(text string) (Kind, Params) {
			return Weather, Params{ParamLocation: ExtractLocation(text)}
		},
	},
	{
		name: "question",
		match: func(text string) bool {
			return questionWords(text) || strings.Contains(text, "?")
		},
		build: question,
	},
}

// Normalize lower-cases and trims an utterance.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify maps an utterance to exactly one intent. Empty input is Unknown;
// anything no rule claims becomes a Question.
func Classify(text string) Intent {
	text = Normalize(text)
	if text == "" {
		return Intent{Kind: Unknown, Params: Params{}}
	}

	for _, r := range rules {
		if r.match(text) {
			k, p := r.build(text)
			return Intent{Kind: k, Params: p, Text: text}
		}
	}

	k, p := question(text)
	return Intent{Kind: k, Params: p, Text: text}
}

// RuleOrder lists the rule names in evaluation order.
func RuleOrder() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.name
	}
	return out
}
