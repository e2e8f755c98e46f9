// Package conversation runs the wake-word / active command loop.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	log "log/slog"

	"voxd/internal/fault"
	"voxd/internal/intent"
)

type State uint32

const (
	WakeListening State = iota
	Active
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case WakeListening:
		return "wake_listening"
	case Active:
		return "active"
	case ShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Window bounds one listen call: how long to wait for speech to start and
// how long a phrase may run.
type Window struct {
	Timeout     time.Duration
	PhraseLimit time.Duration
}

var (
	DefaultWakeWindow    = Window{Timeout: 3 * time.Second, PhraseLimit: 4 * time.Second}
	DefaultCommandWindow = Window{Timeout: 5 * time.Second, PhraseLimit: 10 * time.Second}
	DefaultWakePhrases   = []string{"hey assistant", "ok assistant", "hello assistant"}
)

// Spoken replies owned by the loop itself.
const (
	Acknowledgement     = "Yes? How can I help?"
	SleepReply          = "Going to sleep. Say the wake phrase when you need me."
	Farewell            = "Goodbye! Have a great day!"
	InterruptFarewell   = "Goodbye!"
	UnintelligibleReply = "Sorry, I couldn't understand what you said."
	ServiceReply        = "Sorry, there was an error with the speech recognition service."
	FollowUpPrompt      = "Anything else?"
	FollowUpDone        = "Okay. Just say the wake phrase if you need me."
)

// Listener captures one utterance. It returns fault.ErrListenTimeout when
// nobody spoke, fault.ErrUnintelligible when speech could not be
// transcribed, fault.ErrSpeechService when the recognizer failed and
// fault.ErrInputClosed when no more input will ever arrive.
type Listener interface {
	Listen(ctx context.Context, w Window) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, in intent.Intent) string
}

// Request is an out-of-band instruction from the control socket.
type Request uint8

const (
	RequestWake Request = iota + 1
	RequestSleep
)

type Config struct {
	WakePhrases   []string
	WakeWindow    Window
	CommandWindow Window
	// Greeting is spoken once when Run starts, if set.
	Greeting string
	// FollowUp asks "Anything else?" after each answered command and goes
	// back to wake listening on a negative reply or silence.
	FollowUp bool
	// OnTransition runs on the loop goroutine after every state change.
	OnTransition func(from, to State)
}

type Machine struct {
	cfg      Config
	listener Listener
	speaker  Speaker
	dispatch Dispatcher

	state    atomic.Uint32
	requests chan Request

	awaiting bool
}

func New(l Listener, s Speaker, d Dispatcher, cfg Config) *Machine {
	if len(cfg.WakePhrases) == 0 {
		cfg.WakePhrases = DefaultWakePhrases
	}
	if cfg.WakeWindow == (Window{}) {
		cfg.WakeWindow = DefaultWakeWindow
	}
	if cfg.CommandWindow == (Window{}) {
		cfg.CommandWindow = DefaultCommandWindow
	}
	phrases := make([]string, 0, len(cfg.WakePhrases))
	for _, p := range cfg.WakePhrases {
		phrases = append(phrases, strings.ToLower(strings.TrimSpace(p)))
	}
	cfg.WakePhrases = phrases

	return &Machine{
		cfg:      cfg,
		listener: l,
		speaker:  s,
		dispatch: d,
		requests: make(chan Request, 8),
	}
}

func (m *Machine) State() State {
	return State(m.state.Load())
}

// Request queues r to be applied before the next turn. It reports false if
// the queue is full.
func (m *Machine) Request(r Request) bool {
	select {
	case m.requests <- r:
		return true
	default:
		return false
	}
}

// Run drives the loop until an Exit intent, closed input or ctx
// cancellation. None of those is an error.
func (m *Machine) Run(ctx context.Context) error {
	if m.cfg.Greeting != "" {
		m.say(ctx, m.cfg.Greeting)
	}

	for {
		if m.State() == ShuttingDown {
			return nil
		}
		if ctx.Err() != nil {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			m.say(sctx, InterruptFarewell)
			cancel()
			m.setState(ShuttingDown)
			return nil
		}

		m.applyRequests(ctx)

		switch m.State() {
		case WakeListening:
			m.wakeTurn(ctx)
		case Active:
			m.activeTurn(ctx)
		}
	}
}

func (m *Machine) applyRequests(ctx context.Context) {
	for {
		select {
		case r := <-m.requests:
			switch {
			case r == RequestWake && m.State() == WakeListening:
				log.Info("Woken by request")
				m.setState(Active)
				m.say(ctx, Acknowledgement)
			case r == RequestSleep && m.State() == Active:
				log.Info("Put to sleep by request")
				m.awaiting = false
				m.setState(WakeListening)
			}
		default:
			return
		}
	}
}

func (m *Machine) wakeTurn(ctx context.Context) {
	text, ok := m.listen(ctx, m.cfg.WakeWindow)
	if !ok {
		return
	}

	rest, woke := m.splitWake(text)
	if !woke {
		log.Debug("Ignoring speech without wake phrase", "text", text)
		return
	}

	log.Info("Wake phrase heard")
	m.setState(Active)
	if rest == "" {
		m.say(ctx, Acknowledgement)
		return
	}
	m.handle(ctx, rest)
}

func (m *Machine) activeTurn(ctx context.Context) {
	text, ok := m.listen(ctx, m.cfg.CommandWindow)
	if !ok {
		return
	}

	if m.awaiting {
		m.awaiting = false
		if isNegative(text) {
			m.say(ctx, FollowUpDone)
			m.setState(WakeListening)
			return
		}
	}
	m.handle(ctx, text)
}

// listen runs one capture and consumes every input error. It reports false
// when there is nothing to process this turn.
func (m *Machine) listen(ctx context.Context, w Window) (string, bool) {
	text, err := m.listener.Listen(ctx, w)
	if err == nil {
		text = strings.TrimSpace(text)
		return text, text != ""
	}

	switch {
	case ctx.Err() != nil:
	case errors.Is(err, fault.ErrUnintelligible):
		m.say(ctx, UnintelligibleReply)
		fallthrough
	case errors.Is(err, fault.ErrListenTimeout):
		if m.awaiting {
			m.awaiting = false
			m.setState(WakeListening)
		}
	case errors.Is(err, fault.ErrInputClosed):
		log.Info("Speech input closed")
		m.setState(ShuttingDown)
	default:
		if !errors.Is(err, fault.ErrSpeechService) {
			log.Warn("Unexpected listener error", "err", err)
		}
		log.Error("Speech service failure", "err", err)
		m.say(ctx, ServiceReply)
	}
	return "", false
}

func (m *Machine) handle(ctx context.Context, text string) {
	in := intent.Classify(text)
	log.Info("Classified", "intent", in.Kind, "text", text)

	switch in.Kind {
	case intent.Sleep:
		m.say(ctx, SleepReply)
		m.setState(WakeListening)
	case intent.Exit:
		m.say(ctx, Farewell)
		m.setState(ShuttingDown)
	default:
		m.say(ctx, m.dispatch.Dispatch(ctx, in))
		if m.cfg.FollowUp {
			m.say(ctx, FollowUpPrompt)
			m.awaiting = true
		}
	}
}

func (m *Machine) setState(to State) {
	from := State(m.state.Swap(uint32(to)))
	if from == to {
		return
	}
	log.Debug("State change", "from", from, "to", to)
	if m.cfg.OnTransition != nil {
		m.cfg.OnTransition(from, to)
	}
}

func (m *Machine) say(ctx context.Context, text string) {
	if err := m.speaker.Speak(ctx, text); err != nil {
		log.Warn("Speak failed", "err", err)
	}
}

var wakeCleaner = strings.NewReplacer(",", " ", ".", " ", "!", " ")

// splitWake finds a wake phrase at a word boundary and returns whatever was
// said after it.
func (m *Machine) splitWake(text string) (string, bool) {
	norm := " " + strings.Join(strings.Fields(wakeCleaner.Replace(strings.ToLower(text))), " ")

	for _, p := range m.cfg.WakePhrases {
		i := strings.Index(norm, " "+p)
		for i >= 0 {
			after := norm[i+1+len(p):]
			if after == "" || after[0] == ' ' || after[0] == '?' {
				return strings.TrimSpace(strings.TrimPrefix(after, "?")), true
			}
			next := strings.Index(after, " "+p)
			if next < 0 {
				break
			}
			i += 1 + len(p) + next
		}
	}
	return "", false
}

var negatives = map[string]bool{
	"no":              true,
	"nope":            true,
	"nah":             true,
	"no thanks":       true,
	"no thank you":    true,
	"nothing":         true,
	"nothing else":    true,
	"that's it":       true,
	"thats it":        true,
	"i'm good":        true,
	"im good":         true,
	"i'm done":        true,
	"no that's it":    true,
	"no that's all":   true,
	"not right now":   true,
	"no i'm good":     true,
	"nope that's all": true,
}

func isNegative(text string) bool {
	return negatives[strings.Join(strings.Fields(wakeCleaner.Replace(intent.Normalize(text))), " ")]
}
