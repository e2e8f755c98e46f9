package tools

import (
	"context"
	"errors"
	"fmt"

	log "log/slog"

	"voxd/internal/fault"
	"voxd/internal/intent"
)

const (
	UnknownReply  = "I'm not sure how to help with that. Can you try asking in a different way?"
	InternalReply = "Sorry, I encountered an error. Let me try again."
	ProviderReply = "Sorry, I'm having trouble reaching that service right now."
)

var routes = map[intent.Kind]string{
	intent.Weather:    NameWeather,
	intent.Timer:      NameTimer,
	intent.Music:      NameMusic,
	intent.News:       NameNews,
	intent.Calendar:   NameCalendar,
	intent.CheckEmail: NameEmail,
	intent.SendEmail:  NameSendEmail,
	intent.Question:   NameQuestion,
}

// Observer receives dispatch outcomes; the daemon feeds it into metrics.
type Observer interface {
	ObserveIntent(kind string)
	ObserveFailure(tool, class string)
}

type Dispatcher struct {
	registry *Registry
	observer Observer
}

func NewDispatcher(registry *Registry, observer Observer) *Dispatcher {
	return &Dispatcher{registry: registry, observer: observer}
}

// Dispatch runs the tool for in and returns the sentence to speak. It never
// fails: every error is converted into a reply.
func (d *Dispatcher) Dispatch(ctx context.Context, in intent.Intent) string {
	if d.observer != nil {
		d.observer.ObserveIntent(in.Kind.String())
	}

	name, ok := routes[in.Kind]
	if !ok {
		return UnknownReply
	}

	tool, err := d.registry.Get(name)
	if err != nil {
		log.Warn("No tool for intent", "intent", in.Kind, "err", err)
		return d.reply(name, fault.NotConfigured(name), nil)
	}

	params := in.Params
	if params == nil {
		params = intent.Params{}
	}

	out, err := invoke(ctx, tool, params)
	if err != nil {
		return d.reply(name, err, tool)
	}
	return out
}

func invoke(ctx context.Context, t Tool, params intent.Params) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &fault.InternalError{Where: t.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return t.Invoke(ctx, params)
}

func (d *Dispatcher) reply(name string, err error, t Tool) string {
	var (
		cfgErr  *fault.ConfigError
		provErr *fault.ProviderError
		class   string
		out     string
	)

	switch {
	case errors.As(err, &cfgErr):
		class = "config"
		out = fmt.Sprintf("Sorry, %s isn't set up yet.", cfgErr.Capability)
	case errors.As(err, &provErr):
		class = "provider"
		out = ProviderReply
		if a, ok := t.(Apologizer); ok {
			out = a.Failure()
		}
	default:
		class = "internal"
		out = InternalReply
	}

	log.Error("Tool failed", "tool", name, "class", class, "err", err)
	if d.observer != nil {
		d.observer.ObserveFailure(name, class)
	}
	return out
}
