// Package tools holds the named capabilities an intent can be routed to and
// the dispatcher that turns any tool failure into a spoken sentence.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"voxd/internal/intent"
)

// Tool names.
const (
	NameWeather   = "weather"
	NameTimer     = "timer"
	NameMusic     = "music"
	NameNews      = "news"
	NameCalendar  = "calendar"
	NameEmail     = "email"
	NameSendEmail = "email_send"
	NameQuestion  = "question"
)

// Tool is one capability with a uniform contract: parameters in, reply text
// out.
type Tool interface {
	Name() string
	Invoke(ctx context.Context, params intent.Params) (string, error)
}

// Apologizer lets a tool choose what is said when its provider fails.
type Apologizer interface {
	Failure() string
}

type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = t
	return nil
}

func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return t, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
