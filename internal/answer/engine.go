// Package answer resolves open questions through an ordered chain of tiers:
// a chat model, an instant-answer search API and a scraped results page.
package answer

import (
	"context"
	"strings"
	"time"

	log "log/slog"

	"voxd/internal/fault"
)

// Apology is returned when every tier comes back empty.
const Apology = "I couldn't find a good answer to that question. You might want to try asking in a different way."

const defaultTierTimeout = 15 * time.Second

type Tier uint

const (
	TierLLM Tier = iota
	TierSearch
	TierScrape
)

func (t Tier) String() string {
	switch t {
	case TierLLM:
		return "llm"
	case TierSearch:
		return "search"
	case TierScrape:
		return "scrape"
	default:
		return "unknown"
	}
}

type Outcome uint

const (
	Success Outcome = iota
	Empty
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Empty:
		return "empty"
	default:
		return "failed"
	}
}

// Attempt is the result of asking one tier.
type Attempt struct {
	Tier    Tier
	Outcome Outcome
	Text    string
	Kind    fault.Kind // set when Outcome is Failed
	Err     error
}

func succeeded(t Tier, text string) Attempt {
	text = strings.TrimSpace(text)
	if text == "" {
		return Attempt{Tier: t, Outcome: Empty}
	}
	return Attempt{Tier: t, Outcome: Success, Text: text}
}

func failed(t Tier, err error) Attempt {
	return Attempt{Tier: t, Outcome: Failed, Kind: fault.KindOf(err), Err: err}
}

// Source is one stage of the chain.
type Source interface {
	Tier() Tier
	Attempt(ctx context.Context, query string) Attempt
}

// Observer receives every tier outcome; the daemon feeds it into metrics.
type Observer interface {
	ObserveTier(tier, outcome string)
}

type Config struct {
	// Timeouts bounds each tier; tiers without an entry get 15s.
	Timeouts map[Tier]time.Duration
	Cache    *Cache
	Observer Observer
}

type Engine struct {
	sources []Source
	cfg     Config
}

// NewEngine builds an engine that tries sources in the order given.
func NewEngine(cfg Config, sources ...Source) *Engine {
	return &Engine{sources: sources, cfg: cfg}
}

// Answer returns the first usable answer, or Apology. It never fails.
func (e *Engine) Answer(ctx context.Context, query string) string {
	text, _ := e.Resolve(ctx, query)
	return text
}

// Resolve is Answer plus the list of attempts that were made, in order.
func (e *Engine) Resolve(ctx context.Context, query string) (string, []Attempt) {
	if e.cfg.Cache != nil {
		if text, ok := e.cfg.Cache.Get(query); ok {
			log.Debug("Answer cache hit", "query", query)
			return text, nil
		}
	}

	var attempts []Attempt
	for _, src := range e.sources {
		a := e.try(ctx, src, query)
		attempts = append(attempts, a)
		e.observe(a)

		switch a.Outcome {
		case Success:
			log.Info("Answered", "tier", a.Tier, "chars", len(a.Text))
			if e.cfg.Cache != nil {
				e.cfg.Cache.Put(query, a.Text)
			}
			return a.Text, attempts
		case Empty:
			log.Debug("Tier had no answer", "tier", a.Tier)
		case Failed:
			log.Warn("Tier failed", "tier", a.Tier, "kind", a.Kind, "err", a.Err)
		}

		if ctx.Err() != nil {
			break
		}
	}

	return Apology, attempts
}

func (e *Engine) try(ctx context.Context, src Source, query string) Attempt {
	timeout, ok := e.cfg.Timeouts[src.Tier()]
	if !ok || timeout <= 0 {
		timeout = defaultTierTimeout
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a := src.Attempt(tctx, query)
	a.Tier = src.Tier()
	if a.Outcome == Success && strings.TrimSpace(a.Text) == "" {
		a.Outcome = Empty
	}
	return a
}

func (e *Engine) observe(a Attempt) {
	if e.cfg.Observer == nil {
		return
	}
	outcome := a.Outcome.String()
	if a.Outcome == Failed {
		outcome = a.Kind.String()
	}
	e.cfg.Observer.ObserveTier(a.Tier.String(), outcome)
}
