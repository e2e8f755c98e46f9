package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "log/slog"

	"voxd/internal/answer"
	"voxd/internal/audio"
	"voxd/internal/config"
	"voxd/internal/conversation"
	"voxd/internal/metrics"
	"voxd/internal/notify"
	"voxd/internal/providers"
	"voxd/internal/speech"
	"voxd/internal/timer"
	"voxd/internal/tools"
	"voxd/internal/tts"
	"voxd/pkg/stt"
)

type daemon struct {
	machine *conversation.Machine
	timers  *timer.Registry
	bus     *speech.Bus

	closers []func()
}

func (d *daemon) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func assemble(cfg *config.Config, hc *http.Client, m *metrics.Metrics) (*daemon, error) {
	d := &daemon{}
	ok := false
	defer func() {
		if !ok {
			d.close()
		}
	}()

	if cfg.Input == "bus" || cfg.Output == "bus" {
		d.bus = speech.NewBus(cfg.BusURL, cfg.BusName, 2*time.Second)
	}

	var whisper *stt.Transcriber
	if cfg.NeedsWhisper() {
		var err error
		whisper, err = stt.NewTranscriber(cfg.WhisperModel, stt.Options{Language: cfg.Language})
		if err != nil {
			return nil, fmt.Errorf("init whisper: %w", err)
		}
		d.closers = append(d.closers, func() { whisper.Close() })
		log.Debug("Loaded whisper", "model", cfg.WhisperModel)
	}

	listener, err := buildListener(cfg, d, whisper)
	if err != nil {
		return nil, err
	}
	speaker := buildSpeaker(cfg, d)

	alert := &notify.TimerAlert{Speaker: speaker}
	if cfg.ChimePath != "" {
		alert.Chime = notify.NewChime(cfg.ChimePath)
	}
	if cfg.DesktopNote {
		alert.Desktop = notify.NewDesktop("voxd")
	}
	d.timers = timer.NewRegistry(alert.Done, timer.WithGauge(m.ActiveTimers()))
	d.closers = append(d.closers, d.timers.Stop)

	cache, err := answer.NewCache(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}
	engine := buildEngine(cfg, hc, cache, m)

	registry, err := tools.NewRegistry(buildTools(cfg, hc, d.timers, engine)...)
	if err != nil {
		return nil, err
	}
	log.Debug("Registered tools", "tools", registry.Names())

	d.machine = conversation.New(listener, speaker, tools.NewDispatcher(registry, m), conversation.Config{
		WakePhrases:  cfg.WakePhrases,
		Greeting:     cfg.Greeting,
		FollowUp:     cfg.FollowUp,
		OnTransition: transitionHook(cfg, m),
	})

	ok = true
	return d, nil
}

func buildListener(cfg *config.Config, d *daemon, whisper *stt.Transcriber) (conversation.Listener, error) {
	switch cfg.Input {
	case "bus":
		return d.bus, nil
	case "script":
		var t speech.Transcriber
		if whisper != nil {
			t = whisper
		}
		return speech.NewScript(cfg.Script, t), nil
	default:
		rec := audio.NewRecorder()
		if err := rec.Init(); err != nil {
			return nil, fmt.Errorf("init audio: %w", err)
		}
		d.closers = append(d.closers, rec.Close)
		log.Debug("Loaded recorder")
		return &speech.Mic{Capture: rec, STT: whisper}, nil
	}
}

func buildSpeaker(cfg *config.Config, d *daemon) *speech.Serial {
	switch cfg.Output {
	case "bus":
		return speech.NewSerial(d.bus)
	case "log":
		return speech.NewSerial()
	default:
		return speech.NewSerial(tts.NewEspeak(cfg.Voice, cfg.VoiceRate))
	}
}

func buildEngine(cfg *config.Config, hc *http.Client, cache *answer.Cache, m *metrics.Metrics) *answer.Engine {
	llm := answer.LLMTier{}
	if cfg.LLMKey != "" {
		llm.Chat = answer.NewChat(answer.ChatConfig{
			APIKey:     cfg.LLMKey,
			BaseURL:    cfg.LLMBaseURL,
			Model:      cfg.LLMModel,
			HTTPClient: hc,
		})
	} else {
		log.Warn("No LLM key, questions go straight to search")
	}

	ddg := answer.NewDuckDuckGo(hc)
	return answer.NewEngine(answer.Config{
		Timeouts: map[answer.Tier]time.Duration{
			answer.TierLLM:    cfg.TierTimeout,
			answer.TierSearch: cfg.TierTimeout,
			answer.TierScrape: cfg.TierTimeout,
		},
		Cache:    cache,
		Observer: m,
	}, llm, answer.SearchTier{Search: ddg}, answer.ScrapeTier{Fetch: ddg})
}

// buildTools leaves a provider unset when it is not configured; the tool
// then answers that it isn't set up.
func buildTools(cfg *config.Config, hc *http.Client, timers *timer.Registry, answers tools.Answerer) []tools.Tool {
	news := tools.News{}
	if cfg.NewsKey != "" {
		news.Provider = providers.NewNewsAPI(hc, cfg.NewsKey)
	}
	cal := tools.Calendar{}
	if cfg.CalendarPath != "" {
		cal.Provider = providers.NewICSFile(cfg.CalendarPath)
	}
	mail := tools.Email{}
	if cfg.Maildir != "" {
		mail.Reader = providers.NewMaildir(cfg.Maildir)
	}
	send := tools.SendEmail{}
	if cfg.SMTPHost != "" {
		send.Sender = providers.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	return []tools.Tool{
		tools.Weather{Provider: providers.NewWttr(hc)},
		tools.Timer{Timers: timers},
		tools.Music{Opener: providers.NewBrowser(cfg.Browser)},
		news,
		cal,
		mail,
		send,
		tools.Question{Answers: answers},
	}
}

func transitionHook(cfg *config.Config, m *metrics.Metrics) func(from, to conversation.State) {
	var ducker *audio.Ducker
	if cfg.Duck && cfg.Output == "espeak" {
		ducker = audio.NewDucker([]string{"espeak", "espeak-ng", "voxd"}, 0.3, 10, 150*time.Millisecond)
	}

	return func(from, to conversation.State) {
		m.ObserveTransition(to.String())
		if ducker == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		var err error
		switch {
		case to == conversation.Active:
			err = ducker.Duck(ctx)
		case from == conversation.Active:
			err = ducker.Restore(ctx)
		}
		if err != nil {
			log.Warn("Audio ducking failed", "err", err)
		}
	}
}
