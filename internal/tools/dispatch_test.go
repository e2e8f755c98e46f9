package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxd/internal/fault"
	"voxd/internal/intent"
)

type stubTool struct {
	name  string
	out   string
	err   error
	panic bool
	got   intent.Params
}

func (s *stubTool) Name() string { return s.name }

func (s *stubTool) Invoke(_ context.Context, p intent.Params) (string, error) {
	s.got = p
	if s.panic {
		panic("boom")
	}
	return s.out, s.err
}

type recordingObserver struct {
	intents  []string
	failures [][2]string
}

func (r *recordingObserver) ObserveIntent(kind string) { r.intents = append(r.intents, kind) }

func (r *recordingObserver) ObserveFailure(tool, class string) {
	r.failures = append(r.failures, [2]string{tool, class})
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(&stubTool{name: "b"}, &stubTool{name: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Names())

	err = r.Register(&stubTool{name: "a"})
	assert.Error(t, err)

	_, err = r.Get("missing")
	assert.Error(t, err)

	_, err = NewRegistry(&stubTool{name: "x"}, &stubTool{name: "x"})
	assert.Error(t, err)
}

func TestDispatchRoutesByKind(t *testing.T) {
	weather := &stubTool{name: NameWeather, out: "sunny"}
	r, err := NewRegistry(weather)
	require.NoError(t, err)
	obs := &recordingObserver{}
	d := NewDispatcher(r, obs)

	out := d.Dispatch(context.Background(), intent.Intent{
		Kind:   intent.Weather,
		Params: intent.Params{intent.ParamLocation: "Paris"},
	})

	assert.Equal(t, "sunny", out)
	assert.Equal(t, "Paris", weather.got[intent.ParamLocation])
	assert.Equal(t, []string{"weather"}, obs.intents)
	assert.Empty(t, obs.failures)
}

func TestDispatchNilParams(t *testing.T) {
	q := &stubTool{name: NameQuestion, out: "ok"}
	r, err := NewRegistry(q)
	require.NoError(t, err)

	out := NewDispatcher(r, nil).Dispatch(context.Background(), intent.Intent{Kind: intent.Question})
	assert.Equal(t, "ok", out)
	assert.NotNil(t, q.got)
}

func TestDispatchFailures(t *testing.T) {
	tests := []struct {
		name  string
		tool  Tool
		kind  intent.Kind
		want  string
		class string
	}{
		{
			name:  "unknown intent",
			kind:  intent.Unknown,
			want:  UnknownReply,
			class: "",
		},
		{
			name:  "not configured",
			tool:  &stubTool{name: NameNews, err: fault.NotConfigured("news")},
			kind:  intent.News,
			want:  "Sorry, news isn't set up yet.",
			class: "config",
		},
		{
			name:  "missing tool",
			kind:  intent.Music,
			want:  "Sorry, music isn't set up yet.",
			class: "config",
		},
		{
			name:  "provider error with tool apology",
			tool:  Weather{Provider: failingWeather{}},
			kind:  intent.Weather,
			want:  "Sorry, I'm having trouble accessing weather information right now.",
			class: "provider",
		},
		{
			name:  "provider error generic",
			tool:  &stubTool{name: NameNews, err: fault.Provider("newsapi", fault.KindAuth, errors.New("401"))},
			kind:  intent.News,
			want:  ProviderReply,
			class: "provider",
		},
		{
			name:  "internal error",
			tool:  &stubTool{name: NameTimer, err: errors.New("bad state")},
			kind:  intent.Timer,
			want:  InternalReply,
			class: "internal",
		},
		{
			name:  "panic",
			tool:  &stubTool{name: NameTimer, panic: true},
			kind:  intent.Timer,
			want:  InternalReply,
			class: "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry()
			require.NoError(t, err)
			if tt.tool != nil {
				require.NoError(t, r.Register(tt.tool))
			}
			obs := &recordingObserver{}

			out := NewDispatcher(r, obs).Dispatch(context.Background(), intent.Intent{Kind: tt.kind, Params: intent.Params{}})

			assert.Equal(t, tt.want, out)
			if tt.class == "" {
				assert.Empty(t, obs.failures)
				return
			}
			require.Len(t, obs.failures, 1)
			assert.Equal(t, tt.class, obs.failures[0][1])
		})
	}
}
