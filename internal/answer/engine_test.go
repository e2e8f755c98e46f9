package answer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxd/internal/fault"
)

type fakeChat struct {
	text  string
	err   error
	calls int
}

func (f *fakeChat) Complete(_ context.Context, system, _ string) (string, error) {
	f.calls++
	if system != SystemPrompt {
		return "", errors.New("unexpected system prompt")
	}
	return f.text, f.err
}

type fakeSearch struct {
	res   SearchResult
	err   error
	calls int
}

func (f *fakeSearch) Lookup(context.Context, string) (SearchResult, error) {
	f.calls++
	return f.res, f.err
}

type fakePage struct {
	html  string
	err   error
	calls int
}

func (f *fakePage) FetchResults(context.Context, string) (string, error) {
	f.calls++
	return f.html, f.err
}

type countingObserver struct {
	mu   sync.Mutex
	seen []string
}

func (o *countingObserver) ObserveTier(tier, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, tier+":"+outcome)
}

const snippetPage = `<html><body>
<a class="result__snippet">Paris is the capital and most populous city of France.</a>
</body></html>`

func chain(chat *fakeChat, search *fakeSearch, page *fakePage, cfg Config) *Engine {
	return NewEngine(cfg, LLMTier{Chat: chat}, SearchTier{Search: search}, ScrapeTier{Fetch: page})
}

func TestLLMSuccessShortCircuits(t *testing.T) {
	chat := &fakeChat{text: "  Paris.  "}
	search := &fakeSearch{res: SearchResult{Abstract: "unused"}}
	page := &fakePage{html: snippetPage}

	text, attempts := chain(chat, search, page, Config{}).Resolve(context.Background(), "capital of france")

	assert.Equal(t, "Paris.", text)
	require.Len(t, attempts, 1)
	assert.Equal(t, TierLLM, attempts[0].Tier)
	assert.Equal(t, 0, search.calls)
	assert.Equal(t, 0, page.calls)
}

func TestLLMFailuresFallThroughToSearch(t *testing.T) {
	kinds := []fault.Kind{fault.KindAuth, fault.KindRateLimit, fault.KindTimeout, fault.KindTransport}
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			chat := &fakeChat{err: fault.Provider("llm", kind, errors.New("boom"))}
			search := &fakeSearch{res: SearchResult{Definition: "A definition."}}
			page := &fakePage{html: snippetPage}

			text, attempts := chain(chat, search, page, Config{}).Resolve(context.Background(), "q")

			assert.Equal(t, "A definition.", text)
			require.Len(t, attempts, 2)
			assert.Equal(t, Failed, attempts[0].Outcome)
			assert.Equal(t, kind, attempts[0].Kind)
			assert.Equal(t, 1, chat.calls, "no retry within one call")
			assert.Equal(t, 1, search.calls)
			assert.Equal(t, 0, page.calls)
		})
	}
}

func TestEmptyCompletionFallsThrough(t *testing.T) {
	chat := &fakeChat{text: "   "}
	search := &fakeSearch{res: SearchResult{RelatedTopics: []string{"", "Topic text"}}}

	text, attempts := chain(chat, search, &fakePage{}, Config{}).Resolve(context.Background(), "q")

	assert.Equal(t, "Topic text", text)
	require.Len(t, attempts, 2)
	assert.Equal(t, Empty, attempts[0].Outcome)
}

func TestScrapeRunsWhenFirstTwoFail(t *testing.T) {
	chat := &fakeChat{err: fault.Provider("llm", fault.KindAuth, nil)}
	search := &fakeSearch{}
	page := &fakePage{html: snippetPage}

	text, attempts := chain(chat, search, page, Config{}).Resolve(context.Background(), "q")

	assert.Equal(t, "Paris is the capital and most populous city of France.", text)
	require.Len(t, attempts, 3)
	assert.Equal(t, Empty, attempts[1].Outcome)
	assert.Equal(t, Success, attempts[2].Outcome)
}

func TestAllTiersFailReturnsApology(t *testing.T) {
	chat := &fakeChat{err: fault.Provider("llm", fault.KindRateLimit, nil)}
	search := &fakeSearch{err: fault.Provider("search", fault.KindTransport, errors.New("down"))}
	page := &fakePage{err: fault.Provider("scrape", fault.KindTimeout, errors.New("slow"))}
	obs := &countingObserver{}

	text, attempts := chain(chat, search, page, Config{Observer: obs}).Resolve(context.Background(), "q")

	assert.Equal(t, Apology, text)
	assert.Len(t, attempts, 3)
	assert.Equal(t, []string{"llm:rate_limit", "search:transport", "scrape:timeout"}, obs.seen)
}

func TestMissingChatBackendIsNotConfigured(t *testing.T) {
	search := &fakeSearch{res: SearchResult{Abstract: "From search."}}
	e := NewEngine(Config{}, LLMTier{}, SearchTier{Search: search})

	text, attempts := e.Resolve(context.Background(), "q")
	assert.Equal(t, "From search.", text)
	assert.Equal(t, fault.KindNotConfigured, attempts[0].Kind)
}

type slowSource struct{}

func (slowSource) Tier() Tier { return TierLLM }

func (slowSource) Attempt(ctx context.Context, _ string) Attempt {
	<-ctx.Done()
	return failed(TierLLM, fault.FromTransport("llm", ctx.Err()))
}

func TestTierTimeoutFallsThrough(t *testing.T) {
	search := &fakeSearch{res: SearchResult{Abstract: "fast"}}
	e := NewEngine(Config{Timeouts: map[Tier]time.Duration{TierLLM: 10 * time.Millisecond}},
		slowSource{}, SearchTier{Search: search})

	text, attempts := e.Resolve(context.Background(), "q")
	assert.Equal(t, "fast", text)
	assert.Equal(t, fault.KindTimeout, attempts[0].Kind)
}

func TestCacheSkipsTiers(t *testing.T) {
	cache, err := NewCache(8, time.Minute)
	require.NoError(t, err)

	chat := &fakeChat{text: "Cached answer."}
	e := chain(chat, &fakeSearch{}, &fakePage{}, Config{Cache: cache})

	assert.Equal(t, "Cached answer.", e.Answer(context.Background(), "Who am I"))
	assert.Equal(t, "Cached answer.", e.Answer(context.Background(), "  who   AM i "))
	assert.Equal(t, 1, chat.calls)
}

func TestApologyIsNotCached(t *testing.T) {
	cache, err := NewCache(8, time.Minute)
	require.NoError(t, err)

	e := chain(&fakeChat{}, &fakeSearch{}, &fakePage{}, Config{Cache: cache})
	assert.Equal(t, Apology, e.Answer(context.Background(), "q"))
	assert.Equal(t, 0, cache.Len())
}

func TestCacheExpires(t *testing.T) {
	cache, err := NewCache(8, time.Minute)
	require.NoError(t, err)

	now := time.Now()
	cache.now = func() time.Time { return now }
	cache.Put("q", "a")

	_, ok := cache.Get("q")
	assert.True(t, ok)

	cache.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok = cache.Get("q")
	assert.False(t, ok)
}
