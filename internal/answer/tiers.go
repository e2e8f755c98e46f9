package answer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"voxd/internal/fault"
)

// SystemPrompt keeps chat answers short enough to be spoken.
const SystemPrompt = "You are a concise voice assistant. Provide brief, direct answers unless specifically asked for details. Keep responses under 30 words when possible."

const (
	minSnippetLen = 20
	maxSnippetLen = 300
)

// ChatCompleter is a chat-completion backend. Errors should be
// *fault.ProviderError so the engine can tell auth, rate-limit and timeout
// failures apart.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// SearchResult holds instant-answer candidates in priority order.
type SearchResult struct {
	Abstract      string
	Definition    string
	RelatedTopics []string
}

type Searcher interface {
	Lookup(ctx context.Context, query string) (SearchResult, error)
}

// PageFetcher returns the HTML of a web search results page.
type PageFetcher interface {
	FetchResults(ctx context.Context, query string) (string, error)
}

type LLMTier struct {
	Chat ChatCompleter
}

func (LLMTier) Tier() Tier { return TierLLM }

func (t LLMTier) Attempt(ctx context.Context, query string) Attempt {
	if t.Chat == nil {
		return failed(TierLLM, fault.Provider("llm", fault.KindNotConfigured, nil))
	}
	text, err := t.Chat.Complete(ctx, SystemPrompt, query)
	if err != nil {
		return failed(TierLLM, err)
	}
	return succeeded(TierLLM, text)
}

type SearchTier struct {
	Search Searcher
}

func (SearchTier) Tier() Tier { return TierSearch }

func (t SearchTier) Attempt(ctx context.Context, query string) Attempt {
	res, err := t.Search.Lookup(ctx, query)
	if err != nil {
		return failed(TierSearch, err)
	}
	return succeeded(TierSearch, res.Best())
}

// Best picks the abstract, then the definition, then the first related
// topic that has text.
func (r SearchResult) Best() string {
	if s := strings.TrimSpace(r.Abstract); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Definition); s != "" {
		return s
	}
	for _, topic := range r.RelatedTopics {
		if s := strings.TrimSpace(topic); s != "" {
			return s
		}
	}
	return ""
}

type ScrapeTier struct {
	Fetch PageFetcher
}

func (ScrapeTier) Tier() Tier { return TierScrape }

func (t ScrapeTier) Attempt(ctx context.Context, query string) Attempt {
	html, err := t.Fetch.FetchResults(ctx, query)
	if err != nil {
		return failed(TierScrape, err)
	}
	snippet, err := Snippet(html)
	if err != nil {
		return failed(TierScrape, fault.Provider("scrape", fault.KindBadResponse, err))
	}
	return succeeded(TierScrape, snippet)
}

var snippetSelectors = []string{"a.result__snippet", "div.result__snippet"}

// Snippet extracts the first usable result snippet from a results page.
// Snippets of 20 characters or fewer are skipped; longer than 300 are
// truncated with an ellipsis.
func Snippet(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, sel := range snippetSelectors {
		first := doc.Find(sel).First()
		if first.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(first.Text())
		if utf8.RuneCountInString(text) <= minSnippetLen {
			continue
		}
		return truncate(text, maxSnippetLen), nil
	}

	return "", nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
