package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"voxd/internal/fault"
)

const (
	DefaultInstantAnswerURL = "https://api.duckduckgo.com/"
	DefaultResultsPageURL   = "https://duckduckgo.com/html/"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxPageBytes     = 2 << 20
)

// DuckDuckGo implements both Searcher (instant-answer JSON) and PageFetcher
// (HTML results page).
type DuckDuckGo struct {
	HTTP       *http.Client
	InstantURL string
	PageURL    string
}

func NewDuckDuckGo(hc *http.Client) *DuckDuckGo {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &DuckDuckGo{
		HTTP:       hc,
		InstantURL: DefaultInstantAnswerURL,
		PageURL:    DefaultResultsPageURL,
	}
}

type instantAnswer struct {
	Abstract      string `json:"Abstract"`
	AbstractText  string `json:"AbstractText"`
	Definition    string `json:"Definition"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (d *DuckDuckGo) Lookup(ctx context.Context, query string) (SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_redirect", "1")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")

	body, err := d.get(ctx, "search", d.InstantURL+"?"+q.Encode(), nil)
	if err != nil {
		return SearchResult{}, err
	}
	defer body.Close()

	var ia instantAnswer
	if err := json.NewDecoder(body).Decode(&ia); err != nil {
		return SearchResult{}, fault.Provider("search", fault.KindBadResponse, fmt.Errorf("decode instant answer: %w", err))
	}

	res := SearchResult{Abstract: ia.Abstract, Definition: ia.Definition}
	if res.Abstract == "" {
		res.Abstract = ia.AbstractText
	}
	for _, t := range ia.RelatedTopics {
		res.RelatedTopics = append(res.RelatedTopics, t.Text)
	}
	return res, nil
}

func (d *DuckDuckGo) FetchResults(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("q", query)

	body, err := d.get(ctx, "scrape", d.PageURL+"?"+q.Encode(), http.Header{
		"User-Agent": []string{browserUserAgent},
	})
	if err != nil {
		return "", err
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return "", fault.FromTransport("scrape", err)
	}
	return string(raw), nil
}

func (d *DuckDuckGo) get(ctx context.Context, provider, target string, header http.Header) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fault.Provider(provider, fault.KindBadResponse, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return nil, fault.FromTransport(provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fault.FromStatus(provider, resp.StatusCode)
	}
	return resp.Body, nil
}
