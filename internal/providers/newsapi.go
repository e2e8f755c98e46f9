package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"voxd/internal/tools"
)

const DefaultNewsAPIURL = "https://newsapi.org/v2/top-headlines"

type NewsAPI struct {
	HTTP    *http.Client
	BaseURL string
	Key     string
	Country string
}

func NewNewsAPI(hc *http.Client, key string) *NewsAPI {
	return &NewsAPI{HTTP: client(hc), BaseURL: DefaultNewsAPIURL, Key: key, Country: "us"}
}

type newsResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"articles"`
}

func (n *NewsAPI) Headlines(ctx context.Context, category string, limit int) ([]tools.Headline, error) {
	q := url.Values{}
	q.Set("country", n.Country)
	q.Set("pageSize", strconv.Itoa(limit))
	if category != "" && category != "general" {
		q.Set("category", category)
	}

	var resp newsResponse
	err := getJSON(ctx, n.HTTP, "newsapi", n.BaseURL+"?"+q.Encode(), http.Header{
		"X-Api-Key": []string{n.Key},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]tools.Headline, 0, limit)
	for _, a := range resp.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		out = append(out, tools.Headline{Title: a.Title, Description: a.Description})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
