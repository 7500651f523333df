package news

import (
	"context"
	"errors"
	"fmt"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/types"
)

const DefaultTavilyURL = "https://api.tavily.com"

// ErrMissingTavilyKey is returned when no Tavily API key is configured.
var ErrMissingTavilyKey = errors.New("TAVILY_API_KEY not found")

// Tavily searches recent news through the Tavily search API.
type Tavily struct {
	client     *api.Client
	apiKey     string
	maxResults int
}

var _ interfaces.NewsProvider = (*Tavily)(nil)

func NewTavily(client *api.Client, apiKey string, maxResults int) *Tavily {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Tavily{client: client, apiKey: apiKey, maxResults: maxResults}
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	Topic       string `json:"topic"`
	Days        int    `json:"days"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, query string, recencyDays int) ([]types.NewsItem, error) {
	if t.apiKey == "" {
		return nil, ErrMissingTavilyKey
	}

	body := tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		Topic:       "news",
		Days:        recencyDays,
		MaxResults:  t.maxResults,
		SearchDepth: "basic",
	}
	resp, err := t.client.POST(ctx, "/search", body, map[string]string{
		"Authorization": "Bearer " + t.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}

	var out tavilyResponse
	if err := resp.ParseJSON(&out); err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}

	items := make([]types.NewsItem, 0, len(out.Results))
	for _, r := range out.Results {
		items = append(items, types.NewsItem{
			Title:       r.Title,
			Content:     r.Content,
			URL:         r.URL,
			Source:      "Tavily",
			PublishedAt: r.PublishedDate,
			Score:       r.Score,
		})
	}
	return items, nil
}
