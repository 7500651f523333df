package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/store"
	"stock-sentinel/internal/types"
)

func TestTavilySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))

		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "XYZ stock news reason for price move", req.Query)
		assert.Equal(t, "news", req.Topic)
		assert.Equal(t, 2, req.Days)
		assert.Equal(t, 3, req.MaxResults)

		w.Write([]byte(`{"results":[{"title":"XYZ beats earnings","url":"https://example.com/x","content":"Profit up","score":0.91,"published_date":"2026-10-18"}]}`))
	}))
	defer srv.Close()

	tv := NewTavily(api.NewClient(api.WithBaseURL(srv.URL)), "tvly-key", 3)
	items, err := tv.Search(context.Background(), "XYZ stock news reason for price move", 2)
	require.NoError(t, err)

	assert.Equal(t, []types.NewsItem{{
		Title:       "XYZ beats earnings",
		Content:     "Profit up",
		URL:         "https://example.com/x",
		Source:      "Tavily",
		PublishedAt: "2026-10-18",
		Score:       0.91,
	}}, items)
}

func TestTavilyMissingKey(t *testing.T) {
	tv := NewTavily(api.NewClient(), "", 5)
	_, err := tv.Search(context.Background(), "q", 2)
	assert.ErrorIs(t, err, ErrMissingTavilyKey)
	assert.Equal(t, "TAVILY_API_KEY not found", err.Error())
}

func TestTavilyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewTavily(api.NewClient(api.WithBaseURL(srv.URL)), "k", 5).Search(context.Background(), "q", 2)
	var httpErr *api.HTTPError
	assert.True(t, errors.As(err, &httpErr))
}

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>"XYZ" - Google News</title>
<item><title>XYZ shares surge on order win - Economic Times</title><link>https://news.example.com/1</link>
<pubDate>Sat, 18 Oct 2026 09:30:00 GMT</pubDate><description>&lt;a href="x"&gt;XYZ shares surge&lt;/a&gt; on a big order</description></item>
<item><title>Second story - Mint</title><link>https://news.example.com/2</link></item>
<item><title>Third story</title><link>https://news.example.com/3</link></item>
</channel></rss>`

func TestRSSSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "XYZ news", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("days"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	rss := NewRSS(api.NewClient(), srv.URL+"/rss?q=%s&days=%d", 2)
	items, err := rss.Search(context.Background(), "XYZ news", 2)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "XYZ shares surge on order win - Economic Times", items[0].Title)
	assert.Equal(t, "Economic Times", items[0].Source)
	assert.Equal(t, "XYZ shares surge on a big order", items[0].Content)
	assert.Equal(t, "2026-10-18T09:30:00Z", items[0].PublishedAt)
	assert.Equal(t, "Mint", items[1].Source)
}

func TestStripTagsDecodesEntities(t *testing.T) {
	in := `<a href="https://news.google.com/x">Reliance shares jump &amp; rally</a>&nbsp;&nbsp;<font color="#6f6f6f">Mint</font>`
	assert.Equal(t, "Reliance shares jump & rally Mint", stripTags(in))
	assert.Equal(t, "plain text", stripTags("  plain   text "))
	assert.Empty(t, stripTags(""))
}

func TestRSSParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a feed"))
	}))
	defer srv.Close()

	_, err := NewRSS(api.NewClient(), srv.URL+"?q=%s&d=%d", 5).Search(context.Background(), "q", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rss parse")
}

func TestScraperSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/topic/xyz", r.URL.Path)
		fmt.Fprint(w, `<html><body>
<div class="story"><a href="/news/1">XYZ jumps 5%</a><p>Shares rallied after results.</p><time>2 hours ago</time></div>
<div class="story"><a href="https://other.example.com/2">XYZ order book</a></div>
<div class="story"><p>no link</p></div>
</body></html>`)
	}))
	defer srv.Close()

	src := NewsSource{
		Name:       "Test",
		BaseURL:    srv.URL,
		SearchPath: "/topic/{symbol}",
		Selectors: ArticleSelectors{
			ArticleContainer: "div.story",
			Title:            "a",
			URL:              "a",
			Content:          "p",
			PublishedAt:      "time",
		},
	}

	s := NewScraper(5*time.Second, 5, src)
	items, err := s.Search(context.Background(), "XYZ.NS stock news reason for price move", 2)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "XYZ jumps 5%", items[0].Title)
	assert.Equal(t, srv.URL+"/news/1", items[0].URL)
	assert.Equal(t, "Shares rallied after results.", items[0].Content)
	assert.Equal(t, "2 hours ago", items[0].PublishedAt)
	assert.Equal(t, "Test", items[0].Source)
	assert.Equal(t, "https://other.example.com/2", items[1].URL)
}

func TestScraperAllSourcesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewsSource{Name: "Blocked", BaseURL: srv.URL, SearchPath: "/{symbol}",
		Selectors: ArticleSelectors{ArticleContainer: "div", Title: "a", URL: "a"}}
	_, err := NewScraper(time.Second, 5, src).Search(context.Background(), "XYZ", 2)
	assert.Error(t, err)
}

func TestSymbolFromQuery(t *testing.T) {
	assert.Equal(t, "RELIANCE", symbolFromQuery("reliance.ns stock news"))
	assert.Equal(t, "TCS", symbolFromQuery("TCS.BO"))
	assert.Equal(t, "", symbolFromQuery("   "))
}

func TestSelectSources(t *testing.T) {
	assert.Len(t, SelectSources(nil), 3)
	got := SelectSources([]string{"economictimes"})
	require.Len(t, got, 1)
	assert.Equal(t, "EconomicTimes", got[0].Name)
}

type stubProvider struct {
	items []types.NewsItem
	err   error
	calls int
}

func (s *stubProvider) Search(context.Context, string, int) ([]types.NewsItem, error) {
	s.calls++
	return s.items, s.err
}

func TestChainFallsThrough(t *testing.T) {
	first := &stubProvider{err: ErrMissingTavilyKey}
	second := &stubProvider{items: []types.NewsItem{}}
	third := &stubProvider{items: []types.NewsItem{{Title: "found"}}}

	items, err := NewChain(first, second, third).Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Equal(t, "found", items[0].Title)
	assert.Equal(t, 1, third.calls)
}

func TestChainAllFail(t *testing.T) {
	a := &stubProvider{err: errors.New("a down")}
	b := &stubProvider{err: errors.New("b down")}

	_, err := NewChain(a, b).Search(context.Background(), "q", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a down")
	assert.Contains(t, err.Error(), "b down")
}

func TestChainStopsAtFirstHit(t *testing.T) {
	a := &stubProvider{items: []types.NewsItem{{Title: "a"}}}
	b := &stubProvider{items: []types.NewsItem{{Title: "b"}}}
	items, err := NewChain(a, b).Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Equal(t, "a", items[0].Title)
	assert.Zero(t, b.calls)
}

func TestNewProvider(t *testing.T) {
	cfg := store.Default()

	cases := map[string]any{
		"TAVILY":  &Tavily{},
		"RSS":     &RSS{},
		"SCRAPER": &Scraper{},
		"CHAIN":   &Chain{},
		"NONE":    None{},
	}
	for name, want := range cases {
		cfg.News.Provider = name
		p, err := NewProvider(cfg)
		require.NoError(t, err, name)
		assert.IsType(t, want, p, name)
	}

	cfg.News.Provider = "TAVILY"
	cfg.News.CacheMinutes = 5
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	svc, ok := p.(*Service)
	require.True(t, ok)
	svc.Close()

	var _ interfaces.NewsProvider = None{}
	items, err := None{}.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}
