package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/types"
)

// DefaultRSSURL is a Google News search feed. %s is the escaped query, %d the
// lookback in days.
const DefaultRSSURL = "https://news.google.com/rss/search?q=%s+when:%dd&hl=en-IN&gl=IN&ceid=IN:en"

// RSS reads a news search feed and maps its items to news items.
type RSS struct {
	client     *api.Client
	urlFormat  string
	maxResults int
	parser     *gofeed.Parser
}

var _ interfaces.NewsProvider = (*RSS)(nil)

func NewRSS(client *api.Client, urlFormat string, maxResults int) *RSS {
	if urlFormat == "" {
		urlFormat = DefaultRSSURL
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &RSS{
		client:     client,
		urlFormat:  urlFormat,
		maxResults: maxResults,
		parser:     gofeed.NewParser(),
	}
}

func (r *RSS) Search(ctx context.Context, query string, recencyDays int) ([]types.NewsItem, error) {
	feedURL := fmt.Sprintf(r.urlFormat, url.QueryEscape(query), recencyDays)

	resp, err := r.client.GET(ctx, feedURL, api.BrowserHeaders())
	if err != nil {
		return nil, fmt.Errorf("rss fetch: %w", err)
	}

	feed, err := r.parser.ParseString(resp.String())
	if err != nil {
		return nil, fmt.Errorf("rss parse: %w", err)
	}

	items := make([]types.NewsItem, 0, r.maxResults)
	for _, it := range feed.Items {
		if len(items) >= r.maxResults {
			break
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		item := types.NewsItem{
			Title:   title,
			Content: stripTags(it.Description),
			URL:     it.Link,
			Source:  feedSource(feed, it),
		}
		if it.PublishedParsed != nil {
			item.PublishedAt = it.PublishedParsed.UTC().Format("2006-01-02T15:04:05Z")
		} else {
			item.PublishedAt = it.Published
		}
		items = append(items, item)
	}
	return items, nil
}

// feedSource prefers the publisher suffix Google News appends to titles
// ("Headline - Publisher") and falls back to the feed title.
func feedSource(feed *gofeed.Feed, it *gofeed.Item) string {
	if i := strings.LastIndex(it.Title, " - "); i > 0 && i+3 < len(it.Title) {
		return strings.TrimSpace(it.Title[i+3:])
	}
	if feed.Title != "" {
		return feed.Title
	}
	return "RSS"
}

// stripTags reduces an HTML feed description to its text, entities decoded
// and whitespace runs collapsed.
func stripTags(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
