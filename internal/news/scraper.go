package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/types"
)

// Scraper handles scraping news from multiple sources
type Scraper struct {
	sources    []NewsSource
	timeout    time.Duration
	maxResults int
}

var _ interfaces.NewsProvider = (*Scraper)(nil)

// NewsSource defines a news source configuration
type NewsSource struct {
	Name       string
	BaseURL    string
	SearchPath string // e.g., "/search?q={symbol}"
	Selectors  ArticleSelectors
	RateLimit  time.Duration
}

// ArticleSelectors defines CSS selectors for extracting article data
type ArticleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	Content          string
	PublishedAt      string
}

// NewScraper creates a scraper over the given sources, or the default set when none are given
func NewScraper(timeout time.Duration, maxResults int, sources ...NewsSource) *Scraper {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Scraper{
		sources:    sources,
		timeout:    timeout,
		maxResults: maxResults,
	}
}

// DefaultSources returns the Indian financial news sites the scraper knows
func DefaultSources() []NewsSource {
	return []NewsSource{
		{
			Name:       "MoneyControl",
			BaseURL:    "https://www.moneycontrol.com",
			SearchPath: "/news/tags/{symbol}.html",
			Selectors: ArticleSelectors{
				ArticleContainer: "li.clearfix",
				Title:            "h2 a, h3 a",
				URL:              "h2 a, h3 a",
				Content:          "p",
				PublishedAt:      "span.ago",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "EconomicTimes",
			BaseURL:    "https://economictimes.indiatimes.com",
			SearchPath: "/topic/{symbol}",
			Selectors: ArticleSelectors{
				ArticleContainer: "div.story-box",
				Title:            "a",
				URL:              "a",
				Content:          "p",
				PublishedAt:      "time",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "BusinessStandard",
			BaseURL:    "https://www.business-standard.com",
			SearchPath: "/search?q={symbol}",
			Selectors: ArticleSelectors{
				ArticleContainer: "div.listing-txt",
				Title:            "a.Hdng",
				URL:              "a.Hdng",
				Content:          "p",
				PublishedAt:      "span.listing-date",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// SelectSources keeps the default sources whose names are listed (case-insensitive).
// An empty list keeps them all.
func SelectSources(names []string) []NewsSource {
	all := DefaultSources()
	if len(names) == 0 {
		return all
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var out []NewsSource
	for _, s := range all {
		if want[strings.ToLower(s.Name)] {
			out = append(out, s)
		}
	}
	return out
}

// Search scrapes every source for the symbol named by the query's first word.
// Sites index by ticker, so the rest of the query and the recency window are
// not used.
func (s *Scraper) Search(ctx context.Context, query string, _ int) ([]types.NewsItem, error) {
	symbol := symbolFromQuery(query)
	if symbol == "" {
		return nil, fmt.Errorf("scraper: empty query")
	}

	logger.Info(ctx, "Starting news scraping", "symbol", symbol, "sources", len(s.sources))

	all := []types.NewsItem{}
	perSource := s.maxResults / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var lastErr error
	for i, source := range s.sources {
		items, err := s.scrapeSource(ctx, source, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "symbol", symbol)
			lastErr = err
		} else {
			all = append(all, items...)
		}
		if len(all) >= s.maxResults {
			break
		}

		// Rate limiting between sources
		if i < len(s.sources)-1 && source.RateLimit > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(source.RateLimit):
			}
		}
	}

	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	if len(all) > s.maxResults {
		all = all[:s.maxResults]
	}

	logger.Info(ctx, "News scraping completed", "symbol", symbol, "articles", len(all))
	return all, nil
}

// scrapeSource scrapes articles from a single news source
func (s *Scraper) scrapeSource(ctx context.Context, source NewsSource, symbol string, maxArticles int) ([]types.NewsItem, error) {
	items := []types.NewsItem{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
		colly.StdlibContext(ctx),
	)

	if s.timeout > 0 {
		c.SetRequestTimeout(s.timeout)
	}

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(items) >= maxArticles {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}

		articleURL := e.ChildAttr(source.Selectors.URL, "href")
		if articleURL == "" {
			return
		}
		if !strings.HasPrefix(articleURL, "http") {
			articleURL = source.BaseURL + articleURL
		}

		items = append(items, types.NewsItem{
			Title:       title,
			URL:         articleURL,
			Content:     strings.TrimSpace(e.ChildText(source.Selectors.Content)),
			Source:      source.Name,
			PublishedAt: strings.TrimSpace(e.ChildText(source.Selectors.PublishedAt)),
		})
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{symbol}", url.PathEscape(strings.ToLower(symbol)))

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", searchURL, err)
	}
	c.Wait()

	if visitErr != nil && len(items) == 0 {
		return nil, fmt.Errorf("failed to scrape %s: %w", source.Name, visitErr)
	}
	return items, nil
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// symbolFromQuery returns the query's first word without an exchange suffix.
func symbolFromQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	sym := strings.ToUpper(fields[0])
	for _, suffix := range []string{".NS", ".BO"} {
		sym = strings.TrimSuffix(sym, suffix)
	}
	return sym
}
