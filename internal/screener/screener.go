// Package screener turns a natural-language stock query into ticker symbols:
// an LLM rewrites the query in Screener.in syntax, then the results page is
// scraped for company links.
package screener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/prompt"
)

const DefaultBaseURL = "https://www.screener.in"

// ErrEmptyQuery is returned for a blank query or a blank translation.
var ErrEmptyQuery = errors.New("screener: empty query")

// Params configures a Screener.
type Params struct {
	Limit  int    // maximum tickers returned
	Suffix string // appended to each ticker, e.g. ".NS"
}

// Screener implements interfaces.Screener against Screener.in.
type Screener struct {
	completer interfaces.Completer
	client    *api.Client
	limit     int
	suffix    string
}

var _ interfaces.Screener = (*Screener)(nil)

// New builds a screener. client must carry the Screener.in base URL and
// should keep cookies between requests.
func New(completer interfaces.Completer, client *api.Client, p Params) *Screener {
	if p.Limit <= 0 {
		p.Limit = 5
	}
	return &Screener{
		completer: completer,
		client:    client,
		limit:     p.Limit,
		suffix:    p.Suffix,
	}
}

// NewClient returns an api.Client set up for Screener.in.
func NewClient(baseURL string, opts ...api.ClientOption) *api.Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	all := append([]api.ClientOption{
		api.WithBaseURL(strings.TrimSuffix(baseURL, "/")),
		api.WithHeaders(api.BrowserHeaders()),
		api.WithCookieJar(),
	}, opts...)
	return api.NewClient(all...)
}

// Screen translates query, runs it on Screener.in and returns up to limit tickers.
func (s *Screener) Screen(ctx context.Context, query string) ([]string, error) {
	screenQuery, err := s.Translate(ctx, query)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Translated screener query", "query", query, "screen", screenQuery)

	// session cookie
	if _, err := s.client.GET(ctx, "/screen/new/"); err != nil {
		logger.Warn(ctx, "Screener session request failed", "error", err)
	}

	path := fmt.Sprintf("/screen/raw/?query=%s&limit=%d", url.QueryEscape(screenQuery), s.limit)
	resp, err := s.client.GET(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("screener results: %w", err)
	}

	tickers, err := ParseTickers(strings.NewReader(resp.String()), s.limit, s.suffix)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Screener returned tickers", "count", len(tickers), "tickers", tickers)
	return tickers, nil
}

// Translate asks the completer for the Screener.in form of query.
func (s *Screener) Translate(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	p, err := prompt.Screener(query)
	if err != nil {
		return "", err
	}
	raw, err := s.completer.Complete(ctx, "", p)
	if err != nil {
		return "", fmt.Errorf("translate screener query: %w", err)
	}
	q := prompt.CleanQuery(raw)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}

var navSegments = map[string]bool{"COMPARE": true, "NEW": true}

// ParseTickers extracts company codes from links of the form
// /company/CODE/... in page order, skipping navigation links and duplicates.
func ParseTickers(r io.Reader, limit int, suffix string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse screener page: %w", err)
	}

	seen := make(map[string]bool)
	tickers := []string{}
	doc.Find("a[href^='/company/']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		parts := strings.Split(strings.Trim(href, "/"), "/")
		if len(parts) < 2 {
			return true
		}
		code := strings.ToUpper(parts[1])
		if code == "" || navSegments[code] {
			return true
		}
		ticker := code + suffix
		if !seen[ticker] {
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
		return limit <= 0 || len(tickers) < limit
	})
	return tickers, nil
}
