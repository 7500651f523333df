package listings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/logger"
)

const (
	NSERawFile = "nse_equities.csv"
	BSERawFile = "bse_companies.csv"
)

// ErrNSELinkNotFound is returned when the NSE page has no equity CSV link.
var ErrNSELinkNotFound = errors.New("could not find NSE equity CSV link on the page")

// Downloader fetches the raw exchange listing files.
type Downloader struct {
	client     *api.Client
	nsePageURL string
	bseCSVURL  string
	rawDir     string
}

func NewDownloader(client *api.Client, nsePageURL, bseCSVURL, rawDir string) *Downloader {
	return &Downloader{
		client:     client,
		nsePageURL: nsePageURL,
		bseCSVURL:  bseCSVURL,
		rawDir:     rawDir,
	}
}

// NewClient returns an api.Client with browser headers and a cookie jar,
// which nseindia.com needs before it serves archives.
func NewClient(opts ...api.ClientOption) *api.Client {
	all := append([]api.ClientOption{
		api.WithHeaders(api.NSEHeaders()),
		api.WithCookieJar(),
	}, opts...)
	return api.NewClient(all...)
}

// FindNSECSVLink returns the absolute URL of the "Securities available for
// Equity segment (.csv)" link on the NSE page.
func FindNSECSVLink(pageURL string, page io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", fmt.Errorf("parse NSE page: %w", err)
	}

	var href string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if strings.Contains(text, "Securities available for Equity segment") && strings.Contains(text, ".csv") {
			href, _ = sel.Attr("href")
			return false
		}
		return true
	})
	if href == "" {
		return "", ErrNSELinkNotFound
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse NSE page URL: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse NSE CSV link: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// DownloadNSE saves the NSE equity CSV under rawDir and returns its path.
func (d *Downloader) DownloadNSE(ctx context.Context) (string, error) {
	logger.Info(ctx, "Fetching NSE page", "url", d.nsePageURL)
	page, err := d.client.GET(ctx, d.nsePageURL)
	if err != nil {
		return "", fmt.Errorf("fetch NSE page: %w", err)
	}

	csvURL, err := FindNSECSVLink(d.nsePageURL, strings.NewReader(page.String()))
	if err != nil {
		return "", err
	}
	logger.Info(ctx, "Found NSE CSV URL", "url", csvURL)

	return d.save(ctx, csvURL, NSERawFile)
}

// DownloadBSE saves the BSE company list under rawDir and returns its path.
func (d *Downloader) DownloadBSE(ctx context.Context) (string, error) {
	return d.save(ctx, d.bseCSVURL, BSERawFile)
}

// DownloadAll fetches both files.
func (d *Downloader) DownloadAll(ctx context.Context) (nsePath, bsePath string, err error) {
	if nsePath, err = d.DownloadNSE(ctx); err != nil {
		return "", "", err
	}
	if bsePath, err = d.DownloadBSE(ctx); err != nil {
		return "", "", err
	}
	return nsePath, bsePath, nil
}

func (d *Downloader) save(ctx context.Context, src, name string) (string, error) {
	resp, err := d.client.GET(ctx, src, map[string]string{"Accept": "text/csv,*/*"})
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	if err := os.MkdirAll(d.rawDir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(d.rawDir, name)
	if err := os.WriteFile(out, resp.Body, 0o644); err != nil {
		return "", err
	}
	logger.Info(ctx, "Saved listing file", "path", out, "bytes", len(resp.Body))
	return out, nil
}
