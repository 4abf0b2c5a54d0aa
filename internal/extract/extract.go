// Package extract fetches article pages and pulls out clean body text plus
// whatever metadata the page exposes.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"github.com/fwehrle/newslens/internal/news"
)

// Browser-like identity; several news sites reject generic Go clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const maxBodyBytes = 4 << 20

// ErrNoContent means the page yielded no usable article text.
var ErrNoContent = errors.New("no usable article content")

// Extractor retrieves a URL and extracts article text and metadata.
type Extractor struct {
	client    *http.Client
	minLength int
}

// New creates an Extractor with the given request timeout.
func New(timeout time.Duration) *Extractor {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		minLength: news.MinContentLength,
	}
}

// Extract downloads rawURL and returns an Article attributed to source.
// Timeouts, HTTP errors, and thin pages all come back as errors; the caller
// drops that one candidate and moves on.
func (e *Extractor) Extract(ctx context.Context, rawURL, source string) (news.Article, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return news.Article{}, fmt.Errorf("invalid article URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return news.Article{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return news.Article{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return news.Article{}, fmt.Errorf("fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return news.Article{}, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	page, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return news.Article{}, fmt.Errorf("extracting %s: %w", rawURL, err)
	}

	text := strings.TrimSpace(page.TextContent)
	if len(text) < e.minLength {
		return news.Article{}, fmt.Errorf("%w: %d chars from %s", ErrNoContent, len(text), rawURL)
	}

	article := news.Article{
		Title:   strings.TrimSpace(page.Title),
		Content: text,
		Source:  source,
		URL:     rawURL,
		Author:  strings.TrimSpace(page.Byline),
	}
	if page.PublishedTime != nil {
		article.PublishedAt = *page.PublishedTime
	}

	fillFromMeta(&article, body)

	if article.Title == "" {
		article.Title = titleFromText(text)
	}
	if article.PublishedAt.IsZero() {
		// Best-effort stand-in when the page carries no date at all.
		article.PublishedAt = time.Now()
		article.DateEstimated = true
	}

	return article, nil
}

// fillFromMeta backfills author and publication time from page meta tags.
func fillFromMeta(article *news.Article, body []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return
	}

	if article.Author == "" {
		article.Author = strings.TrimSpace(doc.Find(`meta[name="author"]`).AttrOr("content", ""))
	}

	if article.PublishedAt.IsZero() {
		for _, sel := range []string{
			`meta[property="article:published_time"]`,
			`meta[name="date"]`,
			`meta[itemprop="datePublished"]`,
		} {
			raw := strings.TrimSpace(doc.Find(sel).AttrOr("content", ""))
			if raw == "" {
				continue
			}
			if t, err := dateparse.ParseAny(raw); err == nil {
				article.PublishedAt = t
				return
			}
		}
		if raw, ok := doc.Find("time[datetime]").Attr("datetime"); ok {
			if t, err := dateparse.ParseAny(strings.TrimSpace(raw)); err == nil {
				article.PublishedAt = t
			}
		}
	}
}

// titleFromText guesses a headline from the first few lines of body text.
func titleFromText(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > 10 && len(line) < 150 {
			return line
		}
	}
	return "Untitled Article"
}
