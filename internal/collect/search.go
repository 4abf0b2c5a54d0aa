package collect

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/fwehrle/newslens/internal/news"
)

// GoogleNewsName is the registry name handled by the query-based adapter.
const GoogleNewsName = "Google News"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// SearchAdapter queries the Google News search feed with the joined search
// terms instead of reading a fixed feed.
type SearchAdapter struct {
	baseURL   string
	parser    *gofeed.Parser
	client    *http.Client
	extractor Extractor
}

// NewSearchAdapter creates the query-based Google News adapter.
func NewSearchAdapter(baseURL string, extractor Extractor) *SearchAdapter {
	if baseURL == "" {
		baseURL = "https://news.google.com/rss/search"
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &SearchAdapter{
		baseURL:   baseURL,
		parser:    parser,
		client:    &http.Client{Timeout: 10 * time.Second},
		extractor: extractor,
	}
}

func (s *SearchAdapter) Name() string { return GoogleNewsName }

// Fetch runs a free-text search built from terms and extracts content for
// entries whose titles look relevant.
func (s *SearchAdapter) Fetch(ctx context.Context, terms []string, limit int) ([]news.Article, error) {
	query := strings.TrimSpace(strings.Join(terms, " "))
	feedURL := s.baseURL
	if query != "" {
		feedURL = fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", s.baseURL, url.QueryEscape(query))
	}

	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("searching Google News: %w", err)
	}

	var articles []news.Article
	for _, item := range feed.Items {
		if limit > 0 && len(articles) >= limit {
			break
		}
		if item.Link == "" || !titleMatches(item.Title, terms) {
			continue
		}

		articleURL := s.resolveRealURL(ctx, item.Link)
		article, err := s.extractor.Extract(ctx, articleURL, GoogleNewsName)
		if err != nil {
			log.Printf("Skipping Google News result %s: %v", articleURL, err)
			continue
		}

		if article.Title == "" || article.Title == "Untitled Article" {
			article.Title = strings.TrimSpace(item.Title)
		}
		if t := itemPublished(item); t != nil {
			article.PublishedAt = *t
			article.DateEstimated = false
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// resolveRealURL follows Google News redirect links to the underlying
// article. Falls back to the original link when resolution fails.
func (s *SearchAdapter) resolveRealURL(ctx context.Context, link string) string {
	if !strings.Contains(link, "news.google.com") {
		return link
	}

	req, err := http.NewRequestWithContext(ctx, "HEAD", link, nil)
	if err == nil {
		req.Header.Set("User-Agent", userAgent)
		if resp, err := s.client.Do(req); err == nil {
			resp.Body.Close()
			final := resp.Request.URL.String()
			if final != "" && final != link {
				return final
			}
		}
	}

	// Some redirect links carry the destination as a query parameter.
	if u, err := url.Parse(link); err == nil {
		if target := u.Query().Get("url"); target != "" {
			return target
		}
	}
	return link
}

// titleMatches checks the entry title against the search terms; empty terms
// match everything.
func titleMatches(title string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
