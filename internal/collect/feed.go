package collect

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/fwehrle/newslens/internal/news"
)

// Extractor retrieves full article text for a URL. Satisfied by
// *extract.Extractor.
type Extractor interface {
	Extract(ctx context.Context, rawURL, source string) (news.Article, error)
}

// SourceAdapter fetches candidate articles from one named source. Adapters
// are independent: a failure in one never affects another.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, terms []string, limit int) ([]news.Article, error)
}

// FeedAdapter reads a single RSS/Atom feed and keeps entries matching the
// search terms.
type FeedAdapter struct {
	name       string
	feedURL    string
	maxEntries int
	parser     *gofeed.Parser
	extractor  Extractor
}

// NewFeedAdapter creates an adapter for one configured feed. maxEntries
// caps how many feed items are considered per fetch.
func NewFeedAdapter(name, feedURL string, maxEntries int, extractor Extractor) *FeedAdapter {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &FeedAdapter{
		name:       name,
		feedURL:    feedURL,
		maxEntries: maxEntries,
		parser:     parser,
		extractor:  extractor,
	}
}

func (f *FeedAdapter) Name() string { return f.name }

// Fetch parses the feed and returns articles relevant to terms, in feed
// order. Empty terms match everything.
func (f *FeedAdapter) Fetch(ctx context.Context, terms []string, limit int) ([]news.Article, error) {
	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", f.feedURL, err)
	}

	maxItems := f.maxEntries
	if limit > 0 && limit < maxItems {
		maxItems = limit
	}

	var articles []news.Article
	for _, item := range feed.Items {
		if len(articles) >= maxItems {
			break
		}
		if item.Link == "" || strings.TrimSpace(item.Title) == "" {
			continue
		}
		if !itemMatches(item, terms) {
			continue
		}

		article, err := f.buildArticle(ctx, item)
		if err != nil {
			log.Printf("Skipping %s entry %s: %v", f.name, item.Link, err)
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// buildArticle extracts the full page text, falling back to the feed's own
// description when the page won't yield.
func (f *FeedAdapter) buildArticle(ctx context.Context, item *gofeed.Item) (news.Article, error) {
	article, err := f.extractor.Extract(ctx, item.Link, f.name)
	if err != nil {
		feedText := feedContent(item)
		if feedText == "" {
			return news.Article{}, err
		}
		article = news.Article{
			Title:   strings.TrimSpace(item.Title),
			Content: feedText,
			Source:  f.name,
			URL:     item.Link,
			Author:  itemAuthor(item),
		}
	}

	// Feed metadata fills whatever extraction missed.
	if article.Title == "" || article.Title == "Untitled Article" {
		article.Title = strings.TrimSpace(item.Title)
	}
	if article.Author == "" {
		article.Author = itemAuthor(item)
	}
	if t := itemPublished(item); t != nil {
		article.PublishedAt = *t
		article.DateEstimated = false
	}
	if article.PublishedAt.IsZero() {
		article.PublishedAt = time.Now()
		article.DateEstimated = true
	}

	if article.URL == "" {
		return news.Article{}, errors.New("entry has no URL")
	}
	return article, nil
}

// itemMatches reports whether any search term appears in the entry's title,
// summary, or description. Case-insensitive; empty terms match all.
func itemMatches(item *gofeed.Item, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(item.Title + " " + item.Description + " " + item.Content)
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

func itemPublished(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	return ""
}

func feedContent(item *gofeed.Item) string {
	if item.Content != "" {
		return stripHTML(item.Content)
	}
	if item.Description != "" {
		return stripHTML(item.Description)
	}
	return ""
}

// stripHTML removes tags and decodes the common entities found in feed
// payloads.
func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
