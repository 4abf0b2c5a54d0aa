package collect

import (
	"testing"
	"time"

	"github.com/fwehrle/newslens/internal/news"
)

func TestFilterByWindowInclusiveBounds(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 7, 23, 59, 59, 0, time.UTC)

	articles := []news.Article{
		{Title: "on start", PublishedAt: start},
		{Title: "on end", PublishedAt: end},
		{Title: "inside", PublishedAt: start.Add(48 * time.Hour)},
		{Title: "before", PublishedAt: start.Add(-time.Second)},
		{Title: "after", PublishedAt: end.Add(time.Second)},
	}

	result := FilterByWindow(articles, start, end)
	if len(result) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(result))
	}
	for _, a := range result {
		if a.Title == "before" || a.Title == "after" {
			t.Errorf("article %q should have been excluded", a.Title)
		}
	}
}

func TestFilterByWindowDropsZeroDates(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)

	articles := []news.Article{
		{Title: "undated"},
		{Title: "dated", PublishedAt: start.Add(time.Hour)},
	}

	result := FilterByWindow(articles, start, end)
	if len(result) != 1 || result[0].Title != "dated" {
		t.Fatalf("expected only the dated article, got %v", result)
	}
}

func TestFilterByWindowOpenSides(t *testing.T) {
	when := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	articles := []news.Article{{Title: "a", PublishedAt: when}}

	if got := FilterByWindow(articles, time.Time{}, time.Time{}); len(got) != 1 {
		t.Errorf("fully open window should keep dated articles, got %d", len(got))
	}
	if got := FilterByWindow(articles, time.Time{}, when.Add(-time.Hour)); len(got) != 0 {
		t.Errorf("article after open-start window end should be dropped, got %d", len(got))
	}
	if got := FilterByWindow(articles, when.Add(time.Hour), time.Time{}); len(got) != 0 {
		t.Errorf("article before open-end window start should be dropped, got %d", len(got))
	}
}
