package collect

import (
	"testing"

	"github.com/fwehrle/newslens/internal/news"
)

func TestDeduplicateDropsRepeatedURLs(t *testing.T) {
	articles := []news.Article{
		{Title: "Fed holds rates steady", URL: "https://example.com/a"},
		{Title: "Completely different story", URL: "https://example.com/a"},
		{Title: "Another unrelated headline entirely", URL: "https://example.com/b"},
	}

	result := Deduplicate(articles)
	if len(result) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(result))
	}
	if result[0].URL != "https://example.com/a" || result[1].URL != "https://example.com/b" {
		t.Errorf("unexpected order: %q, %q", result[0].URL, result[1].URL)
	}
}

func TestDeduplicateCollapsesIdenticalTitles(t *testing.T) {
	articles := []news.Article{
		{Title: "Fed Raises Rates", URL: "https://a.example.com/1"},
		{Title: "fed raises rates!", URL: "https://b.example.com/2"},
	}

	result := Deduplicate(articles)
	if len(result) != 1 {
		t.Fatalf("expected 1 article, got %d", len(result))
	}
	if result[0].URL != "https://a.example.com/1" {
		t.Errorf("expected first-seen article kept, got %q", result[0].URL)
	}
}

func TestDeduplicateKeepsDistinctStories(t *testing.T) {
	articles := []news.Article{
		{Title: "Apple unveils new iPhone lineup", URL: "https://a.example.com/1"},
		{Title: "Oil prices drop on supply concerns", URL: "https://b.example.com/2"},
		{Title: "Senate passes infrastructure bill", URL: "https://c.example.com/3"},
	}

	result := Deduplicate(articles)
	if len(result) != 3 {
		t.Fatalf("expected all 3 articles kept, got %d", len(result))
	}
}

func TestDeduplicateHighOverlapTitles(t *testing.T) {
	// Six shared words of seven total gives an overlap ratio above 0.8.
	articles := []news.Article{
		{Title: "stocks rally as inflation data cools sharply", URL: "https://a.example.com/1"},
		{Title: "stocks rally as inflation data cools", URL: "https://b.example.com/2"},
	}

	result := Deduplicate(articles)
	if len(result) != 1 {
		t.Fatalf("expected duplicate collapsed, got %d articles", len(result))
	}
}

func TestDeduplicateEmptyTitlesNeverMatch(t *testing.T) {
	articles := []news.Article{
		{Title: "", URL: "https://a.example.com/1"},
		{Title: "", URL: "https://b.example.com/2"},
	}

	result := Deduplicate(articles)
	if len(result) != 2 {
		t.Fatalf("empty titles should not match each other, got %d articles", len(result))
	}
}

func TestNormalizeTitle(t *testing.T) {
	got := normalizeTitle("  Fed Raises  Rates, Again!  ")
	want := "fed raises rates again"
	if got != want {
		t.Errorf("normalizeTitle = %q, want %q", got, want)
	}
}

func TestOverlapRatio(t *testing.T) {
	a := wordSet("fed raises rates")
	b := wordSet("fed cuts rates")
	// intersection 2, union 4
	if got := overlapRatio(a, b); got != 0.5 {
		t.Errorf("overlapRatio = %v, want 0.5", got)
	}
	if got := overlapRatio(a, wordSet("")); got != 0 {
		t.Errorf("overlapRatio with empty set = %v, want 0", got)
	}
}
