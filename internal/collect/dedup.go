package collect

import (
	"strings"
	"unicode"

	"github.com/fwehrle/newslens/internal/news"
)

// titleSimilarityThreshold is the word-overlap ratio above which two titles
// are treated as the same story.
const titleSimilarityThreshold = 0.8

// Deduplicate removes duplicate articles, preserving first-seen order.
// Matching is two-tier: exact URL repeats go first, then titles whose
// normalized forms are identical or overlap beyond the threshold. A
// candidate is dropped on the first kept title that crosses the threshold.
func Deduplicate(articles []news.Article) []news.Article {
	seenURLs := make(map[string]struct{}, len(articles))
	var kept []news.Article
	var keptWords []map[string]struct{}
	var keptNormalized []string

	for _, article := range articles {
		if _, dup := seenURLs[article.URL]; dup {
			continue
		}

		normalized := normalizeTitle(article.Title)
		words := wordSet(normalized)

		duplicate := false
		for i := range kept {
			if normalized != "" && normalized == keptNormalized[i] {
				duplicate = true
				break
			}
			if overlapRatio(words, keptWords[i]) >= titleSimilarityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		seenURLs[article.URL] = struct{}{}
		kept = append(kept, article)
		keptWords = append(keptWords, words)
		keptNormalized = append(keptNormalized, normalized)
	}

	return kept
}

// normalizeTitle lowercases a title and strips punctuation, collapsing
// whitespace.
func normalizeTitle(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func wordSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		set[w] = struct{}{}
	}
	return set
}

// overlapRatio is the Jaccard coefficient of two word sets.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
