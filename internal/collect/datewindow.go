package collect

import (
	"time"

	"github.com/fwehrle/newslens/internal/news"
)

// FilterByWindow keeps articles published inside the closed interval
// [start, end]. Articles without a usable timestamp are dropped; estimated
// fetch-time dates pass like any other timestamp. A zero start or end
// leaves that side of the window open.
func FilterByWindow(articles []news.Article, start, end time.Time) []news.Article {
	var kept []news.Article
	for _, a := range articles {
		if a.PublishedAt.IsZero() {
			continue
		}
		if !start.IsZero() && a.PublishedAt.Before(start) {
			continue
		}
		if !end.IsZero() && a.PublishedAt.After(end) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
