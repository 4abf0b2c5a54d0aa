// Package collect gathers candidate articles for a topic from the
// configured sources, isolates per-source failures, and reduces the union
// to a bounded, deduplicated, date-filtered set.
package collect

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/fwehrle/newslens/internal/config"
	"github.com/fwehrle/newslens/internal/news"
)

// candidateMultiple bounds how many raw candidates are gathered relative to
// maxArticles before the source loop stops. Keeps the pairwise title
// comparison in Deduplicate predictable.
const candidateMultiple = 3

// Aggregator drives the source adapters and produces the final article set
// for a run. It holds no per-run state; Aggregate may be called repeatedly.
type Aggregator struct {
	adapters map[string]SourceAdapter
	limiter  *rate.Limiter
}

// NewAggregator builds an aggregator from the configured source registry.
// Feed sources get feed adapters; the Google News name maps to the
// query-based search adapter when enabled.
func NewAggregator(cfg *config.Config, extractor Extractor) *Aggregator {
	adapters := make(map[string]SourceAdapter)
	for _, f := range cfg.Sources.General {
		adapters[f.Name] = NewFeedAdapter(f.Name, f.URL, cfg.Scrape.GeneralFeedCap, extractor)
	}
	for _, f := range cfg.Sources.Tech {
		adapters[f.Name] = NewFeedAdapter(f.Name, f.URL, cfg.Scrape.TechFeedCap, extractor)
	}
	if cfg.Search.Enabled {
		adapters[GoogleNewsName] = NewSearchAdapter(cfg.Search.BaseURL, extractor)
	}

	rps := cfg.Scrape.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Aggregator{
		adapters: adapters,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// SourceNames returns the names of all registered sources.
func (a *Aggregator) SourceNames() []string {
	names := make([]string, 0, len(a.adapters))
	for name := range a.adapters {
		names = append(names, name)
	}
	return names
}

// Aggregate fetches candidates from the requested sources in order, then
// applies the date window, deduplication, and the maxArticles cap.
//
// Guarantees on the result: at most maxArticles entries, pairwise-distinct
// URLs, and every article inside [start, end]. A single source failing is
// logged and contributes nothing; only context cancellation aborts the run.
func (a *Aggregator) Aggregate(ctx context.Context, terms, sources []string, start, end time.Time, maxArticles int) ([]news.Article, error) {
	if maxArticles <= 0 || len(sources) == 0 {
		return nil, nil
	}

	var candidates []news.Article
	for _, name := range sources {
		adapter, ok := a.adapters[name]
		if !ok {
			log.Printf("Unknown source: %s", name)
			continue
		}

		// Courtesy delay between source fetches.
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		perSource := maxArticles
		if adapter.Name() == GoogleNewsName {
			// The search path contributes at most half the budget, leaving
			// room for the curated feeds.
			perSource = (maxArticles + 1) / 2
		}

		fetched, err := adapter.Fetch(ctx, terms, perSource)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Source %s failed: %v", name, err)
			continue
		}
		log.Printf("Source %s contributed %d candidates", name, len(fetched))
		candidates = append(candidates, fetched...)

		if len(candidates) >= candidateMultiple*maxArticles {
			break
		}
	}

	inWindow := FilterByWindow(candidates, start, end)
	unique := Deduplicate(inWindow)
	if len(unique) > maxArticles {
		unique = unique[:maxArticles]
	}

	log.Printf("Aggregation complete: %d candidates, %d in window, %d after dedup",
		len(candidates), len(inWindow), len(unique))
	return unique, nil
}
