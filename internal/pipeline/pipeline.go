// Package pipeline orchestrates a full run: collect articles, enrich them
// through the analysis oracle, roll the results up, and assemble the
// report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fwehrle/newslens/internal/analyze"
	"github.com/fwehrle/newslens/internal/collect"
	"github.com/fwehrle/newslens/internal/config"
	"github.com/fwehrle/newslens/internal/export"
	"github.com/fwehrle/newslens/internal/extract"
	"github.com/fwehrle/newslens/internal/llm"
	"github.com/fwehrle/newslens/internal/news"
	"github.com/fwehrle/newslens/internal/report"
)

const topInsightCount = 10

type aggregator interface {
	Aggregate(ctx context.Context, terms, sources []string, start, end time.Time, maxArticles int) ([]news.Article, error)
	SourceNames() []string
}

type analyzer interface {
	Analyze(ctx context.Context, article news.Article) (news.Analysis, error)
	OverallAnalysis(ctx context.Context, articles []news.EnrichedArticle) (string, error)
}

// Options are the per-run parameters.
type Options struct {
	SearchTerms []string
	// Sources names the adapters to query, in priority order. Empty means
	// all configured sources.
	Sources     []string
	StartDate   time.Time
	EndDate     time.Time
	MaxArticles int
}

// StepResult records the outcome of one pipeline stage.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result is everything a run produced.
type Result struct {
	RunID  string
	Steps  []StepResult
	Report *export.Report
}

// Pipeline wires the collection, analysis and rollup stages together.
type Pipeline struct {
	sources  aggregator
	analyzer analyzer
}

// New assembles a pipeline from configuration.
func New(cfg *config.Config) *Pipeline {
	extractor := extract.New(time.Duration(cfg.Scrape.TimeoutSeconds) * time.Second)

	provider := llm.CreateProvider(
		cfg.Analysis.Provider,
		cfg.Analysis.Model,
		cfg.Analysis.APIKeyEnv,
		cfg.Analysis.OllamaModel,
		cfg.Analysis.OllamaURL,
	)
	policy := llm.DefaultRetryPolicy()
	if cfg.Analysis.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Analysis.MaxAttempts
	}
	oracle := llm.NewCaller(provider, policy, cfg.Analysis.RequestsPerSecond)

	return &Pipeline{
		sources:  collect.NewAggregator(cfg, extractor),
		analyzer: analyze.New(oracle),
	}
}

// Run executes the full pipeline. Per-article and per-source problems are
// absorbed into step summaries and failed records; the error return is for
// conditions that invalidate the whole run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}

	sources := opts.Sources
	if len(sources) == 0 {
		sources = p.sources.SourceNames()
	}

	articles, err := p.sources.Aggregate(ctx, opts.SearchTerms, sources,
		opts.StartDate, opts.EndDate, opts.MaxArticles)
	if err != nil {
		result.Steps = append(result.Steps, StepResult{Name: "collect", Err: err})
		return result, fmt.Errorf("collecting articles: %w", err)
	}
	result.Steps = append(result.Steps, StepResult{
		Name:    "collect",
		Summary: fmt.Sprintf("%d articles from %d sources", len(articles), len(sources)),
	})

	enriched, failed, enrichErr := p.enrich(ctx, articles)
	step := StepResult{
		Name:    "enrich",
		Summary: fmt.Sprintf("%d analyzed, %d failed", len(enriched), len(failed)),
		Err:     enrichErr,
	}
	result.Steps = append(result.Steps, step)
	if enrichErr != nil && len(enriched) == 0 {
		return result, fmt.Errorf("enriching articles: %w", enrichErr)
	}

	summary := report.Summarize(enriched)
	impact := report.MarketImpact(enriched)
	insights := report.TopInsights(enriched, topInsightCount)
	result.Steps = append(result.Steps, StepResult{
		Name:    "rollup",
		Summary: fmt.Sprintf("sentiment score %.2f, impact %s", summary.OverallSentimentScore, impact.Level),
	})

	narrative, err := p.analyzer.OverallAnalysis(ctx, enriched)
	if err != nil {
		result.Steps = append(result.Steps, StepResult{Name: "narrative", Err: err})
	} else {
		summary.Narrative = narrative
		result.Steps = append(result.Steps, StepResult{Name: "narrative", Summary: "generated"})
	}

	result.Report = &export.Report{
		RunID:       result.RunID,
		GeneratedAt: time.Now().UTC(),
		SearchTerms: opts.SearchTerms,
		Sources:     sources,
		WindowStart: opts.StartDate,
		WindowEnd:   opts.EndDate,
		Summary:     summary,
		Impact:      impact,
		TopInsights: insights,
		Articles:    enriched,
		Failed:      failed,
	}
	return result, nil
}

// enrich analyzes each article in turn. Articles failing validation or
// whose load-bearing analysis fails become failed records; a fatal oracle
// error stops further enrichment and is returned alongside whatever
// completed.
func (p *Pipeline) enrich(ctx context.Context, articles []news.Article) (enriched, failed []news.EnrichedArticle, err error) {
	for _, article := range articles {
		if ctx.Err() != nil {
			return enriched, failed, ctx.Err()
		}

		if verr := article.Validate(); verr != nil {
			log.Printf("Skipping %s: %v", article.URL, verr)
			failed = append(failed, news.EnrichedArticle{
				Article: article,
				Analysis: news.Analysis{
					Sentiment:     news.SentimentNeutral,
					Summary:       "No content available for analysis",
					MarketImpact:  news.ImpactUnknown,
					Failed:        true,
					FailureReason: verr.Error(),
				},
			})
			continue
		}

		analysis, aerr := p.analyzer.Analyze(ctx, article)
		if aerr != nil {
			if errors.Is(aerr, llm.ErrAuth) {
				log.Printf("Stopping enrichment: %v", aerr)
			}
			return enriched, failed, aerr
		}

		record := news.EnrichedArticle{Article: article, Analysis: analysis}
		if analysis.Failed {
			failed = append(failed, record)
		} else {
			enriched = append(enriched, record)
		}
	}
	return enriched, failed, nil
}

// DryRun collects without enriching, for previewing what a run would
// analyze.
func (p *Pipeline) DryRun(ctx context.Context, opts Options) ([]news.Article, error) {
	sources := opts.Sources
	if len(sources) == 0 {
		sources = p.sources.SourceNames()
	}
	return p.sources.Aggregate(ctx, opts.SearchTerms, sources,
		opts.StartDate, opts.EndDate, opts.MaxArticles)
}
