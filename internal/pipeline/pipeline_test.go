package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fwehrle/newslens/internal/llm"
	"github.com/fwehrle/newslens/internal/news"
)

type fakeAggregator struct {
	articles []news.Article
	err      error
}

func (f *fakeAggregator) Aggregate(ctx context.Context, terms, sources []string, start, end time.Time, maxArticles int) ([]news.Article, error) {
	return f.articles, f.err
}

func (f *fakeAggregator) SourceNames() []string { return []string{"Reuters", "BBC News"} }

type fakeAnalyzer struct {
	analyses  map[string]news.Analysis
	errs      map[string]error
	narrative string
	calls     int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, article news.Article) (news.Analysis, error) {
	f.calls++
	if err, ok := f.errs[article.URL]; ok {
		return news.Analysis{}, err
	}
	if a, ok := f.analyses[article.URL]; ok {
		return a, nil
	}
	return news.Analysis{Sentiment: news.SentimentNeutral, Confidence: 0.5, Summary: "ok", MarketImpact: news.ImpactLow}, nil
}

func (f *fakeAnalyzer) OverallAnalysis(ctx context.Context, articles []news.EnrichedArticle) (string, error) {
	if f.narrative == "" {
		return "No articles available for analysis.", nil
	}
	return f.narrative, nil
}

func validArticle(url string) news.Article {
	return news.Article{
		Title:       "headline for " + url,
		Content:     strings.Repeat("body text ", 20),
		Source:      "Reuters",
		URL:         url,
		PublishedAt: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunProducesReport(t *testing.T) {
	p := &Pipeline{
		sources:  &fakeAggregator{articles: []news.Article{validArticle("https://a"), validArticle("https://b")}},
		analyzer: &fakeAnalyzer{narrative: "Steady coverage."},
	}

	result, err := p.Run(context.Background(), Options{SearchTerms: []string{"rates"}, MaxArticles: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RunID == "" {
		t.Error("expected run ID")
	}
	if result.Report == nil {
		t.Fatal("expected report")
	}
	if len(result.Report.Articles) != 2 {
		t.Errorf("articles = %d, want 2", len(result.Report.Articles))
	}
	if result.Report.Summary.TotalCount != 2 {
		t.Errorf("summary count = %d, want 2", result.Report.Summary.TotalCount)
	}
	if result.Report.Summary.Narrative != "Steady coverage." {
		t.Errorf("narrative = %q", result.Report.Summary.Narrative)
	}
	if len(result.Steps) != 4 {
		t.Errorf("steps = %d, want collect/enrich/rollup/narrative", len(result.Steps))
	}
	for _, s := range result.Steps {
		if s.Err != nil {
			t.Errorf("step %s failed: %v", s.Name, s.Err)
		}
	}
}

func TestRunCollectionFailureAborts(t *testing.T) {
	p := &Pipeline{
		sources:  &fakeAggregator{err: errors.New("network down")},
		analyzer: &fakeAnalyzer{},
	}
	result, err := p.Run(context.Background(), Options{MaxArticles: 5})
	if err == nil {
		t.Fatal("expected error")
	}
	if result == nil || len(result.Steps) != 1 || result.Steps[0].Err == nil {
		t.Errorf("expected a failed collect step, got %+v", result)
	}
}

func TestRunInvalidArticleBecomesFailedRecord(t *testing.T) {
	thin := validArticle("https://thin")
	thin.Content = "too short"

	p := &Pipeline{
		sources:  &fakeAggregator{articles: []news.Article{validArticle("https://ok"), thin}},
		analyzer: &fakeAnalyzer{},
	}

	result, err := p.Run(context.Background(), Options{MaxArticles: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Report.Articles) != 1 {
		t.Errorf("articles = %d, want 1", len(result.Report.Articles))
	}
	if len(result.Report.Failed) != 1 || !result.Report.Failed[0].Analysis.Failed {
		t.Errorf("expected 1 failed record, got %+v", result.Report.Failed)
	}
}

func TestRunAuthFailureKeepsPartialResults(t *testing.T) {
	analyzer := &fakeAnalyzer{
		errs: map[string]error{"https://b": llm.ErrAuth},
	}
	p := &Pipeline{
		sources: &fakeAggregator{articles: []news.Article{
			validArticle("https://a"), validArticle("https://b"), validArticle("https://c"),
		}},
		analyzer: analyzer,
	}

	result, err := p.Run(context.Background(), Options{MaxArticles: 5})
	if err != nil {
		t.Fatalf("Run should keep partial results: %v", err)
	}
	if analyzer.calls != 2 {
		t.Errorf("enrichment should stop at the fatal error, got %d calls", analyzer.calls)
	}
	if len(result.Report.Articles) != 1 {
		t.Errorf("articles = %d, want the one analyzed before the failure", len(result.Report.Articles))
	}

	var enrichStep *StepResult
	for i := range result.Steps {
		if result.Steps[i].Name == "enrich" {
			enrichStep = &result.Steps[i]
		}
	}
	if enrichStep == nil || !errors.Is(enrichStep.Err, llm.ErrAuth) {
		t.Errorf("enrich step should record the auth failure, got %+v", enrichStep)
	}
}

func TestRunAuthFailureWithNothingAnalyzedAborts(t *testing.T) {
	analyzer := &fakeAnalyzer{
		errs: map[string]error{"https://a": llm.ErrAuth},
	}
	p := &Pipeline{
		sources:  &fakeAggregator{articles: []news.Article{validArticle("https://a")}},
		analyzer: analyzer,
	}

	_, err := p.Run(context.Background(), Options{MaxArticles: 5})
	if !errors.Is(err, llm.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestRunFailedAnalysisGoesToFailedList(t *testing.T) {
	analyzer := &fakeAnalyzer{
		analyses: map[string]news.Analysis{
			"https://a": {Sentiment: news.SentimentNeutral, Failed: true, FailureReason: "oracle parse failure"},
		},
	}
	p := &Pipeline{
		sources:  &fakeAggregator{articles: []news.Article{validArticle("https://a")}},
		analyzer: analyzer,
	}

	result, err := p.Run(context.Background(), Options{MaxArticles: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Report.Articles) != 0 || len(result.Report.Failed) != 1 {
		t.Errorf("failed analysis should land in Failed, got %d/%d", len(result.Report.Articles), len(result.Report.Failed))
	}
	if result.Report.Summary.TotalCount != 0 {
		t.Errorf("failed records must not count in the summary, got %d", result.Report.Summary.TotalCount)
	}
}

func TestDryRunSkipsEnrichment(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	p := &Pipeline{
		sources:  &fakeAggregator{articles: []news.Article{validArticle("https://a")}},
		analyzer: analyzer,
	}

	articles, err := p.DryRun(context.Background(), Options{MaxArticles: 5})
	if err != nil {
		t.Fatalf("DryRun: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("articles = %d, want 1", len(articles))
	}
	if analyzer.calls != 0 {
		t.Errorf("DryRun must not call the analyzer, got %d calls", analyzer.calls)
	}
}
