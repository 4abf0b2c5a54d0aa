// Package analyze enriches collected articles with model-generated
// assessments: a summary, sentiment with confidence, key insights, and a
// market impact classification.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/fwehrle/newslens/internal/llm"
	"github.com/fwehrle/newslens/internal/news"
)

// Content budgets per request, in characters. Impact classification gets by
// on less context than the other three.
const (
	summaryBudget   = 2000
	sentimentBudget = 2000
	insightsBudget  = 2000
	impactBudget    = 1500
)

const maxInsights = 5

// Analyzer runs the per-article enrichment requests against the configured
// model.
type Analyzer struct {
	oracle *llm.Caller
}

// New creates an analyzer on top of an existing caller.
func New(oracle *llm.Caller) *Analyzer {
	return &Analyzer{oracle: oracle}
}

// Analyze produces the full assessment for one article. The four requests
// run concurrently.
//
// Summary and sentiment are load-bearing: if either fails, the returned
// analysis is marked Failed with neutral defaults and the reason recorded.
// Insights and impact degrade quietly to an empty list and "minimal". The
// error return is reserved for conditions that should stop the whole run,
// authentication failures and context cancellation.
func (a *Analyzer) Analyze(ctx context.Context, article news.Article) (news.Analysis, error) {
	var (
		summary   string
		sentiment sentimentResult
		insights  []string
		impact    news.Impact

		summaryErr   error
		sentimentErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		summary, err = a.generateSummary(gctx, article.Title, article.Content)
		if fatal(err) {
			return err
		}
		summaryErr = err
		return nil
	})
	g.Go(func() error {
		var err error
		sentiment, err = a.analyzeSentiment(gctx, article.Content)
		if fatal(err) {
			return err
		}
		sentimentErr = err
		return nil
	})
	g.Go(func() error {
		var err error
		insights, err = a.extractInsights(gctx, article.Content)
		if fatal(err) {
			return err
		}
		if err != nil {
			insights = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		impact, err = a.assessImpact(gctx, article.Content)
		if fatal(err) {
			return err
		}
		if err != nil {
			impact = news.ImpactMinimal
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return news.Analysis{}, err
	}

	if summaryErr != nil || sentimentErr != nil {
		reason := summaryErr
		if reason == nil {
			reason = sentimentErr
		}
		return news.Analysis{
			Sentiment:     news.SentimentNeutral,
			Confidence:    0,
			Summary:       "Analysis unavailable for this article",
			MarketImpact:  news.ImpactUnknown,
			Failed:        true,
			FailureReason: reason.Error(),
		}, nil
	}

	return news.Analysis{
		Sentiment:    sentiment.sentiment,
		Confidence:   sentiment.confidence,
		Reasoning:    sentiment.reasoning,
		Summary:      summary,
		KeyInsights:  insights,
		MarketImpact: impact,
	}, nil
}

// fatal reports whether an enrichment error should abort the run instead of
// degrading the single article.
func fatal(err error) bool {
	return errors.Is(err, llm.ErrAuth) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (a *Analyzer) generateSummary(ctx context.Context, title, content string) (string, error) {
	prompt := fmt.Sprintf(`Please provide a concise summary of this news article.
Focus on the key points, main events, and important implications mentioned in the article.

Title: %s
Content: %s

Summary should be 2-3 sentences maximum.`, title, truncate(content, summaryBudget))

	text, err := a.oracle.Call(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   150,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	summary := strings.TrimSpace(text)
	if summary == "" {
		return "", errors.New("generating summary: empty response")
	}
	return summary, nil
}

type sentimentResult struct {
	sentiment  news.Sentiment
	confidence float64
	reasoning  string
}

func (a *Analyzer) analyzeSentiment(ctx context.Context, content string) (sentimentResult, error) {
	prompt := fmt.Sprintf(`Analyze the sentiment of this news article. Consider factors like:
- Overall tone (positive, negative, or neutral)
- Outlook and implications mentioned
- Impact on stakeholders
- Future prospects discussed

Content: %s

Respond with JSON in this exact format:
{"sentiment": "positive/negative/neutral", "confidence": 0.0-1.0, "reasoning": "brief explanation"}`,
		truncate(content, sentimentBudget))

	text, err := a.oracle.Call(ctx, llm.Request{
		System:      "You are a news analyst specializing in sentiment analysis. Respond only with valid JSON.",
		Prompt:      prompt,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return sentimentResult{}, fmt.Errorf("analyzing sentiment: %w", err)
	}

	obj := llm.ParseJSONObject(text)
	if obj == nil {
		return sentimentResult{}, errors.New("analyzing sentiment: response is not valid JSON")
	}

	label, _ := obj["sentiment"].(string)
	sentiment, ok := news.ParseSentiment(label)
	if !ok {
		return sentimentResult{}, fmt.Errorf("analyzing sentiment: unrecognized label %q", label)
	}

	confidence := 0.5
	if c, ok := obj["confidence"].(float64); ok {
		confidence = clamp(c, 0, 1)
	}
	reasoning, _ := obj["reasoning"].(string)

	return sentimentResult{
		sentiment:  sentiment,
		confidence: confidence,
		reasoning:  strings.TrimSpace(reasoning),
	}, nil
}

func (a *Analyzer) extractInsights(ctx context.Context, content string) ([]string, error) {
	prompt := fmt.Sprintf(`Extract 3-5 key insights from this article that would be valuable for understanding the main topic.
Focus on:
- Specific facts or data mentioned
- Important developments or announcements
- Driving factors and trends
- Analysis points and expert opinions

Content: %s

Respond with JSON in this format:
{"insights": ["insight 1", "insight 2", "insight 3"]}`, truncate(content, insightsBudget))

	text, err := a.oracle.Call(ctx, llm.Request{
		System:      "You are a news analyst. Extract actionable insights from news articles. Respond only with valid JSON.",
		Prompt:      prompt,
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("extracting insights: %w", err)
	}

	obj := llm.ParseJSONObject(text)
	if obj == nil {
		return nil, errors.New("extracting insights: response is not valid JSON")
	}

	raw, _ := obj["insights"].([]any)
	var insights []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				insights = append(insights, s)
			}
		}
		if len(insights) == maxInsights {
			break
		}
	}
	return insights, nil
}

func (a *Analyzer) assessImpact(ctx context.Context, content string) (news.Impact, error) {
	prompt := fmt.Sprintf(`Assess the potential impact of this news on the relevant industry, market, or stakeholders.

Content: %s

Classify the impact as one of: "high", "medium", "low", "minimal"

Respond with JSON: {"impact": "level", "explanation": "brief reason"}`, truncate(content, impactBudget))

	text, err := a.oracle.Call(ctx, llm.Request{
		System:      "You are a news impact analyst. Assess the impact of news on relevant markets or stakeholders. Respond only with valid JSON.",
		Prompt:      prompt,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return "", fmt.Errorf("assessing impact: %w", err)
	}

	obj := llm.ParseJSONObject(text)
	if obj == nil {
		return "", errors.New("assessing impact: response is not valid JSON")
	}

	label, _ := obj["impact"].(string)
	impact, ok := news.ParseImpact(label)
	if !ok {
		return "", fmt.Errorf("assessing impact: unrecognized level %q", label)
	}
	return impact, nil
}

// OverallAnalysis synthesizes a narrative across the run's enriched
// articles. Failed analyses are excluded from the count, the sentiment
// distribution, and the quoted summaries alike.
func (a *Analyzer) OverallAnalysis(ctx context.Context, articles []news.EnrichedArticle) (string, error) {
	counts := news.NewSentimentDistribution()
	var summaries []string
	analyzed := 0
	for _, ea := range articles {
		if ea.Analysis.Failed {
			continue
		}
		analyzed++
		counts[ea.Analysis.Sentiment]++
		if ea.Analysis.Summary != "" && len(summaries) < 5 {
			summaries = append(summaries, ea.Analysis.Summary)
		}
	}
	if analyzed == 0 {
		return "No articles available for analysis.", nil
	}

	prompt := fmt.Sprintf(`Based on analysis of %d recent news articles, provide an overall topic assessment.

Sentiment Distribution:
- Positive: %d articles
- Negative: %d articles
- Neutral: %d articles

Key Article Summaries:
%s

Provide a comprehensive 3-4 paragraph analysis covering:
1. Overall sentiment and trend direction for this topic
2. Key factors and developments driving the narrative
3. Outlook and potential implications
4. Key insights and takeaways`,
		analyzed,
		counts[news.SentimentPositive],
		counts[news.SentimentNegative],
		counts[news.SentimentNeutral],
		strings.Join(summaries, "\n"))

	text, err := a.oracle.Call(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   500,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("generating overall analysis: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
