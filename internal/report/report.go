// Package report computes pure aggregations over enriched articles: the
// topic summary, attribute filters, top insights, and the aggregate market
// impact. Nothing here performs I/O.
package report

import (
	"sort"
	"strings"

	"github.com/fwehrle/newslens/internal/news"
)

// Aggregate impact thresholds over the weighted per-article scores.
const (
	highThreshold   = 2.5
	mediumThreshold = 1.5
	lowThreshold    = 0.7
)

const maxImpactFactors = 5

// impactWeight maps per-article impact levels to their numeric weight.
// Unknown (failed assessment) counts as a middling 1.0 rather than zero.
func impactWeight(impact news.Impact) float64 {
	switch impact {
	case news.ImpactHigh:
		return 3
	case news.ImpactMedium:
		return 2
	case news.ImpactLow:
		return 1
	case news.ImpactMinimal:
		return 0.5
	}
	return 1
}

// Summarize reduces a set of enriched articles to the topic summary.
// Failed analyses are excluded from every statistic, including the count.
// An empty or all-failed input yields zero values with the sentiment
// distribution keys still present.
func Summarize(articles []news.EnrichedArticle) news.Summary {
	summary := news.Summary{
		SentimentDistribution: news.NewSentimentDistribution(),
	}

	var confidenceSum, scoreSum float64
	seenSources := make(map[string]struct{})

	for _, ea := range articles {
		if ea.Analysis.Failed {
			continue
		}
		summary.TotalCount++
		summary.SentimentDistribution[ea.Analysis.Sentiment]++
		confidenceSum += ea.Analysis.Confidence
		scoreSum += ea.Analysis.Confidence * ea.Analysis.Sentiment.Polarity()

		if t := ea.Article.PublishedAt; !t.IsZero() {
			if summary.DateRange.Earliest.IsZero() || t.Before(summary.DateRange.Earliest) {
				summary.DateRange.Earliest = t
			}
			if summary.DateRange.Latest.IsZero() || t.After(summary.DateRange.Latest) {
				summary.DateRange.Latest = t
			}
		}

		if _, seen := seenSources[ea.Article.Source]; !seen && ea.Article.Source != "" {
			seenSources[ea.Article.Source] = struct{}{}
			summary.Sources = append(summary.Sources, ea.Article.Source)
		}
	}

	if summary.TotalCount > 0 {
		summary.AverageConfidence = confidenceSum / float64(summary.TotalCount)
		summary.OverallSentimentScore = scoreSum / float64(summary.TotalCount)
	}
	return summary
}

// Options narrows an article set by analysis attributes. Zero values (and
// the explicit "all" sentinel) disable the corresponding filter.
type Options struct {
	Sentiment     string
	Source        string
	MinConfidence float64
}

// Filter returns the articles matching every enabled criterion, preserving
// input order. Failed analyses never match a sentiment or confidence
// filter.
func Filter(articles []news.EnrichedArticle, opts Options) []news.EnrichedArticle {
	var kept []news.EnrichedArticle
	for _, ea := range articles {
		if opts.Sentiment != "" && opts.Sentiment != "all" {
			if ea.Analysis.Failed || string(ea.Analysis.Sentiment) != opts.Sentiment {
				continue
			}
		}
		if opts.Source != "" && opts.Source != "all" && ea.Article.Source != opts.Source {
			continue
		}
		if opts.MinConfidence > 0 {
			if ea.Analysis.Failed || ea.Analysis.Confidence < opts.MinConfidence {
				continue
			}
		}
		kept = append(kept, ea)
	}
	return kept
}

// TopInsights returns the n most frequent insights across all analyses,
// compared after normalization. Ties break toward first appearance, and the
// normalized form is what gets returned.
func TopInsights(articles []news.EnrichedArticle, n int) []string {
	if n <= 0 {
		return nil
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for _, ea := range articles {
		for _, insight := range ea.Analysis.KeyInsights {
			norm := normalizeInsight(insight)
			if norm == "" {
				continue
			}
			if _, ok := counts[norm]; !ok {
				firstSeen[norm] = len(order)
				order = append(order, norm)
			}
			counts[norm]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

// normalizeInsight canonicalizes an insight for frequency counting:
// lowercase, collapsed whitespace, no leading article, no trailing
// punctuation.
func normalizeInsight(insight string) string {
	s := strings.Join(strings.Fields(strings.ToLower(insight)), " ")
	s = strings.TrimRight(s, ".!?")
	for _, prefix := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	return strings.TrimSpace(s)
}

// MarketImpact aggregates the per-article impact assessments into a single
// weighted score and level. Each article contributes its level's weight
// scaled by the analysis confidence; the score is the mean contribution.
// Failed analyses are excluded. High and medium impact articles appear as
// factors, strongest confidence first.
func MarketImpact(articles []news.EnrichedArticle) news.ImpactAssessment {
	assessment := news.ImpactAssessment{Level: news.ImpactMinimal}

	var sum float64
	var counted int
	for _, ea := range articles {
		if ea.Analysis.Failed {
			continue
		}
		counted++
		sum += impactWeight(ea.Analysis.MarketImpact) * ea.Analysis.Confidence

		if ea.Analysis.MarketImpact == news.ImpactHigh || ea.Analysis.MarketImpact == news.ImpactMedium {
			assessment.Factors = append(assessment.Factors, news.ImpactFactor{
				Title:      ea.Article.Title,
				Impact:     ea.Analysis.MarketImpact,
				Confidence: ea.Analysis.Confidence,
			})
		}
	}

	if counted == 0 {
		return assessment
	}
	assessment.Score = sum / float64(counted)

	switch {
	case assessment.Score >= highThreshold:
		assessment.Level = news.ImpactHigh
	case assessment.Score >= mediumThreshold:
		assessment.Level = news.ImpactMedium
	case assessment.Score >= lowThreshold:
		assessment.Level = news.ImpactLow
	}

	sort.SliceStable(assessment.Factors, func(i, j int) bool {
		return assessment.Factors[i].Confidence > assessment.Factors[j].Confidence
	})
	if len(assessment.Factors) > maxImpactFactors {
		assessment.Factors = assessment.Factors[:maxImpactFactors]
	}
	return assessment
}
