// Package news defines the data model shared across the aggregation and
// analysis pipeline: raw articles, per-article analysis records, and the
// aggregate topic summary.
package news

import (
	"errors"
	"fmt"
	"time"
)

// MinContentLength is the minimum usable article body length. Articles
// shorter than this are dropped before analysis.
const MinContentLength = 100

// Sentiment is the classified tone of an article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment validates a raw sentiment string from the analysis oracle.
func ParseSentiment(s string) (Sentiment, bool) {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s), true
	}
	return "", false
}

// Polarity maps a sentiment to its signed weight: positive=+1, neutral=0,
// negative=-1.
func (s Sentiment) Polarity() float64 {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	}
	return 0
}

// Impact is the assessed market/industry impact level of an article.
type Impact string

const (
	ImpactHigh    Impact = "high"
	ImpactMedium  Impact = "medium"
	ImpactLow     Impact = "low"
	ImpactMinimal Impact = "minimal"

	// ImpactUnknown marks records whose assessment failed. Never produced by
	// a successful analysis.
	ImpactUnknown Impact = "unknown"
)

// ParseImpact validates a raw impact string from the analysis oracle.
func ParseImpact(s string) (Impact, bool) {
	switch Impact(s) {
	case ImpactHigh, ImpactMedium, ImpactLow, ImpactMinimal:
		return Impact(s), true
	}
	return "", false
}

// Article is a single retrieved news item. Articles are immutable once
// created and live only for the duration of one run.
type Article struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Source  string `json:"source"`
	URL     string `json:"url"`
	Author  string `json:"author,omitempty"`

	// PublishedAt is best-effort: sources that omit a publication date get
	// the fetch time instead, with DateEstimated set.
	PublishedAt   time.Time `json:"published_at"`
	DateEstimated bool      `json:"date_estimated,omitempty"`

	// ContentLength carries the original body length when Content itself has
	// been stripped, e.g. after a CSV round trip.
	ContentLength int `json:"content_length,omitempty"`
}

// Length returns the body length, surviving export formats that drop the
// content text.
func (a Article) Length() int {
	if a.Content != "" {
		return len(a.Content)
	}
	return a.ContentLength
}

var (
	ErrMissingTitle   = errors.New("article has no title")
	ErrMissingSource  = errors.New("article has no source")
	ErrMissingContent = errors.New("article has no content")
)

// Validate reports whether an article is usable for analysis: title, source
// and a body of at least MinContentLength characters.
func (a Article) Validate() error {
	if a.Title == "" {
		return ErrMissingTitle
	}
	if a.Source == "" {
		return ErrMissingSource
	}
	if a.Content == "" {
		return ErrMissingContent
	}
	if len(a.Content) < MinContentLength {
		return fmt.Errorf("article content too short: %d chars (minimum %d)", len(a.Content), MinContentLength)
	}
	return nil
}

// Analysis is the AI-derived enrichment of one article. Either every field
// is present and valid, or Failed is set; partial oracle output is never
// passed off as a valid record.
type Analysis struct {
	Sentiment    Sentiment `json:"sentiment"`
	Confidence   float64   `json:"confidence"`
	Reasoning    string    `json:"reasoning,omitempty"`
	Summary      string    `json:"summary"`
	KeyInsights  []string  `json:"key_insights"`
	MarketImpact Impact    `json:"market_impact"`

	Failed        bool   `json:"failed,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// EnrichedArticle pairs an article with its analysis record.
type EnrichedArticle struct {
	Article  Article  `json:"article"`
	Analysis Analysis `json:"analysis"`
}

// SentimentDistribution counts articles per sentiment. All three keys are
// always present, even at zero.
type SentimentDistribution map[Sentiment]int

// NewSentimentDistribution returns a distribution with all keys zeroed.
func NewSentimentDistribution() SentimentDistribution {
	return SentimentDistribution{
		SentimentPositive: 0,
		SentimentNegative: 0,
		SentimentNeutral:  0,
	}
}

// DateRange is the publication span of a set of articles.
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// Summary aggregates analysis records for one topic run.
type Summary struct {
	TotalCount            int                   `json:"total_count"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
	AverageConfidence     float64               `json:"average_confidence"`
	OverallSentimentScore float64               `json:"overall_sentiment_score"`
	DateRange             DateRange             `json:"date_range"`
	Sources               []string              `json:"sources"`
	Narrative             string                `json:"narrative,omitempty"`
}

// ImpactFactor is one article contributing to the aggregate impact score.
type ImpactFactor struct {
	Title      string  `json:"title"`
	Impact     Impact  `json:"impact"`
	Confidence float64 `json:"confidence"`
}

// ImpactAssessment is the aggregate market impact over a set of articles.
type ImpactAssessment struct {
	Score   float64        `json:"score"`
	Level   Impact         `json:"level"`
	Factors []ImpactFactor `json:"factors"`
}
