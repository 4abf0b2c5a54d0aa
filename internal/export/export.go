// Package export persists run results: the tabular CSV view of enriched
// articles and the full JSON report consumed by the report server.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/go-sanitize"

	"github.com/fwehrle/newslens/internal/news"
)

// csvTimeLayout is the human-readable timestamp format used in exports.
const csvTimeLayout = "2006-01-02 15:04"

var csvHeader = []string{
	"Title", "Source", "Published Date", "Author", "URL",
	"Sentiment", "Confidence Score", "Market Impact",
	"Summary", "Key Insights", "Content Length",
}

var (
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	emailPattern = regexp.MustCompile(`\S+@\S+`)
)

// CleanText flattens text to a single line and strips URLs and email
// addresses. Used on free-text fields before they enter an export.
func CleanText(text string) string {
	cleaned := sanitize.SingleLine(text)
	cleaned = urlPattern.ReplaceAllString(cleaned, "")
	cleaned = emailPattern.ReplaceAllString(cleaned, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// joinInsights packs insights into one cell. The cell separator is cleaned
// out of each insight first so ReadCSV recovers the original list shape.
func joinInsights(insights []string) string {
	cleaned := make([]string, 0, len(insights))
	for _, insight := range insights {
		cleaned = append(cleaned, strings.ReplaceAll(CleanText(insight), "; ", ", "))
	}
	return strings.Join(cleaned, "; ")
}

// WriteCSV writes enriched articles as CSV rows. The body text itself is
// not exported; its length survives in the Content Length column.
func WriteCSV(w io.Writer, articles []news.EnrichedArticle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, ea := range articles {
		published := ""
		if !ea.Article.PublishedAt.IsZero() {
			published = ea.Article.PublishedAt.UTC().Format(csvTimeLayout)
		}
		row := []string{
			CleanText(ea.Article.Title),
			ea.Article.Source,
			published,
			CleanText(ea.Article.Author),
			ea.Article.URL,
			string(ea.Analysis.Sentiment),
			strconv.FormatFloat(ea.Analysis.Confidence, 'f', -1, 64),
			string(ea.Analysis.MarketImpact),
			CleanText(ea.Analysis.Summary),
			joinInsights(ea.Analysis.KeyInsights),
			strconv.Itoa(ea.Article.Length()),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a CSV export back into enriched articles. The article
// content is gone; ContentLength preserves what the column recorded.
func ReadCSV(r io.Reader) ([]news.EnrichedArticle, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records[0]) != len(csvHeader) || records[0][0] != csvHeader[0] {
		return nil, fmt.Errorf("unexpected CSV header: %v", records[0])
	}

	var articles []news.EnrichedArticle
	for i, row := range records[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i+2, len(row), len(csvHeader))
		}

		var published time.Time
		if row[2] != "" {
			published, err = time.Parse(csvTimeLayout, row[2])
			if err != nil {
				return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, row[2], err)
			}
		}
		confidence, err := strconv.ParseFloat(row[6], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing confidence %q: %w", i+2, row[6], err)
		}
		contentLength, err := strconv.Atoi(row[10])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing content length %q: %w", i+2, row[10], err)
		}

		var insights []string
		if row[9] != "" {
			for _, part := range strings.Split(row[9], "; ") {
				if part = strings.TrimSpace(part); part != "" {
					insights = append(insights, part)
				}
			}
		}

		articles = append(articles, news.EnrichedArticle{
			Article: news.Article{
				Title:         row[0],
				Source:        row[1],
				PublishedAt:   published,
				Author:        row[3],
				URL:           row[4],
				ContentLength: contentLength,
			},
			Analysis: news.Analysis{
				Sentiment:    news.Sentiment(row[5]),
				Confidence:   confidence,
				MarketImpact: news.Impact(row[7]),
				Summary:      row[8],
				KeyInsights:  insights,
			},
		})
	}
	return articles, nil
}

// Report is the complete result of one pipeline run, as persisted to disk
// and served by the report server.
type Report struct {
	RunID       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	SearchTerms []string               `json:"search_terms,omitempty"`
	Sources     []string               `json:"sources,omitempty"`
	WindowStart time.Time              `json:"window_start,omitempty"`
	WindowEnd   time.Time              `json:"window_end,omitempty"`
	Summary     news.Summary           `json:"summary"`
	Impact      news.ImpactAssessment  `json:"impact"`
	TopInsights []string               `json:"top_insights,omitempty"`
	Articles    []news.EnrichedArticle `json:"articles"`
	Failed      []news.EnrichedArticle `json:"failed_articles,omitempty"`
}

// WriteReport persists the report as indented JSON.
func WriteReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// LoadReport reads a report written by WriteReport.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return &report, nil
}
