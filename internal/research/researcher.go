package research

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"inkwell/internal/config"
	"inkwell/internal/content"
	"inkwell/internal/logging"
	"inkwell/internal/services"
	"inkwell/internal/services/textgen"
	"inkwell/internal/topics"
)

const (
	maxInsightsPerPage = 8
	primaryKeywordCap  = 3

	systemPrompt = "You are an expert travel and SEO researcher specializing in cycling tourism. " +
		"You return only valid JSON."
)

// Researcher runs the research stage.
type Researcher struct {
	cfg       config.Research
	generator textgen.TextGenerator
	client    *http.Client
	logger    *slog.Logger
}

// NewResearcher builds a researcher around the configured competitor list and
// the text-generation service.
func NewResearcher(cfg config.Research, generator textgen.TextGenerator, logger *slog.Logger) *Researcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Researcher{
		cfg:       cfg,
		generator: generator,
		client:    &http.Client{Timeout: timeout},
		logger:    logging.NewComponentLogger(logger, "research"),
	}
}

type synthesis struct {
	KeyFacts          []string `json:"key_facts"`
	MustInclude       []string `json:"must_include"`
	SuggestedSections []string `json:"suggested_sections"`
}

// Research scrapes competitor pages, synthesizes findings through the text
// generator, and returns a structured report. Individual competitor fetch
// failures are logged and skipped; a malformed or incomplete synthesis is a
// stage failure.
func (r *Researcher) Research(ctx context.Context, selection topics.Selection) (content.ResearchReport, error) {
	topic := selection.Topic
	if strings.TrimSpace(topic.Title) == "" {
		return content.ResearchReport{}, services.Wrap(services.ErrValidation, "research", "research", "topic title required", nil)
	}

	insights := r.collectCompetitorInsights(ctx)

	raw, err := r.generator.CompleteJSON(ctx, systemPrompt, buildResearchPrompt(topic, insights))
	if err != nil {
		return content.ResearchReport{}, fmt.Errorf("research synthesis: %w", err)
	}

	var parsed synthesis
	if err := textgen.DecodeJSON(raw, &parsed); err != nil {
		return content.ResearchReport{}, services.Wrap(services.ErrValidation, "research", "research", "synthesis is not valid JSON", err)
	}
	if len(parsed.KeyFacts) == 0 || len(parsed.MustInclude) == 0 {
		return content.ResearchReport{}, services.Wrap(services.ErrValidation, "research", "research", "synthesis missing key facts or must-include items", nil)
	}

	report := content.ResearchReport{
		TopicTitle:         topic.Title,
		TopicCategory:      topic.Category,
		PrimaryKeywords:    primaryKeywords(topic.Keywords),
		KeyFacts:           trimAll(parsed.KeyFacts),
		MustInclude:        trimAll(parsed.MustInclude),
		CompetitorInsights: insights,
		SuggestedSections:  trimAll(parsed.SuggestedSections),
	}
	return report, nil
}

// collectCompetitorInsights fetches each configured competitor URL and pulls
// its h1/h2/h3 headings. Failures never abort the stage.
func (r *Researcher) collectCompetitorInsights(ctx context.Context) []string {
	var insights []string
	for _, pageURL := range r.cfg.CompetitorURLs {
		headings, err := r.scrapeHeadings(ctx, pageURL)
		if err != nil {
			r.logger.Warn("competitor scrape failed",
				logging.String("url", pageURL),
				logging.Error(err))
			continue
		}
		insights = append(insights, headings...)
	}
	return insights
}

func (r *Researcher) scrapeHeadings(ctx context.Context, pageURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build competitor request: %w", err)
	}
	req.Header.Set("User-Agent", "inkwell-research/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch competitor page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("competitor page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse competitor page: %w", err)
	}

	var headings []string
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text != "" {
			headings = append(headings, text)
		}
		return len(headings) < maxInsightsPerPage
	})
	return headings, nil
}

func buildResearchPrompt(topic content.Topic, insights []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research a blog article about: %s\n", topic.Title)
	fmt.Fprintf(&b, "Category: %s\n", topic.Category)
	fmt.Fprintf(&b, "Target keywords: %s\n\n", strings.Join(topic.Keywords, ", "))

	if len(insights) > 0 {
		b.WriteString("Competitor articles already cover these sections:\n")
		for _, insight := range insights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
		b.WriteString("Find angles they have not covered.\n\n")
	}

	b.WriteString(`Provide:
1. 5-8 key facts (historical context, geography, statistics, best times to visit).
2. Must-include elements (practical logistics, local cultural insights).
3. Suggested article sections.

Return a JSON object with this exact structure:
{
  "key_facts": ["fact", ...],
  "must_include": ["element", ...],
  "suggested_sections": ["section", ...]
}`)
	return b.String()
}

func primaryKeywords(keywords []string) []content.Keyword {
	limit := len(keywords)
	if limit > primaryKeywordCap {
		limit = primaryKeywordCap
	}
	primary := make([]content.Keyword, 0, limit)
	for _, keyword := range keywords[:limit] {
		primary = append(primary, content.Keyword{
			Keyword:      keyword,
			SearchVolume: 400,
			Competition:  "medium",
		})
	}
	return primary
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
