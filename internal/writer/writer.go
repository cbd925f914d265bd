package writer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"inkwell/internal/content"
	"inkwell/internal/logging"
	"inkwell/internal/services"
	"inkwell/internal/services/images"
	"inkwell/internal/services/textgen"
)

const (
	maxImageSearchTerms = 3
	imagesPerArticle    = 3

	systemPrompt = "You are an expert travel writer specializing in cycling tourism. " +
		"Write engaging, SEO-optimized content that inspires and informs readers. " +
		"You return only valid JSON."
)

// Writer runs the writing stage.
type Writer struct {
	generator textgen.TextGenerator
	images    images.Source
	logger    *slog.Logger
}

// NewWriter builds a writer around the text-generation and image services.
func NewWriter(generator textgen.TextGenerator, source images.Source, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{
		generator: generator,
		images:    source,
		logger:    logging.NewComponentLogger(logger, "writer"),
	}
}

type draft struct {
	Title            string              `json:"title"`
	Body             string              `json:"body"`
	SEO              content.SEOMetadata `json:"seo_metadata"`
	InternalLinks    []string            `json:"internal_links"`
	ImageSearchTerms []string            `json:"image_search_terms"`
}

// Write generates the article for the given research report. Recent titles
// are included in the prompt so the model steers away from published ground.
func (w *Writer) Write(ctx context.Context, report content.ResearchReport, recent []content.RecentArticle) (content.Article, error) {
	if strings.TrimSpace(report.TopicTitle) == "" {
		return content.Article{}, services.Wrap(services.ErrValidation, "writing", "write", "research report missing topic title", nil)
	}

	raw, err := w.generator.CompleteJSON(ctx, systemPrompt, buildWritingPrompt(report, recent))
	if err != nil {
		return content.Article{}, fmt.Errorf("article generation: %w", err)
	}

	var parsed draft
	if err := textgen.DecodeJSON(raw, &parsed); err != nil {
		return content.Article{}, services.Wrap(services.ErrValidation, "writing", "write", "article is not valid JSON", err)
	}
	if strings.TrimSpace(parsed.Title) == "" || strings.TrimSpace(parsed.Body) == "" {
		return content.Article{}, services.Wrap(services.ErrValidation, "writing", "write", "article missing title or body", nil)
	}
	if strings.TrimSpace(parsed.SEO.MetaTitle) == "" || strings.TrimSpace(parsed.SEO.MetaDescription) == "" {
		return content.Article{}, services.Wrap(services.ErrValidation, "writing", "write", "article missing seo metadata", nil)
	}

	wordCount := content.CountWords(parsed.Body)
	article := content.Article{
		Title:            strings.TrimSpace(parsed.Title),
		Body:             parsed.Body,
		WordCount:        wordCount,
		ReadingTime:      content.ReadingTime(wordCount),
		SEO:              parsed.SEO,
		InternalLinks:    parsed.InternalLinks,
		ImageSearchTerms: parsed.ImageSearchTerms,
	}
	article.Images = w.sourceImages(ctx, report, article.ImageSearchTerms)
	return article, nil
}

// sourceImages tries each search term in order until enough images are
// collected. Sourcing failure never fails the stage.
func (w *Writer) sourceImages(ctx context.Context, report content.ResearchReport, terms []string) []content.Image {
	if len(terms) > maxImageSearchTerms {
		terms = terms[:maxImageSearchTerms]
	}
	if len(terms) == 0 {
		terms = fallbackSearchTerms(report)
	}

	var collected []content.Image
	for _, term := range terms {
		if len(collected) >= imagesPerArticle {
			break
		}
		found, err := w.images.Search(ctx, term, imagesPerArticle-len(collected))
		if err != nil {
			w.logger.Warn("image search failed",
				logging.String("term", term),
				logging.Error(err))
			continue
		}
		collected = append(collected, found...)
	}
	return collected
}

func fallbackSearchTerms(report content.ResearchReport) []string {
	var terms []string
	for _, keyword := range report.PrimaryKeywords {
		if keyword.Keyword != "" {
			terms = append(terms, keyword.Keyword)
		}
	}
	if len(terms) == 0 && report.TopicCategory != "" {
		terms = append(terms, report.TopicCategory)
	}
	if len(terms) > maxImageSearchTerms {
		terms = terms[:maxImageSearchTerms]
	}
	return terms
}

func buildWritingPrompt(report content.ResearchReport, recent []content.RecentArticle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a comprehensive SEO-optimized blog article.\n\n")
	fmt.Fprintf(&b, "ARTICLE TOPIC: %s\nCATEGORY: %s\n\n", report.TopicTitle, report.TopicCategory)

	if len(report.PrimaryKeywords) > 0 {
		keywords := make([]string, 0, len(report.PrimaryKeywords))
		for _, keyword := range report.PrimaryKeywords {
			keywords = append(keywords, keyword.Keyword)
		}
		fmt.Fprintf(&b, "TARGET KEYWORDS (use naturally, 1-3%% density): %s\n\n", strings.Join(keywords, ", "))
	}

	if len(report.KeyFacts) > 0 {
		b.WriteString("KEY FACTS (every claim in the article must come from these):\n")
		for _, fact := range report.KeyFacts {
			fmt.Fprintf(&b, "- %s\n", fact)
		}
		b.WriteString("\n")
	}
	if len(report.MustInclude) > 0 {
		b.WriteString("MUST INCLUDE:\n")
		for _, item := range report.MustInclude {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		b.WriteString("\n")
	}
	if len(report.SuggestedSections) > 0 {
		fmt.Fprintf(&b, "SUGGESTED SECTIONS: %s\n\n", strings.Join(report.SuggestedSections, "; "))
	}
	if len(recent) > 0 {
		b.WriteString("RECENTLY PUBLISHED (do not rehash these):\n")
		for _, article := range recent {
			fmt.Fprintf(&b, "- %s\n", article.Title)
		}
		b.WriteString("\n")
	}

	b.WriteString(`REQUIREMENTS:
- Length: 2500-3500 words of plain prose (no markdown syntax).
- Meta title 50-60 characters, meta description 140-160 characters.
- Suggest 2-5 internal link paths and 3 image search terms.

Return a JSON object with this exact structure:
{
  "title": "...",
  "body": "full article text",
  "seo_metadata": {"meta_title": "...", "meta_description": "...", "keywords": ["..."]},
  "internal_links": ["/blog/..."],
  "image_search_terms": ["..."]
}`)
	return b.String()
}
