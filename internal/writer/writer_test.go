package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"inkwell/internal/content"
	"inkwell/internal/services"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeImageSource struct {
	byTerm map[string][]content.Image
	err    error
	terms  []string
}

func (f *fakeImageSource) Search(_ context.Context, query string, limit int) ([]content.Image, error) {
	f.terms = append(f.terms, query)
	if f.err != nil {
		return nil, f.err
	}
	results := f.byTerm[query]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func testReport() content.ResearchReport {
	return content.ResearchReport{
		TopicTitle:    "Hill Country Cycling Adventure",
		TopicCategory: "Hill Country",
		PrimaryKeywords: []content.Keyword{
			{Keyword: "hill country cycling", SearchVolume: 400, Competition: "medium"},
		},
		KeyFacts:    []string{"The hill country rises above 1800 meters."},
		MustInclude: []string{"train alternative for climbs"},
	}
}

func draftResponse(body string) string {
	return fmt.Sprintf(`{
		"title": "Hill Country Cycling Adventure",
		"body": %q,
		"seo_metadata": {
			"meta_title": "Hill Country Cycling: The Complete Climbing Guide",
			"meta_description": "Plan a hill country cycling adventure through tea estates, with climbs, seasons, and logistics covered end to end. Start planning your ride today.",
			"keywords": ["hill country cycling"]
		},
		"internal_links": ["/blog/tea-estates", "/blog/when-to-ride"],
		"image_search_terms": ["tea estate cycling", "mountain road bike"]
	}`, body)
}

func TestWriteProducesArticle(t *testing.T) {
	body := strings.Repeat("The climb through the estates rewards every rider. ", 320)
	gen := &fakeGenerator{response: draftResponse(body)}
	source := &fakeImageSource{byTerm: map[string][]content.Image{
		"tea estate cycling": {
			{URL: "https://img.test/1.jpg", Alt: "tea estate"},
			{URL: "https://img.test/2.jpg", Alt: "tea estate road"},
		},
		"mountain road bike": {
			{URL: "https://img.test/3.jpg", Alt: "mountain road"},
		},
	}}

	w := NewWriter(gen, source, nil)
	article, err := w.Write(context.Background(), testReport(), []content.RecentArticle{{Title: "Coast Ride"}})
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if article.WordCount != content.CountWords(body) {
		t.Fatalf("word count %d, want %d", article.WordCount, content.CountWords(body))
	}
	if article.ReadingTime != article.WordCount/200 {
		t.Fatalf("unexpected reading time %d", article.ReadingTime)
	}
	if len(article.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(article.Images))
	}
	if len(source.terms) != 2 {
		t.Fatalf("expected both search terms used, got %v", source.terms)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Coast Ride") {
		t.Fatal("recent titles missing from prompt")
	}
}

func TestWriteSurvivesImageFailure(t *testing.T) {
	gen := &fakeGenerator{response: draftResponse("Short but present body.")}
	source := &fakeImageSource{err: errors.New("image service down")}

	w := NewWriter(gen, source, nil)
	article, err := w.Write(context.Background(), testReport(), nil)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if len(article.Images) != 0 {
		t.Fatalf("expected no images, got %v", article.Images)
	}
}

func TestWriteFallsBackToKeywordSearchTerms(t *testing.T) {
	response := `{
		"title": "T",
		"body": "B",
		"seo_metadata": {"meta_title": "mt", "meta_description": "md", "keywords": []},
		"internal_links": [],
		"image_search_terms": []
	}`
	gen := &fakeGenerator{response: response}
	source := &fakeImageSource{}

	w := NewWriter(gen, source, nil)
	if _, err := w.Write(context.Background(), testReport(), nil); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if len(source.terms) != 1 || source.terms[0] != "hill country cycling" {
		t.Fatalf("expected keyword fallback, got %v", source.terms)
	}
}

func TestWriteRejectsMalformedDraft(t *testing.T) {
	gen := &fakeGenerator{response: "no json here"}
	w := NewWriter(gen, &fakeImageSource{}, nil)
	_, err := w.Write(context.Background(), testReport(), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWriteRejectsMissingSEOMetadata(t *testing.T) {
	gen := &fakeGenerator{response: `{"title": "T", "body": "B", "seo_metadata": {"meta_title": "", "meta_description": ""}}`}
	w := NewWriter(gen, &fakeImageSource{}, nil)
	_, err := w.Write(context.Background(), testReport(), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWritePropagatesGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: services.Wrap(services.ErrTransient, "", "textgen", "failed after 4 attempts", nil)}
	w := NewWriter(gen, &fakeImageSource{}, nil)
	_, err := w.Write(context.Background(), testReport(), nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
