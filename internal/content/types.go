package content

import "strings"

// Topic is the output of the topic-selection stage.
type Topic struct {
	Title    string   `json:"title" yaml:"title"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Category string   `json:"category" yaml:"category"`
}

// Keyword captures a single researched keyword with its metadata.
type Keyword struct {
	Keyword      string `json:"keyword"`
	SearchVolume int    `json:"search_volume,omitempty"`
	Competition  string `json:"competition,omitempty"`
}

// ResearchReport is the output of the research stage and the writer's input.
type ResearchReport struct {
	TopicTitle         string    `json:"topic_title"`
	TopicCategory      string    `json:"topic_category"`
	PrimaryKeywords    []Keyword `json:"primary_keywords"`
	KeyFacts           []string  `json:"key_facts"`
	MustInclude        []string  `json:"must_include"`
	CompetitorInsights []string  `json:"competitor_insights,omitempty"`
	SuggestedSections  []string  `json:"suggested_sections,omitempty"`
}

// SEOMetadata holds the article's search metadata.
type SEOMetadata struct {
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
}

// Image references a sourced illustration.
type Image struct {
	URL          string `json:"url"`
	Alt          string `json:"alt,omitempty"`
	Photographer string `json:"photographer,omitempty"`
}

// Article is the output of the writing stage.
type Article struct {
	Title            string      `json:"title"`
	Body             string      `json:"body"`
	WordCount        int         `json:"word_count"`
	ReadingTime      int         `json:"reading_time"`
	SEO              SEOMetadata `json:"seo_metadata"`
	InternalLinks    []string    `json:"internal_links"`
	Images           []Image     `json:"images"`
	ImageSearchTerms []string    `json:"image_search_terms,omitempty"`
}

// RecentArticle is a published-history entry read by the uniqueness check.
type RecentArticle struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CountWords returns the whitespace-delimited word count of text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ReadingTime estimates reading minutes at 200 words per minute, minimum 1.
func ReadingTime(wordCount int) int {
	if wordCount <= 0 {
		return 1
	}
	minutes := wordCount / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}
