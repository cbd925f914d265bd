package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/content"
	"inkwell/internal/services"
)

// Publisher pushes an approved article to the content backend and returns
// the published document id.
type Publisher interface {
	Publish(ctx context.Context, article content.Article) (string, error)
}

// Option customizes the publisher.
type Option func(*sanityPublisher)

// WithBaseURL overrides the Sanity API endpoint (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(p *sanityPublisher) {
		p.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// NewPublisher builds a Sanity-backed publisher from configuration. An
// unconfigured CMS yields a publisher whose Publish always fails with a
// configuration error.
func NewPublisher(cfg config.CMS, opts ...Option) Publisher {
	projectID := strings.TrimSpace(cfg.ProjectID)
	token := strings.TrimSpace(cfg.Token)
	if projectID == "" || token == "" {
		return unconfiguredPublisher{}
	}

	dataset := strings.TrimSpace(cfg.Dataset)
	if dataset == "" {
		dataset = "production"
	}
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = "2024-01-01"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	publisher := &sanityPublisher{
		baseURL: fmt.Sprintf("https://%s.api.sanity.io/v%s", projectID, apiVersion),
		dataset: dataset,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(publisher)
	}
	return publisher
}

type sanityPublisher struct {
	baseURL string
	dataset string
	token   string
	client  *http.Client
}

type mutateRequest struct {
	Mutations []mutation `json:"mutations"`
}

type mutation struct {
	Create map[string]any `json:"create"`
}

type mutateResponse struct {
	Results []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
	Error *struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
}

func (p *sanityPublisher) Publish(ctx context.Context, article content.Article) (string, error) {
	if strings.TrimSpace(article.Title) == "" || strings.TrimSpace(article.Body) == "" {
		return "", services.Wrap(services.ErrValidation, "", "cms", "article title and body required", nil)
	}

	doc := map[string]any{
		"_type":           "article",
		"title":           article.Title,
		"body":            article.Body,
		"metaTitle":       article.SEO.MetaTitle,
		"metaDescription": article.SEO.MetaDescription,
		"keywords":        article.SEO.Keywords,
		"internalLinks":   article.InternalLinks,
		"wordCount":       article.WordCount,
		"readingTime":     article.ReadingTime,
		"publishedAt":     time.Now().UTC().Format(time.RFC3339),
	}
	if len(article.Images) > 0 {
		images := make([]map[string]any, 0, len(article.Images))
		for _, img := range article.Images {
			images = append(images, map[string]any{
				"url":          img.URL,
				"alt":          img.Alt,
				"photographer": img.Photographer,
			})
		}
		doc["images"] = images
	}

	body, err := json.Marshal(mutateRequest{Mutations: []mutation{{Create: doc}}})
	if err != nil {
		return "", fmt.Errorf("encode publish mutation: %w", err)
	}

	endpoint := fmt.Sprintf("%s/data/mutate/%s?returnIds=true", p.baseURL, p.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "", "cms", "publish request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read publish response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrValidation
		}
		return "", services.Wrap(marker, "", "cms",
			fmt.Sprintf("publish returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}

	var decoded mutateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("decode publish response: %w", err)
	}
	if decoded.Error != nil {
		return "", services.Wrap(services.ErrValidation, "", "cms",
			fmt.Sprintf("publish rejected: %s", decoded.Error.Description), nil)
	}
	if len(decoded.Results) == 0 || strings.TrimSpace(decoded.Results[0].ID) == "" {
		return "", services.Wrap(services.ErrTransient, "", "cms", "publish response missing document id", nil)
	}
	return decoded.Results[0].ID, nil
}

type unconfiguredPublisher struct{}

func (unconfiguredPublisher) Publish(context.Context, content.Article) (string, error) {
	return "", services.Wrap(services.ErrConfiguration, "", "cms", "cms project id and token required", nil)
}
