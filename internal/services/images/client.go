package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/content"
	"inkwell/internal/services"
)

const defaultPerPage = 3

// Source finds stock photos matching a search query. An empty result is not
// an error; callers are expected to publish without images when sourcing
// comes up short.
type Source interface {
	Search(ctx context.Context, query string, limit int) ([]content.Image, error)
}

// NewSource builds a Pexels-backed source when an API key is configured and
// a noop source otherwise.
func NewSource(cfg config.Images) Source {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return noopSource{}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.pexels.com/v1"
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	return &pexelsSource{
		apiKey:  key,
		baseURL: baseURL,
		perPage: perPage,
		client:  &http.Client{Timeout: timeout},
	}
}

type pexelsSource struct {
	apiKey  string
	baseURL string
	perPage int
	client  *http.Client
}

type searchResponse struct {
	Photos []struct {
		Alt          string `json:"alt"`
		Photographer string `json:"photographer"`
		Src          struct {
			Large string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

func (p *pexelsSource) Search(ctx context.Context, query string, limit int) ([]content.Image, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "", "images", "search query required", nil)
	}
	if limit <= 0 || limit > p.perPage {
		limit = p.perPage
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build image search request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "", "images", "image search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrValidation
		}
		return nil, services.Wrap(marker, "", "images",
			fmt.Sprintf("image search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode image search response: %w", err)
	}

	results := make([]content.Image, 0, len(payload.Photos))
	for _, photo := range payload.Photos {
		src := strings.TrimSpace(photo.Src.Large)
		if src == "" {
			continue
		}
		alt := strings.TrimSpace(photo.Alt)
		if alt == "" {
			alt = query
		}
		results = append(results, content.Image{
			URL:          src,
			Alt:          alt,
			Photographer: strings.TrimSpace(photo.Photographer),
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

type noopSource struct{}

func (noopSource) Search(context.Context, string, int) ([]content.Image, error) { return nil, nil }
