package images

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/services"
)

func TestNewSourceWithoutKeyIsNoop(t *testing.T) {
	source := NewSource(config.Images{})
	results, err := source.Search(context.Background(), "mountains", 3)
	if err != nil {
		t.Fatalf("noop search returned error: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestSearchReturnsImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "pexels-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "alpine lake" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "2" {
			t.Errorf("unexpected per_page %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"photos": [
				{"alt": "A lake", "photographer": "Ada", "src": {"large": "https://img.test/1.jpg"}},
				{"alt": "", "photographer": "Grace", "src": {"large": "https://img.test/2.jpg"}},
				{"alt": "Missing src", "photographer": "Joan", "src": {"large": ""}}
			]
		}`)
	}))
	defer server.Close()

	source := NewSource(config.Images{APIKey: "pexels-key", BaseURL: server.URL, PerPage: 3})
	results, err := source.Search(context.Background(), "alpine lake", 2)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 images, got %d", len(results))
	}
	if results[0].URL != "https://img.test/1.jpg" || results[0].Alt != "A lake" || results[0].Photographer != "Ada" {
		t.Fatalf("unexpected first image %+v", results[0])
	}
	if results[1].Alt != "alpine lake" {
		t.Fatalf("expected empty alt to fall back to query, got %q", results[1].Alt)
	}
}

func TestSearchEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"photos": []}`)
	}))
	defer server.Close()

	source := NewSource(config.Images{APIKey: "pexels-key", BaseURL: server.URL})
	results, err := source.Search(context.Background(), "nothing", 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no images, got %d", len(results))
	}
}

func TestSearchClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		marker error
	}{
		{"auth failure", http.StatusForbidden, services.ErrValidation},
		{"rate limited", http.StatusTooManyRequests, services.ErrTransient},
		{"server error", http.StatusInternalServerError, services.ErrTransient},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer server.Close()

			source := NewSource(config.Images{APIKey: "pexels-key", BaseURL: server.URL})
			_, err := source.Search(context.Background(), "query", 1)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	source := NewSource(config.Images{APIKey: "pexels-key"})
	if _, err := source.Search(context.Background(), "  ", 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
