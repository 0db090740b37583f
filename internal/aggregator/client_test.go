package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cinescout/cinescout/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	cfg := config.AggregatorConfig{
		BaseURL: server.URL,
		Timeout: 5,
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestClient_Popular(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/popular" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if page := r.URL.Query().Get("page"); page != "2" {
			t.Errorf("unexpected page: %s", page)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": 603, "title": "The Matrix", "year": "1999", "poster": "p.jpg", "source": "TMDB", "popularity": 80.5},
				{"id": 550, "title": "Fight Club", "year": "1999", "poster": "f.jpg", "source": "TMDB", "popularity": 60.1},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	items, err := client.Popular(context.Background(), 2)
	if err != nil {
		t.Fatalf("Popular() error = %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Popular() returned %d items, want 2", len(items))
	}
	if items[0].ID != 603 || items[0].Title != "The Matrix" {
		t.Errorf("items[0] = %+v, want The Matrix (603)", items[0])
	}
	if items[0].Popularity != 80.5 {
		t.Errorf("items[0].Popularity = %v, want 80.5", items[0].Popularity)
	}
}

func TestClient_DiscoverByLanguage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover/lang" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if lang := r.URL.Query().Get("lang"); lang != "ko" {
			t.Errorf("unexpected lang: %s", lang)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": 1, "title": "Oldboy", "year": "2003"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	items, err := client.DiscoverByLanguage(context.Background(), "ko", 1)
	if err != nil {
		t.Fatalf("DiscoverByLanguage() error = %v", err)
	}
	if len(items) != 1 || items[0].Title != "Oldboy" {
		t.Errorf("items = %v, want [Oldboy]", items)
	}
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Matrix" {
			t.Errorf("unexpected q: %s", q.Get("q"))
		}
		if q.Get("source") != "both" {
			t.Errorf("unexpected source: %s", q.Get("source"))
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	items, err := client.Search(context.Background(), "Matrix", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Search() returned %d items, want 0", len(items))
	}
}

func TestClient_TmdbIDSpelling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"tmdb_id": 603, "title": "The Matrix", "year": "1999"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	items, err := client.Popular(context.Background(), 1)
	if err != nil {
		t.Fatalf("Popular() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != 603 {
		t.Errorf("items = %v, want tmdb_id mapped to ID 603", items)
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Popular(context.Background(), 1)
	if !errors.Is(err, ErrAPIError) {
		t.Errorf("Popular() error = %v, want ErrAPIError", err)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.Popular(context.Background(), 1); err == nil {
		t.Error("Popular() with malformed body should fail")
	}
}
