// Package aggregator is the HTTP client for the backend aggregation API,
// which merges multiple movie catalogs behind /popular, /discover/lang and
// /search endpoints. The service is consumed as an opaque API; an empty
// items array signals that the source is exhausted.
package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinescout/cinescout/internal/catalog"
	"github.com/cinescout/cinescout/internal/config"
)

var (
	ErrAPIError = errors.New("aggregation API error")
)

// Client is an aggregation API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a new aggregation API client.
func NewClient(cfg config.AggregatorConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
		logger:  logger.With().Str("component", "aggregator").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "aggregator"
}

// Popular fetches a page of the popular listing.
func (c *Client) Popular(ctx context.Context, page int) ([]catalog.MovieItem, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	return c.fetchItems(ctx, "/popular", params)
}

// DiscoverByLanguage fetches a page of movies in the given original language.
func (c *Client) DiscoverByLanguage(ctx context.Context, lang string, page int) ([]catalog.MovieItem, error) {
	params := url.Values{}
	params.Set("lang", lang)
	params.Set("page", strconv.Itoa(page))
	return c.fetchItems(ctx, "/discover/lang", params)
}

// Search fetches a page of free-text search results across both sources.
func (c *Client) Search(ctx context.Context, query string, page int) ([]catalog.MovieItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("source", "both")
	params.Set("page", strconv.Itoa(page))
	return c.fetchItems(ctx, "/search", params)
}

// itemsResponse is the envelope all three endpoints share.
type itemsResponse struct {
	Items []wireItem `json:"items"`
}

// wireItem tolerates both identifier spellings the aggregation API has
// used over time ("id" and "tmdb_id").
type wireItem struct {
	ID         int     `json:"id"`
	TmdbID     int     `json:"tmdb_id"`
	Title      string  `json:"title"`
	Year       string  `json:"year"`
	Poster     string  `json:"poster"`
	Source     string  `json:"source"`
	Popularity float64 `json:"popularity"`
}

func (w wireItem) toMovieItem() catalog.MovieItem {
	id := w.ID
	if id == 0 {
		id = w.TmdbID
	}
	return catalog.MovieItem{
		ID:         id,
		Title:      w.Title,
		Year:       w.Year,
		Poster:     w.Poster,
		Source:     w.Source,
		Popularity: w.Popularity,
	}
}

// fetchItems performs a GET request and decodes the items envelope.
func (c *Client) fetchItems(ctx context.Context, path string, params url.Values) ([]catalog.MovieItem, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("Aggregation API error")
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var body itemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	items := make([]catalog.MovieItem, 0, len(body.Items))
	for _, w := range body.Items {
		items = append(items, w.toMovieItem())
	}

	c.logger.Debug().
		Str("path", path).
		Int("items", len(items)).
		Msg("Fetched page")

	return items, nil
}
