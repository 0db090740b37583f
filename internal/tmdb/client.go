// Package tmdb is a direct TMDB API client. It backs the Popular mode
// fallback when the aggregation API is down and provides the per-movie
// similar listing the recommendation ranker consumes.
package tmdb

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
	"golang.org/x/time/rate"

	"github.com/cinescout/cinescout/internal/catalog"
	"github.com/cinescout/cinescout/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// SourceTag marks items fetched from this provider.
const SourceTag = "TMDB"

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	rps := cfg.RequestsPerS
	if rps <= 0 {
		rps = 4.0
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 8
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Popular fetches a page of the popular listing, mapped to MovieItems.
func (c *Client) Popular(ctx context.Context, page int) ([]catalog.MovieItem, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/movie/popular", c.config.BaseURL)
	params := c.baseParams()
	params.Set("page", strconv.Itoa(page))

	var response ListResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	items := c.toMovieItems(response.Results)

	c.logger.Debug().
		Int("page", page).
		Int("items", len(items)).
		Msg("Fetched popular page")

	return items, nil
}

// Similar fetches the similar-movies listing for a TMDB movie ID.
func (c *Client) Similar(ctx context.Context, id int) ([]catalog.MovieItem, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/movie/%d/similar", c.config.BaseURL, id)
	params := c.baseParams()
	params.Set("page", "1")

	var response ListResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	items := c.toMovieItems(response.Results)

	c.logger.Debug().
		Int("id", id).
		Int("items", len(items)).
		Msg("Fetched similar movies")

	return items, nil
}

// ImageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w342", "w500", "w780", "original"
func (c *Client) ImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	if c.config.Language != "" {
		params.Set("language", c.config.Language)
	}
	if c.config.Region != "" {
		params.Set("region", c.config.Region)
	}
	return params
}

// doRequest performs a rate-limited HTTP GET and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// toMovieItems maps TMDB listing results into the catalog shape: title or
// name, 4-digit year from the release date, poster URL from the path
// fragment, source tag, identifier and popularity.
func (c *Client) toMovieItems(results []MovieResult) []catalog.MovieItem {
	items := make([]catalog.MovieItem, 0, len(results))
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = r.Name
		}

		date := r.ReleaseDate
		if date == "" {
			date = r.FirstAirDate
		}
		year := ""
		if len(date) >= 4 {
			year = date[:4]
		}

		poster := ""
		if r.PosterPath != nil {
			poster = c.ImageURL(*r.PosterPath, "w500")
		}

		items = append(items, catalog.MovieItem{
			ID:         r.ID,
			Title:      title,
			Year:       year,
			Poster:     poster,
			Source:     SourceTag,
			Popularity: r.Popularity,
		})
	}
	return items
}
