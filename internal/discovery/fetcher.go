package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cinescout/cinescout/internal/catalog"
)

// Named defaults for the backfill guarantees. Discovery and search
// backends return sparse or irrelevant pages; fetching until a minimum
// renderable batch accumulates avoids single-item dribble pages, while the
// guard limit bounds worst-case latency and backend load.
const (
	DefaultMinBatch   = 4
	DefaultGuardLimit = 6
)

// Catalog is the paged movie source behind the three query modes,
// implemented by the aggregation API client.
type Catalog interface {
	Popular(ctx context.Context, page int) ([]catalog.MovieItem, error)
	DiscoverByLanguage(ctx context.Context, lang string, page int) ([]catalog.MovieItem, error)
	Search(ctx context.Context, query string, page int) ([]catalog.MovieItem, error)
}

// PopularFallback is a direct provider consulted when the catalog's
// popular listing fails. Only Popular mode has a fallback.
type PopularFallback interface {
	Popular(ctx context.Context, page int) ([]catalog.MovieItem, error)
}

// Filter carries the Discover-mode title constraints: the non-region
// tokens and the free-text phrase. Zero value means no filtering.
type Filter struct {
	Tokens []string
	Text   string
}

// FetcherConfig holds the backfill tunables.
type FetcherConfig struct {
	MinBatch   int
	GuardLimit int
}

// Fetcher runs the paginated backfill algorithm over the mode sources.
type Fetcher struct {
	catalog    Catalog
	fallback   PopularFallback
	cache      *ItemCache
	minBatch   int
	guardLimit int
	logger     zerolog.Logger
}

// NewFetcher creates a fetcher. fallback and cache may be nil.
func NewFetcher(cat Catalog, fallback PopularFallback, cache *ItemCache, cfg FetcherConfig, logger zerolog.Logger) *Fetcher {
	if cfg.MinBatch <= 0 {
		cfg.MinBatch = DefaultMinBatch
	}
	if cfg.GuardLimit <= 0 {
		cfg.GuardLimit = DefaultGuardLimit
	}
	return &Fetcher{
		catalog:    cat,
		fallback:   fallback,
		cache:      cache,
		minBatch:   cfg.MinBatch,
		guardLimit: cfg.GuardLimit,
		logger:     logger.With().Str("component", "fetcher").Logger(),
	}
}

// FetchBatch fetches pages starting at state.Page until at least MinBatch
// items accumulate, the guard limit is reached, or the source returns an
// empty page (which reports exhausted and stops immediately). In Discover
// mode each raw page is filtered by title before counting, and the page
// cursor advances once per iteration regardless of how many items
// survive. Reaching the guard limit with a short batch is a normal sparse
// result, not an error.
func (f *Fetcher) FetchBatch(ctx context.Context, state QueryState, filter Filter) ([]catalog.MovieItem, QueryState, bool, error) {
	var acc []catalog.MovieItem
	exhausted := false

	for guard := 0; len(acc) < f.minBatch && guard < f.guardLimit && !exhausted; guard++ {
		batch, err := f.fetchPage(ctx, state)
		if err != nil {
			return nil, state, false, err
		}
		if len(batch) == 0 {
			exhausted = true
			break
		}

		if state.Mode == ModeDiscover {
			batch = filterByTitle(batch, filter)
		}

		acc = append(acc, batch...)
		state.Page++
	}

	f.logger.Debug().
		Str("mode", string(state.Mode)).
		Int("items", len(acc)).
		Int("nextPage", state.Page).
		Bool("exhausted", exhausted).
		Msg("Backfill batch complete")

	return acc, state, exhausted, nil
}

// WarmPopular refreshes the cached first popular page, bypassing any
// previously cached value.
func (f *Fetcher) WarmPopular(ctx context.Context) error {
	items, err := f.fetchPopular(ctx, 1)
	if err != nil {
		return err
	}
	if f.cache != nil {
		f.cache.Set(popularCacheKey(1), items)
	}
	return nil
}

// fetchPage calls the mode-appropriate source at state.Page.
func (f *Fetcher) fetchPage(ctx context.Context, state QueryState) ([]catalog.MovieItem, error) {
	switch state.Mode {
	case ModePopular:
		if f.cache != nil {
			if items, ok := f.cache.Get(popularCacheKey(state.Page)); ok {
				return items, nil
			}
		}
		items, err := f.fetchPopular(ctx, state.Page)
		if err != nil {
			return nil, err
		}
		if f.cache != nil && len(items) > 0 {
			f.cache.Set(popularCacheKey(state.Page), items)
		}
		return items, nil

	case ModeDiscover:
		return f.catalog.DiscoverByLanguage(ctx, state.Language, state.Page)

	case ModeSearch:
		return f.catalog.Search(ctx, state.Query, state.Page)

	default:
		return nil, fmt.Errorf("unknown query mode %q", state.Mode)
	}
}

// fetchPopular tries the aggregation API first and falls back to the
// direct provider when it fails.
func (f *Fetcher) fetchPopular(ctx context.Context, page int) ([]catalog.MovieItem, error) {
	items, err := f.catalog.Popular(ctx, page)
	if err == nil {
		return items, nil
	}

	if f.fallback == nil {
		return nil, err
	}

	f.logger.Warn().
		Err(err).
		Int("page", page).
		Msg("Popular listing failed, using fallback provider")

	items, fbErr := f.fallback.Popular(ctx, page)
	if fbErr != nil {
		return nil, fmt.Errorf("popular fallback failed: %w", fbErr)
	}
	return items, nil
}

func popularCacheKey(page int) string {
	return fmt.Sprintf("popular:%d", page)
}

// filterByTitle keeps items whose lowercased title contains the leading
// word of every filter token and, when present, the full free-text phrase.
func filterByTitle(items []catalog.MovieItem, filter Filter) []catalog.MovieItem {
	words := make([]string, 0, len(filter.Tokens))
	for _, t := range filter.Tokens {
		lower := strings.ToLower(strings.TrimSpace(t))
		if lower == "" {
			continue
		}
		if i := strings.IndexByte(lower, ' '); i >= 0 {
			lower = lower[:i]
		}
		words = append(words, lower)
	}
	text := strings.ToLower(strings.TrimSpace(filter.Text))

	if len(words) == 0 && text == "" {
		return items
	}

	out := make([]catalog.MovieItem, 0, len(items))
	for _, item := range items {
		title := strings.ToLower(item.Title)
		ok := true
		for _, w := range words {
			if !strings.Contains(title, w) {
				ok = false
				break
			}
		}
		if ok && text != "" && !strings.Contains(title, text) {
			ok = false
		}
		if ok {
			out = append(out, item)
		}
	}
	return out
}
