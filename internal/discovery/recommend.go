package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cinescout/cinescout/internal/catalog"
)

// DefaultRecommendLimit caps the ranked recommendation list.
const DefaultRecommendLimit = 40

// ErrAllLookupsFailed is returned when every similarity lookup failed, so
// the failure can be reported once instead of per selected movie.
var ErrAllLookupsFailed = errors.New("all similarity lookups failed")

// SimilarProvider looks up the similar-movies listing for one identifier.
type SimilarProvider interface {
	Similar(ctx context.Context, id int) ([]catalog.MovieItem, error)
}

// Ranker aggregates per-movie similarity listings for a selection into a
// ranked, deduplicated recommendation list.
type Ranker struct {
	provider SimilarProvider
	cache    *ItemCache
	limit    int
	logger   zerolog.Logger
}

// NewRanker creates a ranker. cache may be nil; limit <= 0 uses the default.
func NewRanker(provider SimilarProvider, cache *ItemCache, limit int, logger zerolog.Logger) *Ranker {
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}
	return &Ranker{
		provider: provider,
		cache:    cache,
		limit:    limit,
		logger:   logger.With().Str("component", "ranker").Logger(),
	}
}

// scoreEntry is the transient per-candidate ranking record. The occurrence
// count (how many distinct selected movies recommended the candidate) is
// the primary signal; the highest popularity seen across duplicates breaks
// ties.
type scoreEntry struct {
	item  catalog.MovieItem
	count int
	pop   float64
}

// Recommend returns the ranked top recommendations for the selection. An
// empty selection yields an empty list without any provider calls.
// Selected movies without an identifier are skipped, and a failed lookup
// for one movie does not abort the rest; only when every lookup fails is
// ErrAllLookupsFailed returned.
func (r *Ranker) Recommend(ctx context.Context, selection []catalog.MovieItem) ([]catalog.MovieItem, error) {
	if len(selection) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(selection))
	for _, item := range selection {
		if item.ID > 0 {
			ids = append(ids, item.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// Fan out the lookups; slots keep the bag in selection order so the
	// final ranking does not depend on arrival order.
	results := make([][]catalog.MovieItem, len(ids))
	failures := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			results[i], failures[i] = r.similar(ctx, id)
		}(i, id)
	}
	wg.Wait()

	failed := 0
	var bag []catalog.MovieItem
	for i, items := range results {
		if failures[i] != nil {
			failed++
			r.logger.Warn().
				Err(failures[i]).
				Int("id", ids[i]).
				Msg("Similarity lookup failed, skipping")
			continue
		}
		bag = append(bag, items...)
	}
	if failed == len(ids) {
		return nil, ErrAllLookupsFailed
	}

	// Candidates matching a selected movie are never recommended back.
	exclude := make(map[string]struct{}, len(selection))
	for _, item := range selection {
		exclude[item.Key()] = struct{}{}
	}

	entries := make([]*scoreEntry, 0, len(bag))
	byKey := make(map[string]*scoreEntry, len(bag))
	for _, cand := range bag {
		key := cand.Key()
		if _, ok := exclude[key]; ok {
			continue
		}
		entry, ok := byKey[key]
		if !ok {
			entry = &scoreEntry{item: cand}
			byKey[key] = entry
			entries = append(entries, entry)
		}
		entry.count++
		if cand.Popularity > entry.pop {
			entry.pop = cand.Popularity
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].pop > entries[j].pop
	})

	ranked := make([]catalog.MovieItem, 0, len(entries))
	for _, entry := range entries {
		ranked = append(ranked, entry.item)
		if len(ranked) >= r.limit {
			break
		}
	}

	r.logger.Debug().
		Int("selected", len(selection)).
		Int("candidates", len(bag)).
		Int("ranked", len(ranked)).
		Msg("Recommendation pass complete")

	return ranked, nil
}

// similar resolves one similarity listing, through the cache when possible.
func (r *Ranker) similar(ctx context.Context, id int) ([]catalog.MovieItem, error) {
	key := fmt.Sprintf("similar:%d", id)
	if r.cache != nil {
		if items, ok := r.cache.Get(key); ok {
			return items, nil
		}
	}

	items, err := r.provider.Similar(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(key, items)
	}
	return items, nil
}
