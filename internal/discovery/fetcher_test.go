package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cinescout/cinescout/internal/catalog"
)

// fakeCatalog serves scripted pages per mode. A nil page slice past the
// end of the script means an empty page.
type fakeCatalog struct {
	popularPages  [][]catalog.MovieItem
	discoverPages [][]catalog.MovieItem
	searchPages   [][]catalog.MovieItem
	popularErr    error

	popularCalls  int
	discoverCalls int
	searchCalls   int
}

func pageAt(pages [][]catalog.MovieItem, page int) []catalog.MovieItem {
	if page < 1 || page > len(pages) {
		return nil
	}
	return pages[page-1]
}

func (f *fakeCatalog) Popular(ctx context.Context, page int) ([]catalog.MovieItem, error) {
	f.popularCalls++
	if f.popularErr != nil {
		return nil, f.popularErr
	}
	return pageAt(f.popularPages, page), nil
}

func (f *fakeCatalog) DiscoverByLanguage(ctx context.Context, lang string, page int) ([]catalog.MovieItem, error) {
	f.discoverCalls++
	return pageAt(f.discoverPages, page), nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string, page int) ([]catalog.MovieItem, error) {
	f.searchCalls++
	return pageAt(f.searchPages, page), nil
}

type fakeFallback struct {
	items []catalog.MovieItem
	err   error
	calls int
}

func (f *fakeFallback) Popular(ctx context.Context, page int) ([]catalog.MovieItem, error) {
	f.calls++
	return f.items, f.err
}

func movies(titles ...string) []catalog.MovieItem {
	out := make([]catalog.MovieItem, 0, len(titles))
	for i, title := range titles {
		out = append(out, catalog.MovieItem{ID: 1000 + i, Title: title})
	}
	return out
}

func TestFetchBatch_SinglePageSatisfies(t *testing.T) {
	cat := &fakeCatalog{searchPages: [][]catalog.MovieItem{
		movies("A", "B", "C", "D", "E"),
	}}
	f := NewFetcher(cat, nil, nil, FetcherConfig{}, zerolog.Nop())

	state := QueryState{Mode: ModeSearch, Query: "x", Page: 1}
	items, updated, exhausted, err := f.FetchBatch(context.Background(), state, Filter{})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(items) != 5 {
		t.Errorf("len(items) = %d, want 5", len(items))
	}
	if updated.Page != 2 {
		t.Errorf("next page = %d, want 2", updated.Page)
	}
	if exhausted {
		t.Error("exhausted = true, want false")
	}
	if cat.searchCalls != 1 {
		t.Errorf("searchCalls = %d, want 1", cat.searchCalls)
	}
}

func TestFetchBatch_AccumulatesUntilMinimum(t *testing.T) {
	cat := &fakeCatalog{searchPages: [][]catalog.MovieItem{
		movies("A"),
		movies("B", "C"),
		movies("D", "E"),
	}}
	f := NewFetcher(cat, nil, nil, FetcherConfig{}, zerolog.Nop())

	state := QueryState{Mode: ModeSearch, Query: "x", Page: 1}
	items, updated, exhausted, err := f.FetchBatch(context.Background(), state, Filter{})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	// 1 + 2 < 4, so a third page is needed.
	if len(items) != 5 {
		t.Errorf("len(items) = %d, want 5", len(items))
	}
	if cat.searchCalls != 3 {
		t.Errorf("searchCalls = %d, want 3", cat.searchCalls)
	}
	if updated.Page != 4 {
		t.Errorf("next page = %d, want 4", updated.Page)
	}
	if exhausted {
		t.Error("exhausted = true, want false")
	}
}

func TestFetchBatch_GuardLimitStopsShort(t *testing.T) {
	// Every page yields nothing after discover filtering, so the loop
	// must stop at the guard limit with a short, non-error result.
	pages := make([][]catalog.MovieItem, 10)
	for i := range pages {
		pages[i] = movies(fmt.Sprintf("Unrelated %d", i))
	}
	cat := &fakeCatalog{discoverPages: pages}
	f := NewFetcher(cat, nil, nil, FetcherConfig{}, zerolog.Nop())

	state := QueryState{Mode: ModeDiscover, Language: "ko", Page: 1}
	items, updated, exhausted, err := f.FetchBatch(context.Background(), state, Filter{Text: "oldboy"})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(items))
	}
	if cat.discoverCalls != DefaultGuardLimit {
		t.Errorf("discoverCalls = %d, want %d", cat.discoverCalls, DefaultGuardLimit)
	}
	if updated.Page != 1+DefaultGuardLimit {
		t.Errorf("next page = %d, want %d", updated.Page, 1+DefaultGuardLimit)
	}
	if exhausted {
		t.Error("exhausted = true, want false")
	}
}

func TestFetchBatch_EmptyPageMeansExhausted(t *testing.T) {
	cat := &fakeCatalog{searchPages: [][]catalog.MovieItem{
		movies("A", "B"),
		// page 2 empty
	}}
	f := NewFetcher(cat, nil, nil, FetcherConfig{}, zerolog.Nop())

	state := QueryState{Mode: ModeSearch, Query: "x", Page: 1}
	items, updated, exhausted, err := f.FetchBatch(context.Background(), state, Filter{})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
	if !exhausted {
		t.Error("exhausted = false, want true")
	}
	// The cursor does not advance past the empty page.
	if updated.Page != 2 {
		t.Errorf("next page = %d, want 2", updated.Page)
	}
}

func TestFetchBatch_DiscoverFiltersByTitle(t *testing.T) {
	cat := &fakeCatalog{discoverPages: [][]catalog.MovieItem{
		movies("Zombie Island", "Romantic Comedy", "Zombie School"),
		movies("City of Zombies", "Unrelated"),
	}}
	f := NewFetcher(cat, nil, nil, FetcherConfig{MinBatch: 3}, zerolog.Nop())

	state := QueryState{Mode: ModeDiscover, Language: "en", Page: 1}
	items, _, _, err := f.FetchBatch(context.Background(), state, Filter{Tokens: []string{"Zombie Movies"}})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}

	want := []string{"Zombie Island", "Zombie School", "City of Zombies"}
	if len(items) != len(want) {
		t.Fatalf("len(items) = %d, want %d: %v", len(items), len(want), items)
	}
	for i, title := range want {
		if items[i].Title != title {
			t.Errorf("items[%d].Title = %q, want %q", i, items[i].Title, title)
		}
	}
}

func TestFetchBatch_ErrorLeavesStateUnchanged(t *testing.T) {
	wantErr := errors.New("upstream down")
	cat := &fakeCatalog{popularErr: wantErr}
	f := NewFetcher(cat, nil, nil, FetcherConfig{}, zerolog.Nop())

	state := QueryState{Mode: ModePopular, Page: 3}
	_, updated, _, err := f.FetchBatch(context.Background(), state, Filter{})
	if err == nil {
		t.Fatal("FetchBatch() error = nil, want error")
	}
	if updated.Page != 3 {
		t.Errorf("page after error = %d, want 3", updated.Page)
	}
}

func TestFetchBatch_PopularFallback(t *testing.T) {
	cat := &fakeCatalog{popularErr: errors.New("aggregator down")}
	fb := &fakeFallback{items: movies("A", "B", "C", "D")}
	f := NewFetcher(cat, fb, nil, FetcherConfig{}, zerolog.Nop())

	state := QueryState{Mode: ModePopular, Page: 1}
	items, _, _, err := f.FetchBatch(context.Background(), state, Filter{})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(items) != 4 {
		t.Errorf("len(items) = %d, want 4", len(items))
	}
	if fb.calls == 0 {
		t.Error("fallback was never consulted")
	}
}

func TestFetchBatch_PopularFallbackAlsoFails(t *testing.T) {
	cat := &fakeCatalog{popularErr: errors.New("aggregator down")}
	fb := &fakeFallback{err: errors.New("tmdb down")}
	f := NewFetcher(cat, fb, nil, FetcherConfig{}, zerolog.Nop())

	state := QueryState{Mode: ModePopular, Page: 1}
	_, _, _, err := f.FetchBatch(context.Background(), state, Filter{})
	if err == nil {
		t.Fatal("FetchBatch() error = nil, want error")
	}
}

func TestFetchBatch_PopularUsesCache(t *testing.T) {
	cache := NewItemCache(DefaultCacheConfig())
	cache.Set(popularCacheKey(1), movies("A", "B", "C", "D"))

	cat := &fakeCatalog{}
	f := NewFetcher(cat, nil, cache, FetcherConfig{}, zerolog.Nop())

	state := QueryState{Mode: ModePopular, Page: 1}
	items, _, _, err := f.FetchBatch(context.Background(), state, Filter{})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(items) != 4 {
		t.Errorf("len(items) = %d, want 4", len(items))
	}
	if cat.popularCalls != 0 {
		t.Errorf("popularCalls = %d, want 0 (served from cache)", cat.popularCalls)
	}
}

func TestWarmPopular(t *testing.T) {
	cache := NewItemCache(DefaultCacheConfig())
	cat := &fakeCatalog{popularPages: [][]catalog.MovieItem{movies("A", "B")}}
	f := NewFetcher(cat, nil, cache, FetcherConfig{}, zerolog.Nop())

	if err := f.WarmPopular(context.Background()); err != nil {
		t.Fatalf("WarmPopular() error = %v", err)
	}

	items, ok := cache.Get(popularCacheKey(1))
	if !ok || len(items) != 2 {
		t.Errorf("cache after warm = (%v, %v), want 2 items", items, ok)
	}
}

func TestFilterByTitle(t *testing.T) {
	items := []catalog.MovieItem{
		{Title: "Zombie Land Saga"},
		{Title: "Quiet Drama"},
		{Title: "zombie night"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter passes all", Filter{}, 3},
		{"leading word of token", Filter{Tokens: []string{"Zombie Movies"}}, 2},
		{"free text phrase", Filter{Text: "night"}, 1},
		{"token and text must both match", Filter{Tokens: []string{"Zombie"}, Text: "saga"}, 1},
		{"no match", Filter{Text: "western"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterByTitle(items, tt.filter)
			if len(got) != tt.want {
				t.Errorf("filterByTitle() kept %d items, want %d", len(got), tt.want)
			}
		})
	}
}
