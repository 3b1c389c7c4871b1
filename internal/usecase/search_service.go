package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/storefront/backend/internal/domain"
)

// Cache keys for the catalog snapshot
const (
	productsCacheKey   = "catalog:products"
	vocabularyCacheKey = "catalog:vocabulary"
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	Scoring      ScoringConfig
}

// Status describes the state of the catalog snapshot and sessions
type Status struct {
	CacheReachable bool `json:"cacheReachable"`
	CatalogCached  bool `json:"catalogCached"`
	Sessions       int  `json:"sessions"`
}

// SearchService answers catalog searches from a cached catalog snapshot
type SearchService struct {
	cache    domain.CacheRepository
	catalog  domain.CatalogClient
	sessions *SessionStore
	ranker   *Ranker
	cacheTTL     time.Duration
	fetchTimeout time.Duration
	fetches      singleflight.Group
}

// NewSearchService creates a new search service with dependencies
func NewSearchService(
	cache domain.CacheRepository,
	catalog domain.CatalogClient,
	sessions *SessionStore,
	config SearchServiceConfig,
) *SearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}
	fetchTimeout := config.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = time.Minute
	}
	if sessions == nil {
		sessions = NewSessionStore(0)
	}

	return &SearchService{
		cache:    cache,
		catalog:  catalog,
		sessions: sessions,
		ranker:   NewRanker(config.Scoring),
		cacheTTL:     cacheTTL,
		fetchTimeout: fetchTimeout,
	}
}

// Sessions returns the browse session store used by the service
func (s *SearchService) Sessions() *SessionStore {
	return s.sessions
}

// Search ranks the catalog for the request query and applies its filters.
// Flow: validate -> catalog snapshot -> tokenize -> rank -> filter -> resolve names
func (s *SearchService) Search(ctx context.Context, request *domain.SearchRequest) (*domain.SearchResult, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}
	if err := validateFilters(request.Filters); err != nil {
		return nil, err
	}

	var (
		session *BrowseSession
		gen     uint64
	)
	if request.SessionID != "" {
		var err error
		session, err = s.sessions.Get(request.SessionID)
		if err != nil {
			return nil, err
		}
		gen = session.Begin()
	}

	products, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := Tokenize(request.Query)
	ranked := s.ranker.Rank(products, tokens)
	results := ApplyFilters(ranked, request.Filters, len(tokens) > 0)

	rememberedQuery := request.Query
	if rememberedQuery == "" && session != nil {
		rememberedQuery = session.Query()
	}
	for i := range results {
		results[i].DisplayName = ResolveModelName(results[i].Name, results[i].Models, rememberedQuery)
	}

	if session != nil && !session.Remember(gen, request.Query, request.Filters, results) {
		log.Printf("[SEARCH] Discarding superseded search %q in session %s", request.Query, session.ID)
		return nil, domain.ErrSuperseded
	}

	log.Printf("[SEARCH] %q -> %d tokens, %d ranked, %d after filters", request.Query, len(tokens), len(ranked), len(results))

	return &domain.SearchResult{
		Query:    request.Query,
		Tokens:   tokens,
		Total:    len(results),
		Products: results,
	}, nil
}

// validateFilters rejects filter values no storefront widget can produce
func validateFilters(f domain.Filters) error {
	if !f.SortBy.Valid() {
		return fmt.Errorf("%w: unknown sortBy %q", domain.ErrInvalidRequest, f.SortBy)
	}
	if f.PriceRange.Min < 0 || f.PriceRange.Max < 0 {
		return fmt.Errorf("%w: negative price bound", domain.ErrInvalidRequest)
	}
	if f.PriceRange.Max > 0 && f.PriceRange.Max < f.PriceRange.Min {
		return fmt.Errorf("%w: price range max %.2f below min %.2f", domain.ErrInvalidRequest, f.PriceRange.Max, f.PriceRange.Min)
	}
	return nil
}

// Catalog returns the catalog snapshot, fetching it from the product API on a cache miss.
// Concurrent misses share a single fetch.
func (s *SearchService) Catalog(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if s.getFromCache(ctx, productsCacheKey, &products) {
		return products, nil
	}

	v, err := s.sharedFetch(ctx, productsCacheKey, func(fetchCtx context.Context) (interface{}, error) {
		fetched, err := s.catalog.FetchProducts(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.setInCache(fetchCtx, productsCacheKey, fetched)
		log.Printf("[CATALOG] Loaded %d products", len(fetched))
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// Vocabulary returns the facet vocabularies, fetching them on a cache miss
func (s *SearchService) Vocabulary(ctx context.Context) (*domain.Vocabulary, error) {
	var vocab domain.Vocabulary
	if s.getFromCache(ctx, vocabularyCacheKey, &vocab) {
		return &vocab, nil
	}

	v, err := s.sharedFetch(ctx, vocabularyCacheKey, func(fetchCtx context.Context) (interface{}, error) {
		fetched, err := s.catalog.FetchVocabulary(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.setInCache(fetchCtx, vocabularyCacheKey, fetched)
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Vocabulary), nil
}

// sharedFetch runs fetch once per key for all concurrent callers. The fetch
// is detached from the cancellation of whichever caller started it and is
// bounded by the fetch timeout instead; each caller still stops waiting when
// its own context ends.
func (s *SearchService) sharedFetch(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.fetches.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return fetch(fetchCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Status checks the cache for the catalog snapshot and counts live sessions
func (s *SearchService) Status(ctx context.Context) Status {
	status := Status{Sessions: s.sessions.Size()}

	cached, err := s.cache.Exists(ctx, productsCacheKey)
	if err != nil {
		log.Printf("[CATALOG] Cache status check failed: %v", err)
		return status
	}
	status.CacheReachable = true
	status.CatalogCached = cached
	return status
}

// Refresh drops the cached catalog so the next search refetches it
func (s *SearchService) Refresh(ctx context.Context) error {
	for _, key := range []string{productsCacheKey, vocabularyCacheKey} {
		if err := s.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
		}
	}
	log.Printf("[CATALOG] Cached snapshot invalidated")
	return nil
}

// getFromCache decodes a cached JSON value into dst and reports whether it did.
// Cache failures are logged and treated as misses.
func (s *SearchService) getFromCache(ctx context.Context, key string, dst interface{}) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[CATALOG] Cache read %s failed: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("[CATALOG] Cached %s is corrupt: %v", key, err)
		return false
	}
	return true
}

// setInCache stores a JSON value, logging but not failing on errors
func (s *SearchService) setInCache(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[CATALOG] Encoding %s failed: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		log.Printf("[CATALOG] Cache write %s failed: %v", key, err)
	}
}
