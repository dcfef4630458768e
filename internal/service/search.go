package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aniladanir/lead-finder-service/internal/cache"
	"github.com/aniladanir/lead-finder-service/internal/domain"
	"github.com/aniladanir/lead-finder-service/internal/provider"
	"golang.org/x/sync/singleflight"
)

type Searcher interface {
	Search(ctx context.Context, source string, q domain.Query) ([]domain.SearchResult, error)
	Providers() []string
	ClearCache()
	CacheStats() cache.Stats
}

// ResponseCache is the subset of cache.Memory used by the search service
type ResponseCache interface {
	Get(key string) ([]domain.SearchResult, bool)
	Set(key string, value []domain.SearchResult)
	Clear()
	Stats() cache.Stats
}

type searchService struct {
	providers *provider.Registry
	cache     ResponseCache
	flights   singleflight.Group
	logger    *slog.Logger
}

func NewSearchService(providers *provider.Registry, responseCache ResponseCache, logger *slog.Logger) Searcher {
	return &searchService{
		providers: providers,
		cache:     responseCache,
		logger:    logger,
	}
}

// Search returns normalized results of source for q. Results are served from
// cache while fresh; concurrent misses on the same key share one upstream call.
// Failed upstream calls are never cached.
func (s *searchService) Search(ctx context.Context, source string, q domain.Query) ([]domain.SearchResult, error) {
	p, ok := s.providers.Lookup(source)
	if !ok {
		return nil, domain.ErrUnknownSource
	}
	q = q.Trimmed()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := searchKey(source, q)
	searchLogger := s.logger.With(slog.String("source", source), slog.String("key", key))

	if results, ok := s.cache.Get(key); ok {
		searchLogger.Debug("served search from cache", "results", len(results))
		return results, nil
	}

	ch := s.flights.DoChan(key, func() (any, error) {
		// a single caller going away must not fail the others waiting on this flight
		results, err := p.Search(context.WithoutCancel(ctx), q)
		if err != nil {
			searchLogger.Error("upstream search failed", "error", err.Error())
			return nil, err
		}
		s.cache.Set(key, results)
		searchLogger.Info("fetched search from upstream", "results", len(results))
		return results, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.SearchResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *searchService) Providers() []string {
	return s.providers.Names()
}

func (s *searchService) ClearCache() {
	s.cache.Clear()
	s.logger.Info("response cache cleared")
}

func (s *searchService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func searchKey(source string, q domain.Query) string {
	params := map[string]string{
		"term":     q.Term,
		"location": q.Location,
	}
	if q.Radius > 0 {
		params["radius"] = strconv.Itoa(q.Radius)
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	return cache.Fingerprint(source, params)
}
