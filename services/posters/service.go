// Package posters resolves film poster URLs, best-effort.
package posters

import (
	"context"
	"log"
	"time"

	"github.com/sourcegraph/conc/pool"

	"letterwatch/internal/database"
	"letterwatch/models"
	"letterwatch/services/letterboxd"
)

// PlaceholderURL is returned whenever a poster cannot be resolved. Poster
// resolution must never fail an analysis.
const PlaceholderURL = "https://s.ltrbxd.com/static/img/empty-poster-230.png"

// enrichWorkers bounds concurrent poster lookups. The shared rate-limit gate
// still serializes the actual requests; the pool only overlaps the waiting.
const enrichWorkers = 3

type fetcher interface {
	FetchPoster(ctx context.Context, slug string) (string, error)
}

var _ fetcher = (*letterboxd.Client)(nil)

type cacheStore interface {
	GetPoster(slug string) (*models.CacheEntry[string], error)
	PutPoster(slug, url string) error
}

var _ cacheStore = (*database.CacheRepository)(nil)

// Service resolves and caches poster URLs. Poster entries live much longer
// than user data since artwork rarely changes.
type Service struct {
	fetcher fetcher
	cache   cacheStore
	ttl     time.Duration
}

// NewService creates a poster service with the given cache TTL.
func NewService(fetcher fetcher, cache cacheStore, ttl time.Duration) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
	}
}

// Resolve returns the poster URL for a film slug, or the placeholder when
// resolution fails for any reason. Failed lookups are not cached, so a film
// with a transient failure gets another chance on the next analysis.
func (s *Service) Resolve(ctx context.Context, slug string) string {
	entry, err := s.cache.GetPoster(slug)
	if err != nil {
		log.Printf("[posters] cache read for %s failed: %v", slug, err)
	}
	if entry != nil && entry.Age() < s.ttl {
		return entry.Value
	}

	url, err := s.fetcher.FetchPoster(ctx, slug)
	if err != nil || url == "" {
		if err != nil {
			log.Printf("[posters] failed to fetch poster for %s: %v", slug, err)
		}
		return PlaceholderURL
	}

	if err := s.cache.PutPoster(slug, url); err != nil {
		log.Printf("[posters] cache write for %s failed: %v", slug, err)
	}

	return url
}

// EnrichMovies fills PosterURL for every aggregated film in place. Only the
// films surviving aggregation reach this point, which bounds the number of
// external requests per analysis.
func (s *Service) EnrichMovies(ctx context.Context, movies []models.AggregatedFilm) {
	p := pool.New().WithMaxGoroutines(enrichWorkers)
	for i := range movies {
		i := i
		p.Go(func() {
			movies[i].PosterURL = s.Resolve(ctx, movies[i].Slug)
		})
	}
	p.Wait()
}
