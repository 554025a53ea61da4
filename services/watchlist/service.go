// Package watchlist coordinates the user data cache and the Letterboxd
// extraction client for batches of users.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"letterwatch/internal/database"
	"letterwatch/models"
	"letterwatch/services/letterboxd"
)

// ErrAllUsersFailed means no user in a batch could be resolved; the request
// as a whole has failed.
var ErrAllUsersFailed = errors.New("failed to fetch data for all users")

type extractor interface {
	FetchWatchlist(ctx context.Context, username string) ([]models.FilmRecord, error)
	FetchWatched(ctx context.Context, username string) ([]string, error)
}

var _ extractor = (*letterboxd.Client)(nil)

type cacheStore interface {
	GetUserData(username string) (*models.CacheEntry[models.UserFilmData], error)
	PutUserData(username string, data models.UserFilmData) error
	DeleteUserData(username string) error
}

var _ cacheStore = (*database.CacheRepository)(nil)

// Service resolves usernames to film data, reusing cached entries while they
// are fresh and refetching otherwise.
type Service struct {
	extractor extractor
	cache     cacheStore
	ttl       time.Duration
}

// NewService creates a watchlist service with the given cache freshness TTL.
func NewService(extractor extractor, cache cacheStore, ttl time.Duration) *Service {
	return &Service{
		extractor: extractor,
		cache:     cache,
		ttl:       ttl,
	}
}

// IsFresh reports whether a cache entry is still within the freshness TTL.
func (s *Service) IsFresh(entry *models.CacheEntry[models.UserFilmData]) bool {
	return entry != nil && entry.Age() < s.ttl
}

// GetUserFilmData returns a user's film data, from cache when fresh. A
// forced refresh deletes the cached entry before refetching, so a failed
// refetch leaves no entry behind rather than a falsely fresh stale one.
func (s *Service) GetUserFilmData(ctx context.Context, username string, forceRefresh bool) (models.UserFilmData, error) {
	entry, err := s.cache.GetUserData(username)
	if err != nil {
		// A broken cache read degrades to a refetch.
		log.Printf("[watchlist] cache read for %s failed: %v", username, err)
		entry = nil
	}

	if forceRefresh && entry != nil {
		if err := s.cache.DeleteUserData(username); err != nil {
			log.Printf("[watchlist] cache invalidation for %s failed: %v", username, err)
		}
		entry = nil
	}

	if s.IsFresh(entry) {
		log.Printf("[watchlist] using cached data for %s", username)
		return entry.Value, nil
	}

	log.Printf("[watchlist] fetching fresh data for %s", username)

	watchlistFilms, err := s.extractor.FetchWatchlist(ctx, username)
	if err != nil {
		return models.UserFilmData{}, err
	}

	watched, err := s.extractor.FetchWatched(ctx, username)
	if err != nil {
		return models.UserFilmData{}, err
	}

	data := models.UserFilmData{
		Username:  username,
		Watchlist: watchlistFilms,
		Watched:   watched,
	}

	if err := s.cache.PutUserData(username, data); err != nil {
		// The fetch succeeded; a failed cache write only costs a refetch
		// next time.
		log.Printf("[watchlist] cache write for %s failed: %v", username, err)
	}

	return data, nil
}

// FetchAll resolves a batch of usernames sequentially. A single user's
// failure does not abort the batch; failures are collected and returned as
// warnings. When every user fails, ErrAllUsersFailed is returned.
func (s *Service) FetchAll(ctx context.Context, usernames []string, forceRefresh bool) ([]models.UserFilmData, []models.UserError, error) {
	usersData := make([]models.UserFilmData, 0, len(usernames))
	var failures []models.UserError

	for _, username := range usernames {
		data, err := s.GetUserFilmData(ctx, username, forceRefresh)
		if err != nil {
			log.Printf("[watchlist] fetching data for %s failed: %v", username, err)
			failures = append(failures, models.UserError{Username: username, Error: err.Error()})
			continue
		}
		usersData = append(usersData, data)
	}

	if len(usersData) == 0 && len(failures) > 0 {
		return nil, failures, fmt.Errorf("%w: %d of %d users", ErrAllUsersFailed, len(failures), len(usernames))
	}

	return usersData, failures, nil
}
