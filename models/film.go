package models

import (
	"strings"
	"time"
)

// FilmRecord represents a single film extracted from a Letterboxd list page.
// The ID is Letterboxd's canonical film identifier. It looks numeric but is
// treated as an opaque string everywhere; comparisons happen on the
// trimmed string form only.
type FilmRecord struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// NormalizeFilmID returns the canonical comparison form of a film identifier.
// All ingestion paths run identifiers through this before storing them.
func NormalizeFilmID(id string) string {
	return strings.TrimSpace(id)
}

// UserFilmData holds one user's complete list data as fetched from
// Letterboxd. Watched holds identifiers only; watched status is only ever
// membership-tested. The struct is replaced wholesale on every refresh.
type UserFilmData struct {
	Username  string       `json:"username"`
	Watchlist []FilmRecord `json:"watchlist"`
	Watched   []string     `json:"watched"`
}

// CacheEntry wraps a cached value with the time it was written. TTL policy
// lives with the consumer, not the store.
type CacheEntry[T any] struct {
	Key       string    `json:"key"`
	Value     T         `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Age returns how long ago the entry was written.
func (e CacheEntry[T]) Age() time.Duration {
	return time.Since(e.UpdatedAt)
}

// AggregatedFilm is a film surviving cross-user aggregation, annotated with
// how many of the analyzed users want it and how many have already seen it.
type AggregatedFilm struct {
	FilmRecord
	InWatchlistCount int      `json:"inWatchlistCount"`
	WatchedCount     int      `json:"watchedCount"`
	WatchlistUsers   []string `json:"users"`
	WatchedByUsers   []string `json:"watchedBy"`
	Priority         int      `json:"priority"`
	PosterURL        string   `json:"posterUrl,omitempty"`
}

// AnalysisResult is the immutable output of one aggregation run.
// TotalMovies always equals len(Movies).
type AnalysisResult struct {
	TotalMovies int              `json:"totalMovies"`
	TotalUsers  int              `json:"totalUsers"`
	Movies      []AggregatedFilm `json:"movies"`
}

// UserError records a per-user fetch failure inside a batch. Sibling users
// keep processing; the batch reports these as warnings.
type UserError struct {
	Username string `json:"username"`
	Error    string `json:"error"`
}

// FilmDetails carries best-effort metadata from a film's detail page.
// Missing fields stay empty rather than failing the lookup.
type FilmDetails struct {
	Rating   string `json:"rating,omitempty"`
	Year     string `json:"year,omitempty"`
	Director string `json:"director,omitempty"`
}

// ProfileInfo is the result of validating a Letterboxd username.
type ProfileInfo struct {
	Exists      bool   `json:"exists"`
	DisplayName string `json:"displayName,omitempty"`
}
