package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"letterwatch/models"
)

// CacheRepository persists fetched Letterboxd data across restarts. Two
// independent namespaces share the store: per-user film data and per-film
// poster URLs. TTL policy is evaluated by the callers, never here; rows are
// only removed by an explicit delete.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a cache repository backed by the given connection.
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// GetUserData returns the cached film data for a username, or nil when the
// username has never been fetched.
func (r *CacheRepository) GetUserData(username string) (*models.CacheEntry[models.UserFilmData], error) {
	var (
		raw       string
		updatedAt int64
	)

	err := r.db.QueryRow(
		"SELECT data, updated_at FROM user_cache WHERE username = ?", username,
	).Scan(&raw, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user cache: %w", err)
	}

	var data models.UserFilmData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode cached user data: %w", err)
	}

	return &models.CacheEntry[models.UserFilmData]{
		Key:       username,
		Value:     data,
		UpdatedAt: time.Unix(updatedAt, 0),
	}, nil
}

// PutUserData stores film data for a username, replacing any previous entry.
func (r *CacheRepository) PutUserData(username string, data models.UserFilmData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode user data: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO user_cache (username, data, updated_at) VALUES (?, ?, ?)",
		username, string(raw), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write user cache: %w", err)
	}
	return nil
}

// DeleteUserData removes a username's cached entry. Deleting a missing entry
// is not an error.
func (r *CacheRepository) DeleteUserData(username string) error {
	if _, err := r.db.Exec("DELETE FROM user_cache WHERE username = ?", username); err != nil {
		return fmt.Errorf("delete user cache: %w", err)
	}
	return nil
}

// GetPoster returns the cached poster URL for a film slug, or nil when the
// slug has never been resolved.
func (r *CacheRepository) GetPoster(slug string) (*models.CacheEntry[string], error) {
	var (
		url       string
		updatedAt int64
	)

	err := r.db.QueryRow(
		"SELECT url, updated_at FROM poster_cache WHERE slug = ?", slug,
	).Scan(&url, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query poster cache: %w", err)
	}

	return &models.CacheEntry[string]{
		Key:       slug,
		Value:     url,
		UpdatedAt: time.Unix(updatedAt, 0),
	}, nil
}

// PutPoster stores a resolved poster URL for a film slug.
func (r *CacheRepository) PutPoster(slug, url string) error {
	_, err := r.db.Exec(
		"INSERT OR REPLACE INTO poster_cache (slug, url, updated_at) VALUES (?, ?, ?)",
		slug, url, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write poster cache: %w", err)
	}
	return nil
}

// DeletePoster removes a slug's cached poster URL.
func (r *CacheRepository) DeletePoster(slug string) error {
	if _, err := r.db.Exec("DELETE FROM poster_cache WHERE slug = ?", slug); err != nil {
		return fmt.Errorf("delete poster cache: %w", err)
	}
	return nil
}
