// Package analyze computes the common-film set across users' watchlists.
package analyze

import (
	"log"
	"sort"

	"letterwatch/config"
	"letterwatch/models"
)

// Service aggregates per-user film data into a ranked analysis result.
// Aggregation is a pure function of its input; the only state is the
// watched-count policy.
type Service struct {
	scope config.WatchedScope
}

// NewService creates an aggregation service with the given watched-count
// scope. An empty scope falls back to global counting.
func NewService(scope config.WatchedScope) *Service {
	if scope == "" {
		scope = config.WatchedScopeGlobal
	}
	return &Service{scope: scope}
}

// Analyze computes the common films for the supplied users, ranks them and
// assigns priority buckets. With a single user the whole watchlist is kept;
// with several, only films wanted by at least two of them survive.
func (s *Service) Analyze(usersData []models.UserFilmData) models.AnalysisResult {
	candidates := s.collectCandidates(usersData)

	totalUsers := len(usersData)

	var filtered []models.AggregatedFilm
	if totalUsers > 1 {
		filtered = make([]models.AggregatedFilm, 0, len(candidates))
		for _, film := range candidates {
			if film.InWatchlistCount >= 2 {
				filtered = append(filtered, film)
			}
		}
	} else {
		filtered = candidates
	}

	sortByRelevance(filtered, totalUsers)

	for i := range filtered {
		filtered[i].Priority = priority(filtered[i], totalUsers)
	}

	log.Printf("[analyze] %d users, %d candidates, %d films after filtering", totalUsers, len(candidates), len(filtered))

	return models.AnalysisResult{
		TotalMovies: len(filtered),
		TotalUsers:  totalUsers,
		Movies:      filtered,
	}
}

// collectCandidates runs the two aggregation phases: build the candidate set
// from every user's watchlist, then count watched status for each candidate.
// Candidates keep first-seen order so the final sort is deterministic under
// ties.
func (s *Service) collectCandidates(usersData []models.UserFilmData) []models.AggregatedFilm {
	byID := make(map[string]*models.AggregatedFilm)
	var order []string

	// Phase 1: candidate set from watchlists.
	for _, user := range usersData {
		for _, film := range user.Watchlist {
			id := models.NormalizeFilmID(film.ID)
			candidate, ok := byID[id]
			if !ok {
				candidate = &models.AggregatedFilm{
					FilmRecord: models.FilmRecord{
						ID:    id,
						Slug:  film.Slug,
						Title: film.Title,
					},
				}
				byID[id] = candidate
				order = append(order, id)
			}
			candidate.InWatchlistCount++
			candidate.WatchlistUsers = append(candidate.WatchlistUsers, user.Username)
		}
	}

	// Phase 2: watched counts. Under global scope a film counts as watched
	// by any user who has seen it, even when it never entered that user's
	// watchlist. Under watchlist scope only watchlisting users count.
	for _, user := range usersData {
		watched := make(map[string]bool, len(user.Watched))
		for _, id := range user.Watched {
			watched[models.NormalizeFilmID(id)] = true
		}

		watchlisted := make(map[string]bool, len(user.Watchlist))
		if s.scope == config.WatchedScopeWatchlist {
			for _, film := range user.Watchlist {
				watchlisted[models.NormalizeFilmID(film.ID)] = true
			}
		}

		for _, id := range order {
			if !watched[id] {
				continue
			}
			if s.scope == config.WatchedScopeWatchlist && !watchlisted[id] {
				continue
			}
			candidate := byID[id]
			candidate.WatchedCount++
			candidate.WatchedByUsers = append(candidate.WatchedByUsers, user.Username)
		}
	}

	candidates := make([]models.AggregatedFilm, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, *byID[id])
	}
	return candidates
}

// sortByRelevance orders films by the analyzer's relevance rules. The rules
// form an ordered sequence, not a composite key: the full-watchlist check
// can override an equality already reached by the zero-watched comparison,
// so each rule is evaluated in turn with an early decision.
func sortByRelevance(films []models.AggregatedFilm, totalUsers int) {
	if totalUsers == 0 {
		return
	}

	sort.SliceStable(films, func(i, j int) bool {
		a, b := films[i], films[j]

		aWatchlistRatio := float64(a.InWatchlistCount) / float64(totalUsers)
		bWatchlistRatio := float64(b.InWatchlistCount) / float64(totalUsers)
		aWatchedRatio := float64(a.WatchedCount) / float64(totalUsers)
		bWatchedRatio := float64(b.WatchedCount) / float64(totalUsers)

		// Completely unwatched films come first.
		if aWatchedRatio == 0 && bWatchedRatio > 0 {
			return true
		}
		if bWatchedRatio == 0 && aWatchedRatio > 0 {
			return false
		}

		// Among unwatched films, broader watchlist coverage wins.
		if aWatchedRatio == 0 && bWatchedRatio == 0 {
			if aWatchlistRatio != bWatchlistRatio {
				return aWatchlistRatio > bWatchlistRatio
			}
		}

		// A film everyone wants outranks one not everyone wants.
		if aWatchlistRatio == 1 && bWatchlistRatio < 1 {
			return true
		}
		if bWatchlistRatio == 1 && aWatchlistRatio < 1 {
			return false
		}

		if aWatchlistRatio != bWatchlistRatio {
			return aWatchlistRatio > bWatchlistRatio
		}

		return aWatchedRatio < bWatchedRatio
	})
}

// priority buckets a film into 1..6 from its coverage ratios. First matching
// row wins.
func priority(film models.AggregatedFilm, totalUsers int) int {
	if totalUsers == 0 {
		return 6
	}

	watchlistRatio := float64(film.InWatchlistCount) / float64(totalUsers)
	watchedRatio := float64(film.WatchedCount) / float64(totalUsers)

	switch {
	case watchlistRatio == 1 && watchedRatio == 0:
		return 1
	case watchlistRatio >= 0.6 && watchedRatio == 0:
		return 2
	case watchlistRatio >= 0.3 && watchedRatio == 0:
		return 3
	case watchlistRatio == 1 && watchedRatio > 0:
		return 4
	case watchlistRatio >= 0.6 && watchedRatio > 0:
		return 5
	default:
		return 6
	}
}
