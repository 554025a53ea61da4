package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"letterwatch/config"
	"letterwatch/models"
	"letterwatch/services/analyze"
)

func film(id, title string) models.FilmRecord {
	return models.FilmRecord{ID: id, Slug: "slug-" + id, Title: title}
}

func TestAnalyzeTwoUserScenario(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeGlobal)

	usersData := []models.UserFilmData{
		{
			Username:  "alice",
			Watchlist: []models.FilmRecord{film("1", "A"), film("2", "B")},
			Watched:   []string{},
		},
		{
			Username:  "bob",
			Watchlist: []models.FilmRecord{film("1", "A")},
			Watched:   []string{"1"},
		},
	}

	result := svc.Analyze(usersData)

	require.Equal(t, 1, result.TotalMovies)
	require.Equal(t, 2, result.TotalUsers)
	require.Len(t, result.Movies, 1)

	movie := result.Movies[0]
	assert.Equal(t, "1", movie.ID)
	assert.Equal(t, 2, movie.InWatchlistCount)
	assert.Equal(t, 1, movie.WatchedCount)
	assert.Equal(t, []string{"alice", "bob"}, movie.WatchlistUsers)
	assert.Equal(t, []string{"bob"}, movie.WatchedByUsers)
	assert.Equal(t, 4, movie.Priority, "full watchlist coverage with watchers is priority 4")
}

func TestAnalyzeSingleUserKeepsAllFilms(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeGlobal)

	result := svc.Analyze([]models.UserFilmData{
		{
			Username:  "alice",
			Watchlist: []models.FilmRecord{film("1", "A"), film("2", "B"), film("3", "C")},
			Watched:   []string{"2"},
		},
	})

	require.Equal(t, 3, result.TotalMovies)
	for _, movie := range result.Movies {
		assert.GreaterOrEqual(t, movie.InWatchlistCount, 1)
	}
}

func TestAnalyzeFilterInvariant(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeGlobal)

	usersData := []models.UserFilmData{
		{Username: "alice", Watchlist: []models.FilmRecord{film("1", "A"), film("2", "B")}, Watched: nil},
		{Username: "bob", Watchlist: []models.FilmRecord{film("2", "B"), film("3", "C")}, Watched: nil},
		{Username: "carol", Watchlist: []models.FilmRecord{film("3", "C")}, Watched: nil},
	}

	result := svc.Analyze(usersData)

	require.Equal(t, 2, result.TotalMovies)
	for _, movie := range result.Movies {
		assert.GreaterOrEqual(t, movie.InWatchlistCount, 2, "multi-user results only keep common films")
		assert.LessOrEqual(t, movie.InWatchlistCount, result.TotalUsers)
		assert.GreaterOrEqual(t, movie.WatchedCount, 0)
		assert.LessOrEqual(t, movie.WatchedCount, result.TotalUsers)
	}
}

func TestAnalyzeGlobalWatchedCount(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeGlobal)

	// Carol never watchlisted film 1 but has seen it; global scope counts her.
	usersData := []models.UserFilmData{
		{Username: "alice", Watchlist: []models.FilmRecord{film("1", "A")}, Watched: nil},
		{Username: "bob", Watchlist: []models.FilmRecord{film("1", "A")}, Watched: nil},
		{Username: "carol", Watchlist: nil, Watched: []string{"1"}},
	}

	result := svc.Analyze(usersData)

	require.Len(t, result.Movies, 1)
	assert.Equal(t, 1, result.Movies[0].WatchedCount)
	assert.Equal(t, []string{"carol"}, result.Movies[0].WatchedByUsers)
}

func TestAnalyzeWatchlistScopeIgnoresOutsideWatchers(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeWatchlist)

	usersData := []models.UserFilmData{
		{Username: "alice", Watchlist: []models.FilmRecord{film("1", "A")}, Watched: nil},
		{Username: "bob", Watchlist: []models.FilmRecord{film("1", "A")}, Watched: nil},
		{Username: "carol", Watchlist: nil, Watched: []string{"1"}},
	}

	result := svc.Analyze(usersData)

	require.Len(t, result.Movies, 1)
	assert.Equal(t, 0, result.Movies[0].WatchedCount, "watchlist scope only counts watchlisting users")
}

func TestAnalyzeNormalizesIdentifiers(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeGlobal)

	usersData := []models.UserFilmData{
		{Username: "alice", Watchlist: []models.FilmRecord{film("42", "A")}, Watched: nil},
		{Username: "bob", Watchlist: []models.FilmRecord{film("42", "A")}, Watched: []string{" 42 "}},
	}

	result := svc.Analyze(usersData)

	require.Len(t, result.Movies, 1)
	assert.Equal(t, 1, result.Movies[0].WatchedCount, "padded identifiers must match after trimming")
}

func TestAnalyzeRankingOrder(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeGlobal)

	// Four users:
	//   film 1: watchlisted by all 4, watched by 1 -> watched ratio > 0
	//   film 2: watchlisted by 3, unwatched        -> zero watched ratio
	//   film 3: watchlisted by 2, unwatched        -> zero watched ratio
	//   film 4: watchlisted by 2, watched by 2
	usersData := []models.UserFilmData{
		{Username: "u1", Watchlist: []models.FilmRecord{film("1", "A"), film("2", "B"), film("3", "C"), film("4", "D")}, Watched: []string{"4"}},
		{Username: "u2", Watchlist: []models.FilmRecord{film("1", "A"), film("2", "B"), film("3", "C"), film("4", "D")}, Watched: []string{"1", "4"}},
		{Username: "u3", Watchlist: []models.FilmRecord{film("1", "A"), film("2", "B")}, Watched: nil},
		{Username: "u4", Watchlist: []models.FilmRecord{film("1", "A")}, Watched: nil},
	}

	result := svc.Analyze(usersData)

	require.Len(t, result.Movies, 4)

	var ids []string
	for _, movie := range result.Movies {
		ids = append(ids, movie.ID)
	}

	// Unwatched films first by coverage; then the full-coverage film 1
	// overrides plain ratio ordering against film 4.
	assert.Equal(t, []string{"2", "3", "1", "4"}, ids)

	assert.Equal(t, 2, result.Movies[0].Priority)
	assert.Equal(t, 3, result.Movies[1].Priority)
	assert.Equal(t, 4, result.Movies[2].Priority)
	assert.Equal(t, 6, result.Movies[3].Priority)
}

func TestAnalyzeFullCoverageOverridesZeroWatchedEquality(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeGlobal)

	// Both films unwatched with equal watchlist ratios would tie under the
	// zero-watched rule alone; the 100% coverage rule must still decide.
	usersData := []models.UserFilmData{
		{Username: "u1", Watchlist: []models.FilmRecord{film("9", "Z"), film("8", "Y")}, Watched: nil},
		{Username: "u2", Watchlist: []models.FilmRecord{film("9", "Z"), film("8", "Y")}, Watched: nil},
	}

	result := svc.Analyze(usersData)

	require.Len(t, result.Movies, 2)
	for _, movie := range result.Movies {
		assert.Equal(t, 1, movie.Priority, "full coverage and unwatched must always be priority 1")
	}
}

func TestAnalyzeIdempotence(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeGlobal)

	usersData := []models.UserFilmData{
		{Username: "alice", Watchlist: []models.FilmRecord{film("1", "A"), film("2", "B"), film("3", "C")}, Watched: []string{"2"}},
		{Username: "bob", Watchlist: []models.FilmRecord{film("3", "C"), film("2", "B"), film("5", "E")}, Watched: []string{"1"}},
	}

	first := svc.Analyze(usersData)
	second := svc.Analyze(usersData)

	assert.Equal(t, first, second, "identical input must produce identical output, ordering included")
}

func TestAnalyzeEmptyInput(t *testing.T) {
	svc := analyze.NewService(config.WatchedScopeGlobal)

	result := svc.Analyze(nil)
	assert.Equal(t, 0, result.TotalMovies)
	assert.Equal(t, 0, result.TotalUsers)
	assert.Empty(t, result.Movies)

	result = svc.Analyze([]models.UserFilmData{{Username: "alice"}})
	assert.Equal(t, 0, result.TotalMovies)
	assert.Equal(t, 1, result.TotalUsers)
}
