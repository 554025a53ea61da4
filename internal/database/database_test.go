package database_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"letterwatch/internal/database"
	"letterwatch/models"
)

func setupDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewDB(database.Config{
		DatabasePath: filepath.Join(t.TempDir(), "letterwatch.db"),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestUserCacheRoundTrip(t *testing.T) {
	db := setupDB(t)

	entry, err := db.Cache.GetUserData("alice")
	require.NoError(t, err)
	require.Nil(t, entry, "expected cache miss for unknown user")

	data := models.UserFilmData{
		Username: "alice",
		Watchlist: []models.FilmRecord{
			{ID: "42", Slug: "the-thing", Title: "The Thing"},
		},
		Watched: []string{"7"},
	}
	require.NoError(t, db.Cache.PutUserData("alice", data))

	entry, err = db.Cache.GetUserData("alice")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, "alice", entry.Key)
	require.Equal(t, data, entry.Value)
	require.Less(t, entry.Age(), time.Minute)
}

func TestUserCacheReplaceAndDelete(t *testing.T) {
	db := setupDB(t)

	first := models.UserFilmData{Username: "bob", Watchlist: []models.FilmRecord{{ID: "1", Slug: "a", Title: "A"}}, Watched: []string{}}
	require.NoError(t, db.Cache.PutUserData("bob", first))

	second := models.UserFilmData{Username: "bob", Watchlist: []models.FilmRecord{{ID: "2", Slug: "b", Title: "B"}}, Watched: []string{"1"}}
	require.NoError(t, db.Cache.PutUserData("bob", second))

	entry, err := db.Cache.GetUserData("bob")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, second, entry.Value, "entries are replaced wholesale")

	require.NoError(t, db.Cache.DeleteUserData("bob"))

	entry, err = db.Cache.GetUserData("bob")
	require.NoError(t, err)
	require.Nil(t, entry, "expected no entry after delete")

	// Deleting again must not error.
	require.NoError(t, db.Cache.DeleteUserData("bob"))
}

func TestPosterCacheRoundTrip(t *testing.T) {
	db := setupDB(t)

	entry, err := db.Cache.GetPoster("the-thing")
	require.NoError(t, err)
	require.Nil(t, entry)

	require.NoError(t, db.Cache.PutPoster("the-thing", "https://example.com/poster.jpg"))

	entry, err = db.Cache.GetPoster("the-thing")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, "https://example.com/poster.jpg", entry.Value)

	require.NoError(t, db.Cache.DeletePoster("the-thing"))

	entry, err = db.Cache.GetPoster("the-thing")
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestGroupLifecycle(t *testing.T) {
	db := setupDB(t)

	groups, err := db.Groups.List()
	require.NoError(t, err)
	require.Empty(t, groups)

	created, err := db.Groups.Create("movie night", []string{"alice", "bob"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := db.Groups.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, "movie night", fetched.Name)
	require.Equal(t, []string{"alice", "bob"}, fetched.Users)

	groups, err = db.Groups.List()
	require.NoError(t, err)
	require.Len(t, groups, 1)

	require.NoError(t, db.Groups.Delete(created.ID))

	_, err = db.Groups.Get(created.ID)
	require.ErrorIs(t, err, database.ErrGroupNotFound)

	require.ErrorIs(t, db.Groups.Delete(created.ID), database.ErrGroupNotFound)
}
