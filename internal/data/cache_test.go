package data

import (
	"context"
	"path/filepath"
	"testing"

	"movielist/internal/biz"
	"movielist/internal/conf"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCachedTestRepo opens a sqlite file backed by an in-memory Redis.
func newCachedTestRepo(t *testing.T) (biz.MovieRepo, *Data, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	d, cleanup, err := NewData(&conf.Data{
		Database: &conf.Database{
			Driver: "sqlite",
			Source: filepath.Join(t.TempDir(), "movies.db"),
		},
		Redis: &conf.Redis{Addr: mr.Addr()},
	}, log.DefaultLogger)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	require.NotNil(t, d.rdb)

	return NewMovieRepo(d, log.DefaultLogger), d, mr
}

func TestGetByIDCachesMovie(t *testing.T) {
	repo, d, mr := newCachedTestRepo(t)
	ctx := context.Background()
	m := createMovie(t, repo, "Heat")
	key := movieCacheKey(m.ID)

	assert.False(t, mr.Exists(key))
	_, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, movieCacheTTL, mr.TTL(key))

	// a second read is served from the cache
	require.NoError(t, d.db.Model(&Movie{}).Where("id = ?", m.ID).UpdateColumn("title", "Changed").Error)
	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Heat", got.Title)
}

func TestMutationsInvalidateCache(t *testing.T) {
	repo, _, mr := newCachedTestRepo(t)
	ctx := context.Background()
	m := createMovie(t, repo, "Heat")
	other := createMovie(t, repo, "Ronin")
	key := movieCacheKey(m.ID)

	warm := func() {
		t.Helper()
		_, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		_, err = repo.GetByID(ctx, other.ID)
		require.NoError(t, err)
		require.True(t, mr.Exists(key))
	}

	warm()
	require.NoError(t, repo.UpdateRating(ctx, m.ID, 8, "Tense."))
	assert.False(t, mr.Exists(key))
	assert.True(t, mr.Exists(movieCacheKey(other.ID)))
	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 8.0, *got.Rating)

	warm()
	require.NoError(t, repo.UpdateRanking(ctx, m.ID, 4))
	assert.False(t, mr.Exists(key))

	warm()
	require.NoError(t, repo.UpdateRankings(ctx, []biz.RankAssignment{
		{MovieID: m.ID, Ranking: 1},
		{MovieID: other.ID, Ranking: 2},
	}))
	assert.Empty(t, mr.Keys())

	warm()
	require.NoError(t, repo.Delete(ctx, m.ID))
	assert.False(t, mr.Exists(key))
	_, err = repo.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, biz.ErrMovieNotFound)
}

func TestCachedReadSeesFreshRanking(t *testing.T) {
	repo, _, _ := newCachedTestRepo(t)
	ctx := context.Background()
	uc := biz.NewMovieUseCase(repo, nil, log.DefaultLogger)

	best := createMovie(t, repo, "Heat")
	worst := createMovie(t, repo, "Ronin")
	require.NoError(t, repo.UpdateRating(ctx, best.ID, 9, "a"))
	require.NoError(t, repo.UpdateRating(ctx, worst.ID, 5, "b"))

	// cache both before any ranking exists
	for _, id := range []uint{best.ID, worst.ID} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got.Ranking)
	}

	_, err := uc.ListRanked(ctx)
	require.NoError(t, err)

	for id, want := range map[uint]int{best.ID: 1, worst.ID: 2} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got.Ranking)
		assert.Equal(t, want, *got.Ranking)
	}
}
