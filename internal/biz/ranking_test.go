package biz

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rated(id uint, rating float64) *Movie {
	return &Movie{ID: id, Rating: &rating}
}

func unrated(id uint) *Movie {
	return &Movie{ID: id}
}

// sortAscending orders movies the way the store does: unrated first, then by
// rating, then by id.
func sortAscending(movies []*Movie) {
	sort.SliceStable(movies, func(i, j int) bool {
		a, b := movies[i], movies[j]
		switch {
		case a.Rating == nil && b.Rating == nil:
			return a.ID < b.ID
		case a.Rating == nil:
			return true
		case b.Rating == nil:
			return false
		case *a.Rating != *b.Rating:
			return *a.Rating < *b.Rating
		default:
			return a.ID < b.ID
		}
	})
}

func TestComputeRankingsScenario(t *testing.T) {
	a := rated(1, 9.0)
	b := rated(2, 7.5)
	c := unrated(3)
	movies := []*Movie{a, b, c}
	sortAscending(movies)

	require.Equal(t, []*Movie{c, b, a}, movies)

	rankings := ComputeRankings(movies)
	assert.Equal(t, []RankAssignment{
		{MovieID: 3, Ranking: 3},
		{MovieID: 2, Ranking: 2},
		{MovieID: 1, Ranking: 1},
	}, rankings)

	ApplyRankings(movies, rankings)
	assert.Equal(t, 3, *c.Ranking)
	assert.Equal(t, 2, *b.Ranking)
	assert.Equal(t, 1, *a.Ranking)
}

func TestComputeRankingsEmpty(t *testing.T) {
	assert.Empty(t, ComputeRankings(nil))
}

func TestComputeRankingsTiesGetDistinctRanks(t *testing.T) {
	movies := []*Movie{rated(1, 8), rated(2, 8), rated(3, 8)}
	rankings := ComputeRankings(movies)

	seen := map[int]bool{}
	for _, r := range rankings {
		assert.False(t, seen[r.Ranking], "rank %d assigned twice", r.Ranking)
		seen[r.Ranking] = true
	}
	assert.Len(t, seen, 3)
}

func TestComputeRankingsOrderProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		n := rng.Intn(20)
		movies := make([]*Movie, 0, n)
		for i := 0; i < n; i++ {
			id := uint(i + 1)
			if rng.Intn(4) == 0 {
				movies = append(movies, unrated(id))
				continue
			}
			movies = append(movies, rated(id, float64(rng.Intn(21))/2))
		}
		sortAscending(movies)
		ApplyRankings(movies, ComputeRankings(movies))

		for _, x := range movies {
			require.NotNil(t, x.Ranking)
			assert.GreaterOrEqual(t, *x.Ranking, 1)
			assert.LessOrEqual(t, *x.Ranking, n)

			for _, y := range movies {
				if x.Rating != nil && y.Rating != nil && *x.Rating > *y.Rating {
					assert.Less(t, *x.Ranking, *y.Ranking)
				}
				if x.Rating == nil && y.Rating != nil {
					assert.Greater(t, *x.Ranking, *y.Ranking)
				}
			}
		}
	}
}

func TestApplyRankingsIgnoresUnknownMovies(t *testing.T) {
	m := unrated(7)
	ApplyRankings([]*Movie{m}, []RankAssignment{{MovieID: 8, Ranking: 1}})
	assert.Nil(t, m.Ranking)
}
