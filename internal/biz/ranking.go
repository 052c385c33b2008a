package biz

// ComputeRankings assigns ranks over a list already ordered ascending by rating
// with unrated movies first. The movie at index i of n gets rank n-i, so the
// highest rating is ranked 1 and unrated movies take the largest numbers.
func ComputeRankings(ordered []*Movie) []RankAssignment {
	n := len(ordered)
	rankings := make([]RankAssignment, 0, n)
	for i, m := range ordered {
		rankings = append(rankings, RankAssignment{
			MovieID: m.ID,
			Ranking: n - i,
		})
	}
	return rankings
}

// ApplyRankings copies rankings onto the matching movies.
func ApplyRankings(movies []*Movie, rankings []RankAssignment) {
	byID := make(map[uint]int, len(rankings))
	for _, r := range rankings {
		byID[r.MovieID] = r.Ranking
	}
	for _, m := range movies {
		if r, ok := byID[m.ID]; ok {
			ranking := r
			m.Ranking = &ranking
		}
	}
}
