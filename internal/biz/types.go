package biz

import (
	"context"
	"time"
)

// Movie domain model
type Movie struct {
	ID          uint
	Title       string
	Year        int
	Description string
	Rating      *float64
	Ranking     *int
	Review      *string
	ImgURL      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RankAssignment is one entry of a ranking recomputation
type RankAssignment struct {
	MovieID uint
	Ranking int
}

// Candidate is a search hit from the metadata provider
type Candidate struct {
	ExternalID    int64
	Title         string
	OriginalTitle string
	ReleaseDate   string
	Overview      string
	PosterPath    string
}

// Year returns the release year as shown in the candidate list.
func (c *Candidate) Year() string {
	year, _ := splitYear(c.ReleaseDate)
	return year
}

// MovieDetails is the detail record from the metadata provider
type MovieDetails struct {
	ExternalID    int64
	OriginalTitle string
	ReleaseDate   string
	Overview      string
	PosterPath    string
}

// MovieRepo defines the repository interface for movies
type MovieRepo interface {
	ListAll(ctx context.Context) ([]*Movie, error)
	GetByID(ctx context.Context, id uint) (*Movie, error)
	Create(ctx context.Context, movie *Movie) error
	UpdateRating(ctx context.Context, id uint, rating float64, review string) error
	UpdateRanking(ctx context.Context, id uint, ranking int) error
	UpdateRankings(ctx context.Context, rankings []RankAssignment) error
	Delete(ctx context.Context, id uint) error
}

// MetadataProvider defines the interface for the external movie database
type MetadataProvider interface {
	Search(ctx context.Context, query string) ([]*Candidate, error)
	GetDetails(ctx context.Context, externalID int64) (*MovieDetails, error)
	PosterURL(posterPath string) string
}
