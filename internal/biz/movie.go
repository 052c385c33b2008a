package biz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewMovieUseCase)

// Custom errors
var (
	ErrMovieNotFound       = errors.New("movie not found")
	ErrDuplicateTitle      = errors.New("movie title already exists")
	ErrMetadataUnavailable = errors.New("metadata provider unavailable")
	ErrIncompleteMetadata  = errors.New("incomplete movie metadata")
	ErrInvalidRating       = errors.New("invalid rating")
	ErrInvalidQuery        = errors.New("invalid search query")
)

const (
	minRating = 0
	maxRating = 10
)

// MovieUseCase handles movie-related business logic
type MovieUseCase struct {
	repo     MovieRepo
	provider MetadataProvider
	log      *log.Helper
}

// NewMovieUseCase creates a new MovieUseCase instance
func NewMovieUseCase(repo MovieRepo, provider MetadataProvider, logger log.Logger) *MovieUseCase {
	return &MovieUseCase{
		repo:     repo,
		provider: provider,
		log:      log.NewHelper(logger),
	}
}

// ListRanked returns every movie with a freshly computed and persisted ranking.
func (uc *MovieUseCase) ListRanked(ctx context.Context) ([]*Movie, error) {
	movies, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	rankings := ComputeRankings(movies)
	if err := uc.repo.UpdateRankings(ctx, rankings); err != nil {
		return nil, fmt.Errorf("failed to save rankings: %w", err)
	}
	ApplyRankings(movies, rankings)

	return movies, nil
}

// Search queries the metadata provider for candidate titles. Nothing is stored.
func (uc *MovieUseCase) Search(ctx context.Context, query string) ([]*Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	candidates, err := uc.provider.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}
	return candidates, nil
}

// AddFromProvider fetches details for externalID and stores a new, unrated movie.
func (uc *MovieUseCase) AddFromProvider(ctx context.Context, externalID int64) (*Movie, error) {
	details, err := uc.provider.GetDetails(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie details: %w", err)
	}

	if strings.TrimSpace(details.OriginalTitle) == "" {
		return nil, fmt.Errorf("%w: missing title for external id %d", ErrIncompleteMetadata, externalID)
	}

	_, year := splitYear(details.ReleaseDate)
	if year == 0 {
		return nil, fmt.Errorf("%w: release date %q for %q", ErrIncompleteMetadata, details.ReleaseDate, details.OriginalTitle)
	}

	movie := &Movie{
		Title:       details.OriginalTitle,
		Year:        year,
		Description: details.Overview,
		ImgURL:      uc.provider.PosterURL(details.PosterPath),
	}

	if err := uc.repo.Create(ctx, movie); err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}

	uc.log.Infof("added movie %d %q (%d)", movie.ID, movie.Title, movie.Year)
	return movie, nil
}

// GetMovie retrieves a movie by its id
func (uc *MovieUseCase) GetMovie(ctx context.Context, id uint) (*Movie, error) {
	movie, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return movie, nil
}

// RateMovie sets rating and review. The rating text must be a decimal in [0, 10].
func (uc *MovieUseCase) RateMovie(ctx context.Context, id uint, ratingText, review string) (*Movie, error) {
	rating, err := ParseRating(ratingText)
	if err != nil {
		return nil, err
	}
	review = strings.TrimSpace(review)
	if review == "" {
		return nil, fmt.Errorf("%w: review is required", ErrInvalidRating)
	}

	if err := uc.repo.UpdateRating(ctx, id, rating, review); err != nil {
		return nil, fmt.Errorf("failed to rate movie: %w", err)
	}

	movie, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return movie, nil
}

// DeleteMovie removes a movie by its id
func (uc *MovieUseCase) DeleteMovie(ctx context.Context, id uint) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	uc.log.Infof("deleted movie %d", id)
	return nil
}

// ParseRating parses user input such as "7.5".
func ParseRating(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: rating is required", ErrInvalidRating)
	}
	rating, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(rating) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidRating, text)
	}
	if rating < minRating || rating > maxRating {
		return 0, fmt.Errorf("%w: %v is outside %d-%d", ErrInvalidRating, rating, minRating, maxRating)
	}
	return rating, nil
}

// splitYear takes the part of a release date before the first "-".
func splitYear(releaseDate string) (string, int) {
	head, _, _ := strings.Cut(strings.TrimSpace(releaseDate), "-")
	year, err := strconv.Atoi(head)
	if err != nil || year <= 0 {
		return head, 0
	}
	return head, year
}
