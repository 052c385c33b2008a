package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movielist/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

const movieCacheTTL = 15 * time.Minute

type movieRepo struct {
	data *Data
	log  *log.Helper
}

// NewMovieRepo creates a new movie repository
func NewMovieRepo(data *Data, logger log.Logger) biz.MovieRepo {
	return &movieRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *movieRepo) ListAll(ctx context.Context) ([]*biz.Movie, error) {
	var dbMovies []Movie
	// Unrated movies first in every dialect, then ascending rating.
	err := r.data.db.WithContext(ctx).
		Order("rating IS NOT NULL").
		Order("rating").
		Order("id").
		Find(&dbMovies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	movies := make([]*biz.Movie, 0, len(dbMovies))
	for i := range dbMovies {
		movies = append(movies, modelToBiz(&dbMovies[i]))
	}
	return movies, nil
}

func (r *movieRepo) GetByID(ctx context.Context, id uint) (*biz.Movie, error) {
	// Try cache first if Redis is available
	if r.data.rdb != nil {
		cached, err := r.data.rdb.Get(ctx, movieCacheKey(id)).Bytes()
		if err == nil {
			var movie biz.Movie
			if err := json.Unmarshal(cached, &movie); err == nil {
				r.log.Debugf("cache hit for movie: %d", id)
				return &movie, nil
			}
		}
	}

	var dbMovie Movie
	if err := r.data.db.WithContext(ctx).First(&dbMovie, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", biz.ErrMovieNotFound, id)
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	movie := modelToBiz(&dbMovie)

	// Cache result if Redis is available
	if r.data.rdb != nil {
		if data, err := json.Marshal(movie); err == nil {
			r.data.rdb.Set(ctx, movieCacheKey(id), data, movieCacheTTL)
		}
	}

	return movie, nil
}

func (r *movieRepo) Create(ctx context.Context, movie *biz.Movie) error {
	dbMovie := &Movie{
		Title:       movie.Title,
		Year:        movie.Year,
		Description: movie.Description,
		ImgURL:      movie.ImgURL,
	}

	if err := r.data.db.WithContext(ctx).Create(dbMovie).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %q", biz.ErrDuplicateTitle, movie.Title)
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}

	movie.ID = dbMovie.ID
	movie.CreatedAt = dbMovie.CreatedAt
	movie.UpdatedAt = dbMovie.UpdatedAt
	return nil
}

func (r *movieRepo) UpdateRating(ctx context.Context, id uint, rating float64, review string) error {
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dbMovie Movie
		if err := tx.First(&dbMovie, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", biz.ErrMovieNotFound, id)
			}
			return err
		}
		return tx.Model(&dbMovie).Updates(map[string]interface{}{
			"rating": rating,
			"review": review,
		}).Error
	})
	if err != nil {
		if errors.Is(err, biz.ErrMovieNotFound) {
			return err
		}
		return fmt.Errorf("failed to update rating: %w", err)
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *movieRepo) UpdateRanking(ctx context.Context, id uint, ranking int) error {
	result := r.data.db.WithContext(ctx).
		Model(&Movie{}).
		Where("id = ?", id).
		UpdateColumn("ranking", ranking)
	if result.Error != nil {
		return fmt.Errorf("failed to update ranking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", biz.ErrMovieNotFound, id)
	}

	r.invalidate(ctx, id)
	return nil
}

// UpdateRankings writes a full recomputation in one transaction. Rows deleted
// since the list was read are skipped.
func (r *movieRepo) UpdateRankings(ctx context.Context, rankings []biz.RankAssignment) error {
	if len(rankings) == 0 {
		return nil
	}

	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rk := range rankings {
			err := tx.Model(&Movie{}).
				Where("id = ?", rk.MovieID).
				UpdateColumn("ranking", rk.Ranking).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update rankings: %w", err)
	}

	ids := make([]uint, 0, len(rankings))
	for _, rk := range rankings {
		ids = append(ids, rk.MovieID)
	}
	r.invalidate(ctx, ids...)
	return nil
}

func (r *movieRepo) Delete(ctx context.Context, id uint) error {
	result := r.data.db.WithContext(ctx).Delete(&Movie{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete movie: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", biz.ErrMovieNotFound, id)
	}

	r.invalidate(ctx, id)
	return nil
}

// invalidate drops cached movies if Redis is available
func (r *movieRepo) invalidate(ctx context.Context, ids ...uint) {
	if r.data.rdb == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, movieCacheKey(id))
	}
	if err := r.data.rdb.Del(ctx, keys...).Err(); err != nil {
		r.log.Warnf("failed to invalidate movie cache: %v", err)
	}
}

func movieCacheKey(id uint) string {
	return fmt.Sprintf("movie:%d", id)
}

// Helper: Convert data.Movie to biz.Movie
func modelToBiz(m *Movie) *biz.Movie {
	return &biz.Movie{
		ID:          m.ID,
		Title:       m.Title,
		Year:        m.Year,
		Description: m.Description,
		Rating:      m.Rating,
		Ranking:     m.Ranking,
		Review:      m.Review,
		ImgURL:      m.ImgURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
