package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"movielist/internal/biz"
	"movielist/internal/conf"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewMovieListService)

const (
	OperationMovieListListMovies  = "/movielist.v1.MovieList/ListMovies"
	OperationMovieListAddForm     = "/movielist.v1.MovieList/AddForm"
	OperationMovieListSearchMovie = "/movielist.v1.MovieList/SearchMovie"
	OperationMovieListSelectMovie = "/movielist.v1.MovieList/SelectMovie"
	OperationMovieListEditForm    = "/movielist.v1.MovieList/EditForm"
	OperationMovieListRateMovie   = "/movielist.v1.MovieList/RateMovie"
	OperationMovieListDeleteMovie = "/movielist.v1.MovieList/DeleteMovie"
)

// Renderer writes an HTML page.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data interface{}) error
}

type listPage struct {
	Title  string
	Movies []*biz.Movie
}

type addPage struct {
	Title     string
	Query     string
	CSRFToken string
	Errors    []string
}

type selectPage struct {
	Title      string
	Query      string
	Candidates []*biz.Candidate
}

type editPage struct {
	Title     string
	Movie     *biz.Movie
	Rating    string
	Review    string
	CSRFToken string
	Errors    []string
}

// MovieListService serves the movie list web pages
type MovieListService struct {
	movieUC  *biz.MovieUseCase
	renderer Renderer
	forms    *formValidator
	log      *log.Helper
}

// NewMovieListService creates a new MovieListService
func NewMovieListService(movieUC *biz.MovieUseCase, renderer Renderer, c *conf.Server, logger log.Logger) (*MovieListService, error) {
	forms, err := newFormValidator(c.SecretKey)
	if err != nil {
		return nil, err
	}
	if c.SecretKey == "" {
		log.NewHelper(logger).Warn("server.secret_key is not set, form tokens will not survive a restart")
	}
	return &MovieListService{
		movieUC:  movieUC,
		renderer: renderer,
		forms:    forms,
		log:      log.NewHelper(logger),
	}, nil
}

// RegisterHTTPRoutes binds every page handler to its path and method.
func (s *MovieListService) RegisterHTTPRoutes(srv *khttp.Server) {
	r := srv.Route("/")
	r.GET("/", s.ListMovies)
	r.GET("/add", s.AddForm)
	r.POST("/add", s.SearchMovie)
	r.GET("/select", s.SelectMovie)
	r.GET("/edit", s.EditForm)
	r.POST("/edit", s.RateMovie)
	r.GET("/delete", s.DeleteMovie)
}

// ListMovies renders every movie with freshly computed rankings
func (s *MovieListService) ListMovies(ctx khttp.Context) error {
	return s.handle(ctx, OperationMovieListListMovies, nil, func(c context.Context) error {
		movies, err := s.movieUC.ListRanked(c)
		if err != nil {
			return toServiceError(err)
		}
		return s.render(ctx, http.StatusOK, "index.html", &listPage{
			Title:  "My Top Movies",
			Movies: movies,
		})
	})
}

// AddForm renders the empty search form
func (s *MovieListService) AddForm(ctx khttp.Context) error {
	return s.handle(ctx, OperationMovieListAddForm, nil, func(c context.Context) error {
		return s.render(ctx, http.StatusOK, "add.html", &addPage{
			Title:     "Add Movie",
			CSRFToken: s.forms.Token(),
		})
	})
}

// SearchMovie queries the metadata provider and lists the candidates
func (s *MovieListService) SearchMovie(ctx khttp.Context) error {
	return s.handle(ctx, OperationMovieListSearchMovie, nil, func(c context.Context) error {
		var form movieForm
		if err := ctx.BindForm(&form); err != nil {
			return err
		}
		if msgs := s.forms.Check(&form, form.CSRFToken); len(msgs) > 0 {
			return s.renderAddForm(ctx, form.Movie, msgs)
		}
		candidates, err := s.movieUC.Search(c, form.Movie)
		if err != nil {
			if errors.Is(err, biz.ErrInvalidQuery) {
				return s.renderAddForm(ctx, form.Movie, []string{"Movie Title is required."})
			}
			return toServiceError(err)
		}
		return s.render(ctx, http.StatusOK, "select.html", &selectPage{
			Title:      "Select Movie",
			Query:      form.Movie,
			Candidates: candidates,
		})
	})
}

// SelectMovie stores the chosen provider title and continues to its rating form
func (s *MovieListService) SelectMovie(ctx khttp.Context) error {
	return s.handle(ctx, OperationMovieListSelectMovie, ctx.Query(), func(c context.Context) error {
		externalID, err := strconv.ParseInt(ctx.Query().Get("id"), 10, 64)
		if err != nil || externalID <= 0 {
			return errors.NotFound("MOVIE_NOT_FOUND", "unknown movie id")
		}
		movie, err := s.movieUC.AddFromProvider(c, externalID)
		if err != nil {
			return toServiceError(err)
		}
		return s.redirect(ctx, fmt.Sprintf("/edit?id=%d", movie.ID))
	})
}

// EditForm renders the rating form for a stored movie
func (s *MovieListService) EditForm(ctx khttp.Context) error {
	return s.handle(ctx, OperationMovieListEditForm, ctx.Query(), func(c context.Context) error {
		movie, err := s.lookup(c, ctx)
		if err != nil {
			return err
		}

		page := &editPage{
			Title:     movie.Title,
			Movie:     movie,
			CSRFToken: s.forms.Token(),
		}
		if movie.Rating != nil {
			page.Rating = strconv.FormatFloat(*movie.Rating, 'f', -1, 64)
		}
		if movie.Review != nil {
			page.Review = *movie.Review
		}
		return s.render(ctx, http.StatusOK, "edit.html", page)
	})
}

// RateMovie saves rating and review, then returns to the list
func (s *MovieListService) RateMovie(ctx khttp.Context) error {
	return s.handle(ctx, OperationMovieListRateMovie, ctx.Query(), func(c context.Context) error {
		movie, err := s.lookup(c, ctx)
		if err != nil {
			return err
		}
		var form ratingForm
		if err := ctx.BindForm(&form); err != nil {
			return err
		}
		if msgs := s.forms.Check(&form, form.CSRFToken); len(msgs) > 0 {
			return s.renderEditForm(ctx, movie, &form, msgs)
		}
		if _, err := s.movieUC.RateMovie(c, movie.ID, form.Rating, form.Review); err != nil {
			if errors.Is(err, biz.ErrInvalidRating) {
				return s.renderEditForm(ctx, movie, &form, []string{"Your Rating must be a number from 0 to 10 and Your Review is required."})
			}
			return toServiceError(err)
		}
		return s.redirect(ctx, "/")
	})
}

// DeleteMovie removes a movie and returns to the list
func (s *MovieListService) DeleteMovie(ctx khttp.Context) error {
	return s.handle(ctx, OperationMovieListDeleteMovie, ctx.Query(), func(c context.Context) error {
		id, err := movieID(ctx)
		if err != nil {
			return err
		}
		if err := s.movieUC.DeleteMovie(c, id); err != nil {
			return toServiceError(err)
		}
		return s.redirect(ctx, "/")
	})
}

// handle runs fn behind the server middleware chain under operation.
func (s *MovieListService) handle(ctx khttp.Context, operation string, req interface{}, fn func(context.Context) error) error {
	khttp.SetOperation(ctx, operation)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return nil, fn(c)
	})
	_, err := h(ctx, req)
	return err
}

func (s *MovieListService) lookup(c context.Context, ctx khttp.Context) (*biz.Movie, error) {
	id, err := movieID(ctx)
	if err != nil {
		return nil, err
	}
	movie, err := s.movieUC.GetMovie(c, id)
	if err != nil {
		return nil, toServiceError(err)
	}
	return movie, nil
}

func (s *MovieListService) renderAddForm(ctx khttp.Context, query string, msgs []string) error {
	return s.render(ctx, http.StatusUnprocessableEntity, "add.html", &addPage{
		Title:     "Add Movie",
		Query:     query,
		CSRFToken: s.forms.Token(),
		Errors:    msgs,
	})
}

func (s *MovieListService) renderEditForm(ctx khttp.Context, movie *biz.Movie, form *ratingForm, msgs []string) error {
	return s.render(ctx, http.StatusUnprocessableEntity, "edit.html", &editPage{
		Title:     movie.Title,
		Movie:     movie,
		Rating:    form.Rating,
		Review:    form.Review,
		CSRFToken: s.forms.Token(),
		Errors:    msgs,
	})
}

func (s *MovieListService) render(ctx khttp.Context, status int, name string, data interface{}) error {
	if err := s.renderer.Render(ctx.Response(), status, name, data); err != nil {
		s.log.Errorf("render %s: %v", name, err)
		return errors.InternalServer("RENDER_FAILED", "failed to render page")
	}
	return nil
}

func (s *MovieListService) redirect(ctx khttp.Context, location string) error {
	http.Redirect(ctx.Response(), ctx.Request(), location, http.StatusFound)
	return nil
}

// movieID reads the "id" query parameter; missing or malformed ids are not found.
func movieID(ctx khttp.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Query().Get("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, errors.NotFound("MOVIE_NOT_FOUND", "unknown movie id")
	}
	return uint(id), nil
}

// toServiceError converts biz errors to kratos errors with HTTP status codes
func toServiceError(err error) error {
	var se *errors.Error
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, biz.ErrMovieNotFound):
		return errors.NotFound("MOVIE_NOT_FOUND", "movie not found").WithCause(err)
	case errors.Is(err, biz.ErrDuplicateTitle):
		return errors.Conflict("DUPLICATE_TITLE", "this movie is already on your list").WithCause(err)
	case errors.Is(err, biz.ErrMetadataUnavailable):
		return errors.ServiceUnavailable("METADATA_UNAVAILABLE", "the movie database is unavailable, please try again later").WithCause(err)
	case errors.Is(err, biz.ErrIncompleteMetadata):
		return errors.New(http.StatusUnprocessableEntity, "INCOMPLETE_METADATA", "the movie database has incomplete details for this title").WithCause(err)
	default:
		return errors.InternalServer("INTERNAL", "something went wrong").WithCause(err)
	}
}
