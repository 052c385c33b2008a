package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"movielist/internal/biz"
	"movielist/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultTMDBTimeout = 10 * time.Second
	maxTMDBBodySize    = 4 << 20
)

var (
	errTMDBNotFound = errors.New("tmdb: not found")
	errTMDBRejected = errors.New("tmdb: request rejected")
)

type tmdbClient struct {
	client      *http.Client
	baseURL     string
	imageURL    string
	placeholder string
	token       string
	maxRetries  int
	limiter     *rate.Limiter
	cb          *gobreaker.CircuitBreaker[[]byte]
	log         *log.Helper
}

// tmdbSearchResponse is the body of GET /search/movie
type tmdbSearchResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID            int64  `json:"id"`
		Title         string `json:"title"`
		OriginalTitle string `json:"original_title"`
		ReleaseDate   string `json:"release_date"`
		Overview      string `json:"overview"`
		PosterPath    string `json:"poster_path"`
	} `json:"results"`
	TotalResults int `json:"total_results"`
}

// tmdbMovieDetails is the body of GET /movie/{id}
type tmdbMovieDetails struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
	Overview      string `json:"overview"`
	PosterPath    string `json:"poster_path"`
}

// NewTMDBClient creates a new TMDB API client
func NewTMDBClient(c *conf.TMDB, logger log.Logger) biz.MetadataProvider {
	l := log.NewHelper(logger)

	timeout := c.Timeout.AsDuration()
	if timeout <= 0 {
		timeout = defaultTMDBTimeout
	}

	limit := rate.Inf
	if c.RateLimit > 0 {
		limit = rate.Limit(c.RateLimit)
	}
	burst := int(c.RateBurst)
	if burst <= 0 {
		burst = 1
	}
	retries := int(c.MaxRetries)
	if retries < 0 {
		retries = 0
	}

	if c.Token == "" {
		l.Warn("TOKEN is not set, TMDB requests will be unauthenticated")
	}

	return &tmdbClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(c.Url, "/"),
		imageURL:    strings.TrimRight(c.ImageUrl, "/"),
		placeholder: c.PlaceholderImage,
		token:       c.Token,
		maxRetries:  retries,
		limiter:     rate.NewLimiter(limit, burst),
		cb:          newTMDBBreaker(l),
		log:         l,
	}
}

func newTMDBBreaker(l *log.Helper) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 404s, other 4xx rejections and cancellations do not count as failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errTMDBNotFound) || errors.Is(err, errTMDBRejected) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
}

func (c *tmdbClient) Search(ctx context.Context, query string) ([]*biz.Candidate, error) {
	params := url.Values{}
	params.Set("query", query)

	body, err := c.get(ctx, "/search/movie?"+params.Encode())
	if err != nil {
		return nil, c.wrap(err, fmt.Sprintf("search %q", query))
	}

	var response tmdbSearchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response: %v", biz.ErrMetadataUnavailable, err)
	}

	candidates := make([]*biz.Candidate, 0, len(response.Results))
	for _, r := range response.Results {
		candidates = append(candidates, &biz.Candidate{
			ExternalID:    r.ID,
			Title:         r.Title,
			OriginalTitle: r.OriginalTitle,
			ReleaseDate:   r.ReleaseDate,
			Overview:      r.Overview,
			PosterPath:    r.PosterPath,
		})
	}
	return candidates, nil
}

func (c *tmdbClient) GetDetails(ctx context.Context, externalID int64) (*biz.MovieDetails, error) {
	body, err := c.get(ctx, "/movie/"+strconv.FormatInt(externalID, 10))
	if err != nil {
		if errors.Is(err, errTMDBNotFound) {
			return nil, fmt.Errorf("%w: tmdb id %d", biz.ErrMovieNotFound, externalID)
		}
		return nil, c.wrap(err, fmt.Sprintf("details for %d", externalID))
	}

	var response tmdbMovieDetails
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode details response: %v", biz.ErrMetadataUnavailable, err)
	}

	return &biz.MovieDetails{
		ExternalID:    response.ID,
		OriginalTitle: response.OriginalTitle,
		ReleaseDate:   response.ReleaseDate,
		Overview:      response.Overview,
		PosterPath:    response.PosterPath,
	}, nil
}

// PosterURL joins the image host with posterPath, or returns the placeholder
// image when TMDB has no poster.
func (c *tmdbClient) PosterURL(posterPath string) string {
	if posterPath == "" {
		return c.placeholder
	}
	if !strings.HasPrefix(posterPath, "/") {
		posterPath = "/" + posterPath
	}
	return c.imageURL + posterPath
}

func (c *tmdbClient) wrap(err error, what string) error {
	c.log.Warnf("tmdb request failed (%s): %v", what, err)
	return fmt.Errorf("%w: %s: %v", biz.ErrMetadataUnavailable, what, err)
}

// get fetches path with retries, behind the rate limiter and circuit breaker.
func (c *tmdbClient) get(ctx context.Context, path string) ([]byte, error) {
	var lastErr error

	// Retry logic with linear backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			c.log.Infof("retrying tmdb request %s, attempt %d/%d", path, attempt, c.maxRetries)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.cb.Execute(func() ([]byte, error) {
			return c.doRequest(ctx, path)
		})
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Don't retry what another attempt cannot fix
		if errors.Is(err, errTMDBNotFound) || errors.Is(err, errTMDBRejected) ||
			errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) ||
			ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

func (c *tmdbClient) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errTMDBNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: status %d", errTMDBRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTMDBBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxTMDBBodySize {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", errTMDBRejected, maxTMDBBodySize)
	}
	return body, nil
}
