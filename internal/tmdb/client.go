// Package tmdb клиент The Movie Database API для импорта метаданных фильмов.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/config"
	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

var (
	ErrNotConfigured = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("movie not found on TMDB")
	ErrUnavailable   = errors.New("TMDB is unavailable")

	errAborted = errors.New("request aborted by caller")
)

const (
	cacheSize = 256
	cacheTTL  = time.Hour
	// TMDB допускает около 40 запросов в секунду
	requestsPerSecond = 20
	burst             = 10
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[any]
	cache      *lru.LRU[string, []byte]
	metrics    *metrics.Metrics
}

func NewClient(cfg config.TMDBConfig, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		breaker: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    "tmdb",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// Отмена запроса вызывающей стороной не говорит о состоянии TMDB
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, errAborted)
			},
		}),
		cache:   lru.NewLRU[string, []byte](cacheSize, nil, cacheTTL),
		metrics: m,
	}
}

// FindByIMDbID возвращает TMDB id фильма по IMDb id (tt...)
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string) (int, error) {
	var resp findResponse
	err := c.get(ctx, "find", "/find/"+url.PathEscape(imdbID), url.Values{"external_source": {"imdb_id"}}, &resp)
	if err != nil {
		return 0, err
	}

	if len(resp.MovieResults) == 0 {
		return 0, ErrNotFound
	}

	return resp.MovieResults[0].ID, nil
}

// MovieDetails карточка фильма вместе с актёрами и датами релизов
func (c *Client) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	err := c.get(ctx, "movie", "/movie/"+strconv.Itoa(id), url.Values{"append_to_response": {"credits,release_dates"}}, &details)
	if err != nil {
		return nil, err
	}

	return &details, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	// Ключ кэша без api_key
	cacheKey := path + "?" + query.Encode()
	if body, ok := c.cache.Get(cacheKey); ok {
		c.metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "cache").Inc()
		return json.Unmarshal(body, out)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	res, err := c.breaker.Execute(func() (any, error) {
		body, err := c.fetch(ctx, path, query)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errAborted, err)
		}
		return body, err
	})
	if err != nil {
		c.metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		if errors.Is(err, ErrNotFound) || errors.Is(err, errAborted) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	body := res.([]byte)
	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("failed to decode TMDB response: %w", err)
	}

	c.metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	c.cache.Add(cacheKey, body)
	return nil
}

func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
