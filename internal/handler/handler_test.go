package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/analytics"
	"github.com/SergeiKhy/cinema-lines/internal/handler"
	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/SergeiKhy/cinema-lines/internal/middleware"
	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/SergeiKhy/cinema-lines/internal/service"
	"github.com/SergeiKhy/cinema-lines/internal/service/mocks"
	"github.com/SergeiKhy/cinema-lines/internal/tmdb"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "secret-key"

// testEnv роутер поверх моковых репозиториев
type testEnv struct {
	router   *gin.Engine
	movies   *mocks.MockMovieRepository
	counters *mocks.MockCounterRepository
	source   *mocks.MockMetadataSource
}

type envOption func(*handler.RouterDeps)

func withAPIKeys(keys map[string]string) envOption {
	return func(d *handler.RouterDeps) { d.APIKeys = keys }
}

func withChecks(checks map[string]handler.Pinger) envOption {
	return func(d *handler.RouterDeps) { d.Checks = checks }
}

func withRateLimiter(rl *middleware.RateLimiter) envOption {
	return func(d *handler.RouterDeps) { d.RateLimiter = rl }
}

func fixture() []models.Movie {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Movie{
		{ID: "1", Slug: "heat", Title: "Heat", Year: 1995, Director: "Michael Mann", Rating: 9.5, Genres: []string{"Crime", "Thriller"}, CreatedAt: base},
		{ID: "2", Slug: "collateral", Title: "Collateral", Year: 2004, Director: "Michael Mann", Rating: 8.5, Genres: []string{"Crime", "Thriller"}, CreatedAt: base.Add(time.Hour)},
		{ID: "3", Slug: "cats", Title: "Cats", Year: 2019, Director: "Tom Hooper", Rating: 2, Genres: []string{"Musical"}, CreatedAt: base.Add(2 * time.Hour)},
	}
}

func setupEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	m := metrics.New()

	movies := mocks.NewMockMovieRepository(fixture()...)
	counters := mocks.NewMockCounterRepository()
	source := &mocks.MockMetadataSource{}

	processor := service.NewPageViewProcessor(counters, service.ProcessorConfig{Workers: 1, BufferSize: 16}, logger, m)
	processor.Start()
	t.Cleanup(processor.Stop)

	deps := handler.RouterDeps{
		Movies:     service.NewMovieService(movies, mocks.NewMockCacheRepository(), time.Hour, logger, m),
		Processor:  processor,
		Reports:    service.NewReportService(analytics.NewAggregator(counters), movies, false, logger, m),
		Importer:   service.NewImportService(source, &mocks.MockPosterStore{BaseURL: "https://cdn.example.com"}, "https://image.tmdb.org/t/p/original", logger),
		APIKeys:    map[string]string{testAPIKey: "editor"},
		GeoHeaders: []string{"X-Vercel-IP-Country", "CF-IPCountry"},
		Metrics:    m,
		Logger:     logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{
		router:   handler.NewRouter(deps),
		movies:   movies,
		counters: counters,
		source:   source,
	}
}

// do выполняет запрос; body сериализуется в JSON, если не nil
func (env *testEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeMovies(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var movies []models.Movie
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &movies))
	slugs := make([]string, 0, len(movies))
	for _, m := range movies {
		slugs = append(slugs, m.Slug)
	}
	return slugs
}

// TestHealthCheck проверяет liveness
func TestHealthCheck(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "cinema-lines", resp["service"])
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// TestReady проверяет readiness с недоступной зависимостью
func TestReady(t *testing.T) {
	env := setupEnv(t, withChecks(map[string]handler.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return nil }),
		"redis":    pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	}))

	w := env.do("GET", "/api/ready", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ok", resp.Checks["postgres"])
	assert.Equal(t, "connection refused", resp.Checks["redis"])
}

// TestListMovies проверяет фильтры и сортировку библиотеки
func TestListMovies(t *testing.T) {
	env := setupEnv(t)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "по дате добавления", query: "", expected: []string{"cats", "collateral", "heat"}},
		{name: "по рейтингу", query: "?sort=rating", expected: []string{"heat", "collateral", "cats"}},
		{name: "по алфавиту", query: "?sort=alphabetical", expected: []string{"cats", "collateral", "heat"}},
		{name: "по жанру", query: "?genre=Crime&sort=year", expected: []string{"collateral", "heat"}},
		{name: "поиск по режиссёру", query: "?search=mann&sort=alphabetical", expected: []string{"collateral", "heat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("GET", "/api/movies"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expected, decodeMovies(t, w))
		})
	}

	w := env.do("GET", "/api/movies?sort=random", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_sort", decodeError(t, w).Error)
}

// TestGetMovie проверяет получение фильма и 404
func TestGetMovie(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/movies/heat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var movie models.Movie
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &movie))
	assert.Equal(t, "Heat", movie.Title)

	w = env.do("GET", "/api/movies/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error)
}

// TestRankings проверяет top/flop и валидацию направления
func TestRankings(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/rankings/top?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"heat", "collateral"}, decodeMovies(t, w))

	w = env.do("GET", "/api/rankings/flop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"cats", "collateral", "heat"}, decodeMovies(t, w))

	w = env.do("GET", "/api/rankings/middle", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_direction", decodeError(t, w).Error)

	w = env.do("GET", "/api/rankings/top?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_limit", decodeError(t, w).Error)
}

// TestSimilar проверяет похожие фильмы
func TestSimilar(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/movies/heat/similar?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"collateral"}, decodeMovies(t, w))

	w = env.do("GET", "/api/movies/missing/similar", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestCreateMovie проверяет аутентификацию и валидацию при создании
func TestCreateMovie(t *testing.T) {
	env := setupEnv(t)

	tests := []struct {
		name           string
		body           map[string]any
		headers        []string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "без API ключа",
			body:           map[string]any{"title": "Alien", "rating": 9},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "missing_api_key",
		},
		{
			name:           "невалидный ключ",
			body:           map[string]any{"title": "Alien", "rating": 9},
			headers:        []string{"X-API-Key", "wrong"},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid_api_key",
		},
		{
			name:           "без названия",
			body:           map[string]any{"rating": 9},
			headers:        []string{"X-API-Key", testAPIKey},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_request",
		},
		{
			name:           "невалидный slug",
			body:           map[string]any{"title": "Alien", "slug": "Alien 1979", "rating": 9},
			headers:        []string{"X-API-Key", testAPIKey},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_request",
		},
		{
			name:           "рейтинг вне диапазона",
			body:           map[string]any{"title": "Alien", "rating": 11},
			headers:        []string{"X-API-Key", testAPIKey},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_request",
		},
		{
			name:           "занятый slug",
			body:           map[string]any{"title": "Heat", "rating": 9},
			headers:        []string{"Authorization", "Bearer " + testAPIKey},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "slug_exists",
		},
		{
			name:           "успешное создание",
			body:           map[string]any{"title": "Alien", "rating": 9, "genres": []string{"Horror"}},
			headers:        []string{"X-API-Key", testAPIKey},
			expectedStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/api/movies", tt.body, tt.headers...)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w).Error)
			}
		})
	}

	movie, err := env.movies.GetBySlug(context.Background(), "alien")
	require.NoError(t, err)
	assert.NotEmpty(t, movie.ID)
}

// TestUpdateMovie проверяет частичное обновление
func TestUpdateMovie(t *testing.T) {
	env := setupEnv(t)

	w := env.do("PUT", "/api/movies/cats", map[string]any{"rating": 3.5}, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)

	var movie models.Movie
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &movie))
	assert.Equal(t, 3.5, movie.Rating)
	assert.Equal(t, "Cats", movie.Title)
	assert.Equal(t, "3", movie.ID)
	assert.NotNil(t, movie.UpdatedAt)

	w = env.do("PUT", "/api/movies/missing", map[string]any{"rating": 5}, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("PUT", "/api/movies/cats", map[string]any{"rating": -1}, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestDeleteMovie проверяет удаление и повторное удаление
func TestDeleteMovie(t *testing.T) {
	env := setupEnv(t)

	w := env.do("DELETE", "/api/movies/cats", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("DELETE", "/api/movies/cats", nil, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("DELETE", "/api/movies/cats", nil, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestAdminDisabledWithoutKeys проверяет, что без ключей админка закрыта
func TestAdminDisabledWithoutKeys(t *testing.T) {
	env := setupEnv(t, withAPIKeys(nil))

	w := env.do("GET", "/api/admin/analytics", nil, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do("POST", "/api/movies", map[string]any{"title": "Alien"}, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Публичные эндпоинты работают
	w = env.do("GET", "/api/movies", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestTrack проверяет приём просмотров
func TestTrack(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/analytics/track", map[string]string{"path": "/movies/heat"}, "CF-IPCountry", "nl")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	select {
	case <-env.counters.Recorded():
	case <-time.After(2 * time.Second):
		t.Fatal("просмотр не записан")
	}
	views := env.counters.Views()
	require.Len(t, views, 1)
	assert.Equal(t, "/movies/heat", views[0].Path)
	assert.Equal(t, "NL", views[0].Country)
}

// TestTrack_SkippedAndInvalid проверяет служебные пути и пустой path
func TestTrack_SkippedAndInvalid(t *testing.T) {
	env := setupEnv(t)

	for _, path := range []string{"/admin/analytics", "/api/movies"} {
		w := env.do("POST", "/api/analytics/track", map[string]string{"path": path})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"skipped":true}`, w.Body.String())
	}

	w := env.do("POST", "/api/analytics/track", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "path_required", decodeError(t, w).Error)

	req, _ := http.NewRequest("POST", "/api/analytics/track", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, env.counters.Views())
}

// TestTrack_RateLimited проверяет ограничение частоты по IP
func TestTrack_RateLimited(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(rl.Stop)
	env := setupEnv(t, withRateLimiter(rl))

	body := map[string]string{"path": "/admin"}
	assert.Equal(t, http.StatusOK, env.do("POST", "/api/analytics/track", body).Code)
	assert.Equal(t, http.StatusOK, env.do("POST", "/api/analytics/track", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do("POST", "/api/analytics/track", body).Code)

	// Health не ограничивается
	assert.Equal(t, http.StatusOK, env.do("GET", "/api/health", nil).Code)
}

// TestAnalyticsReport проверяет окно по умолчанию и ошибки
func TestAnalyticsReport(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/admin/analytics", nil, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	var report models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "30", report.Window)
	assert.Len(t, report.Traffic, 30)
	assert.False(t, report.Simulated)
	assert.Equal(t, "Crime", report.KPIs.TopGenre)

	w = env.do("GET", "/api/admin/analytics?days=all", nil, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "all", report.Window)
	assert.Len(t, report.Traffic, 31)

	for _, days := range []string{"0", "-5", "week"} {
		w = env.do("GET", "/api/admin/analytics?days="+days, nil, "X-API-Key", testAPIKey)
		assert.Equal(t, http.StatusBadRequest, w.Code, "days=%s", days)
		assert.Equal(t, "invalid_window", decodeError(t, w).Error)
	}

	env.counters.Err = errors.New("connection refused")
	w = env.do("GET", "/api/admin/analytics?days=7", nil, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "analytics_unavailable", decodeError(t, w).Error)
}

// TestImportIMDb проверяет импорт черновика
func TestImportIMDb(t *testing.T) {
	env := setupEnv(t)
	env.source.IDs = map[string]int{"tt0078748": 348}
	env.source.Details = map[int]*tmdb.MovieDetails{348: {
		ID:            348,
		OriginalTitle: "Alien",
		ReleaseDate:   "1979-05-25",
		PosterPath:    "/alien.jpg",
		Genres:        []tmdb.Genre{{Name: "Horror"}},
	}}

	w := env.do("POST", "/api/admin/import-imdb", map[string]string{"url": "https://www.imdb.com/title/tt0078748/"}, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	var draft models.Movie
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draft))
	assert.Equal(t, "alien", draft.Slug)
	assert.Equal(t, 1979, draft.Year)
	assert.Equal(t, "https://cdn.example.com/movies/alien-poster.jpg", draft.PosterURL)

	// Черновик не сохраняется
	_, err := env.movies.GetBySlug(context.Background(), "alien")
	assert.Error(t, err)

	w = env.do("POST", "/api/admin/import-imdb", map[string]string{"url": "https://example.com/film"}, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_imdb_url", decodeError(t, w).Error)

	w = env.do("POST", "/api/admin/import-imdb", map[string]string{"url": "https://www.imdb.com/title/tt0000001/"}, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.source.Err = tmdb.ErrNotConfigured
	w = env.do("POST", "/api/admin/import-imdb", map[string]string{"url": "https://www.imdb.com/title/tt0078748/"}, "X-API-Key", testAPIKey)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "import_disabled", decodeError(t, w).Error)
}

// TestMetricsEndpoint проверяет экспорт метрик
func TestMetricsEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.do("GET", "/api/movies", nil)

	w := env.do("GET", "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cinema_http_requests_total")
}
