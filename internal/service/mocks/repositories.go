package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/SergeiKhy/cinema-lines/internal/repository"
)

// MockMovieRepository implements repository.MovieRepository for testing
type MockMovieRepository struct {
	mu     sync.RWMutex
	movies map[string]models.Movie
	order  []string
	Err    error // если задана, все методы возвращают её
}

func NewMockMovieRepository(movies ...models.Movie) *MockMovieRepository {
	m := &MockMovieRepository{movies: make(map[string]models.Movie)}
	for _, movie := range movies {
		m.movies[movie.Slug] = movie
		m.order = append(m.order, movie.Slug)
	}
	return m
}

func (m *MockMovieRepository) List(ctx context.Context) ([]models.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	movies := make([]models.Movie, 0, len(m.order))
	for _, slug := range m.order {
		movies = append(movies, m.movies[slug])
	}
	return movies, nil
}

func (m *MockMovieRepository) GetBySlug(ctx context.Context, slug string) (*models.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	movie, exists := m.movies[slug]
	if !exists {
		return nil, repository.ErrMovieNotFound
	}
	return &movie, nil
}

func (m *MockMovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.movies[movie.Slug]; exists {
		return repository.ErrSlugExists
	}
	m.movies[movie.Slug] = *movie
	m.order = append(m.order, movie.Slug)
	return nil
}

func (m *MockMovieRepository) Update(ctx context.Context, movie *models.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.movies[movie.Slug]; !exists {
		return repository.ErrMovieNotFound
	}
	m.movies[movie.Slug] = *movie
	return nil
}

func (m *MockMovieRepository) Delete(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.movies[slug]; !exists {
		return repository.ErrMovieNotFound
	}
	delete(m.movies, slug)
	for i, s := range m.order {
		if s == slug {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]models.Movie
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]models.Movie),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, slug string) (*models.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movie, exists := m.cache[slug]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	return &movie, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, movie *models.Movie, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[movie.Slug] = *movie
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, slug)
	return nil
}

func (m *MockCacheRepository) Has(slug string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cache[slug]
	return ok
}

// MockCounterRepository implements repository.CounterRepository for testing
type MockCounterRepository struct {
	mu       sync.Mutex
	views    []models.PageView
	failures int // сколько первых вызовов IncrementPageView завершатся ошибкой
	failErr  error
	Err      error // ошибка чтения счётчиков
	recorded chan struct{}
}

func NewMockCounterRepository() *MockCounterRepository {
	return &MockCounterRepository{recorded: make(chan struct{}, 1024)}
}

// FailNext следующие n записей вернут Err
func (m *MockCounterRepository) FailNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
	m.failErr = err
}

func (m *MockCounterRepository) IncrementPageView(ctx context.Context, view *models.PageView) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failures > 0 {
		m.failures--
		return m.failErr
	}
	m.views = append(m.views, *view)
	m.recorded <- struct{}{}
	return nil
}

// Recorded канал сигналов о каждой успешной записи
func (m *MockCounterRepository) Recorded() <-chan struct{} {
	return m.recorded
}

func (m *MockCounterRepository) Views() []models.PageView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.PageView(nil), m.views...)
}

func (m *MockCounterRepository) ReadDailyCounters(ctx context.Context, since string) ([]models.DailyCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	byDay := make(map[string]int64)
	var days []string
	for _, v := range m.views {
		day := v.ViewedAt.UTC().Format("2006-01-02")
		if day < since {
			continue
		}
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
		byDay[day]++
	}

	counters := make([]models.DailyCounter, 0, len(days))
	for _, day := range days {
		counters = append(counters, models.DailyCounter{Date: day, Views: byDay[day], Sessions: byDay[day]})
	}
	return counters, nil
}

func (m *MockCounterRepository) ReadCountryCounters(ctx context.Context, limit int) ([]models.CountryCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return []models.CountryCounter{}, nil
}

func (m *MockCounterRepository) ReadPathCounters(ctx context.Context, limit int) ([]models.ViewCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return []models.ViewCounter{}, nil
}
