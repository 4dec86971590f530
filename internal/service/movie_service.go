package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/SergeiKhy/cinema-lines/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidSlug   = errors.New("невалидный slug")
	ErrTitleRequired = errors.New("название обязательно")
	ErrInvalidRating = errors.New("рейтинг должен быть от 0 до 10")
	ErrInvalidSort   = errors.New("неизвестная сортировка")
)

// Константы сервиса
const (
	defaultCacheTTL     = time.Hour
	defaultRankedLimit  = 50
	defaultSimilarLimit = 4
	maxRating           = 10
	youtubeIDLength     = 11
)

// Сортировки библиотеки
const (
	SortDate         = "date"
	SortYear         = "year"
	SortRating       = "rating"
	SortAlphabetical = "alphabetical"
)

// RankOrder направление рейтинга: лучшие или худшие
type RankOrder int

const (
	RankTop RankOrder = iota
	RankFlop
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// MovieService интерфейс сервиса каталога
type MovieService interface {
	CreateMovie(ctx context.Context, movie *models.Movie) (*models.Movie, error)
	GetMovie(ctx context.Context, slug string) (*models.Movie, error)
	ListMovies(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error)
	UpdateMovie(ctx context.Context, slug string, patch *models.MoviePatch) (*models.Movie, error)
	DeleteMovie(ctx context.Context, slug string) error
	Ranked(ctx context.Context, order RankOrder, limit int) ([]models.Movie, error)
	Similar(ctx context.Context, slug string, limit int) ([]models.Movie, error)
}

// movieService реализация сервиса каталога
type movieService struct {
	movieRepo repository.MovieRepository
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewMovieService создаёт новый экземпляр сервиса
func NewMovieService(
	movieRepo repository.MovieRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) MovieService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &movieService{
		movieRepo: movieRepo,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// CreateMovie добавляет рецензию; slug берётся из названия, если не задан
func (s *movieService) CreateMovie(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
	movie.Title = strings.TrimSpace(movie.Title)
	if movie.Title == "" {
		return nil, ErrTitleRequired
	}

	if movie.Slug == "" {
		movie.Slug = Slugify(movie.Title)
	}
	if !ValidSlug(movie.Slug) {
		return nil, ErrInvalidSlug
	}

	if movie.Rating < 0 || movie.Rating > maxRating {
		return nil, ErrInvalidRating
	}

	if movie.ID == "" {
		movie.ID = uuid.NewString()
	}
	movie.CreatedAt = s.now().UTC()
	movie.UpdatedAt = nil
	movie.TrailerURL = NormalizeTrailerURL(movie.TrailerURL)

	if err := s.movieRepo.Create(ctx, movie); err != nil {
		return nil, err
	}

	s.logger.Info("Movie created", zap.String("slug", movie.Slug), zap.String("id", movie.ID))

	return movie, nil
}

// GetMovie получает фильм по slug (сначала из кэша, затем из хранилища)
func (s *movieService) GetMovie(ctx context.Context, slug string) (*models.Movie, error) {
	// Проверка кэша
	movie, err := s.cacheRepo.Get(ctx, slug)
	if err == nil {
		s.metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return movie, nil
	}
	if errors.Is(err, repository.ErrCacheMiss) {
		s.metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	} else {
		s.metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Cache read failed", zap.String("slug", slug), zap.Error(err))
	}

	movie, err = s.movieRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	// Ошибка кэша не прерывает запрос
	if err := s.cacheRepo.Set(ctx, movie, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache movie", zap.String("slug", slug), zap.Error(err))
	}

	return movie, nil
}

// ListMovies выборка библиотеки: фильтр по жанру, поиск и сортировка
func (s *movieService) ListMovies(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	sortBy := filter.Sort
	if sortBy == "" {
		sortBy = SortDate
	}
	if !slices.Contains([]string{SortDate, SortYear, SortRating, SortAlphabetical}, sortBy) {
		return nil, ErrInvalidSort
	}

	movies, err := s.movieRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if filter.Genre != "" && !m.HasGenre(filter.Genre) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Title), search) &&
			!strings.Contains(strings.ToLower(m.Director), search) {
			continue
		}
		result = append(result, m)
	}

	slices.SortStableFunc(result, func(a, b models.Movie) int {
		switch sortBy {
		case SortYear:
			return cmp.Compare(b.Year, a.Year)
		case SortRating:
			return cmp.Compare(b.Rating, a.Rating)
		case SortAlphabetical:
			return cmp.Compare(a.Title, b.Title)
		default:
			return b.CreatedAt.Compare(a.CreatedAt)
		}
	})

	return result, nil
}

// UpdateMovie применяет заданные поля патча; id и createdAt не меняются
func (s *movieService) UpdateMovie(ctx context.Context, slug string, patch *models.MoviePatch) (*models.Movie, error) {
	movie, err := s.movieRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	applyPatch(movie, patch)

	if strings.TrimSpace(movie.Title) == "" {
		return nil, ErrTitleRequired
	}
	if movie.Rating < 0 || movie.Rating > maxRating {
		return nil, ErrInvalidRating
	}

	now := s.now().UTC()
	movie.UpdatedAt = &now

	if err := s.movieRepo.Update(ctx, movie); err != nil {
		return nil, err
	}

	s.invalidate(ctx, slug)

	return movie, nil
}

// DeleteMovie удаляет фильм
func (s *movieService) DeleteMovie(ctx context.Context, slug string) error {
	if err := s.movieRepo.Delete(ctx, slug); err != nil {
		return err
	}

	s.invalidate(ctx, slug)
	s.logger.Info("Movie deleted", zap.String("slug", slug))

	return nil
}

// Ranked лучшие (рейтинг по убыванию) или худшие фильмы; равные по названию
func (s *movieService) Ranked(ctx context.Context, order RankOrder, limit int) ([]models.Movie, error) {
	if limit <= 0 {
		limit = defaultRankedLimit
	}

	movies, err := s.movieRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(movies, func(a, b models.Movie) int {
		c := cmp.Compare(b.Rating, a.Rating)
		if order == RankFlop {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})

	return movies[:min(limit, len(movies))], nil
}

// Similar похожие фильмы по взвешенной сумме признаков
func (s *movieService) Similar(ctx context.Context, slug string, limit int) ([]models.Movie, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	target, err := s.GetMovie(ctx, slug)
	if err != nil {
		return nil, err
	}

	movies, err := s.movieRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		movie models.Movie
		score int
	}

	var candidates []scored
	for _, m := range movies {
		if m.Slug == target.Slug {
			continue
		}
		if score := similarity(target, &m); score > 0 {
			candidates = append(candidates, scored{movie: m, score: score})
		}
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.movie.Title, b.movie.Title)
	})

	result := make([]models.Movie, 0, min(limit, len(candidates)))
	for _, c := range candidates[:min(limit, len(candidates))] {
		result = append(result, c.movie)
	}

	return result, nil
}

// Веса: общий жанр 3, тот же режиссёр 5, год в пределах 5 лет 1, рейтинг в пределах 1.0 1
func similarity(a, b *models.Movie) int {
	score := 0
	for _, g := range a.Genres {
		if b.HasGenre(g) {
			score += 3
		}
	}
	if a.Director != "" && strings.EqualFold(a.Director, b.Director) {
		score += 5
	}
	if a.Year > 0 && b.Year > 0 && abs(a.Year-b.Year) <= 5 {
		score++
	}
	if math.Abs(a.Rating-b.Rating) <= 1.0 {
		score++
	}
	return score
}

func (s *movieService) invalidate(ctx context.Context, slug string) {
	if err := s.cacheRepo.Delete(ctx, slug); err != nil {
		s.logger.Warn("Failed to invalidate movie cache", zap.String("slug", slug), zap.Error(err))
	}
}

func applyPatch(m *models.Movie, p *models.MoviePatch) {
	if p.Title != nil {
		m.Title = strings.TrimSpace(*p.Title)
	}
	if p.Year != nil {
		m.Year = *p.Year
	}
	if p.Duration != nil {
		m.Duration = p.Duration
	}
	if p.Director != nil {
		m.Director = *p.Director
	}
	if p.PosterURL != nil {
		m.PosterURL = *p.PosterURL
	}
	if p.BackdropURL != nil {
		m.BackdropURL = *p.BackdropURL
	}
	if p.Rating != nil {
		m.Rating = *p.Rating
	}
	if p.Certification != nil {
		m.Certification = *p.Certification
	}
	if p.SpokenLanguages != nil {
		m.SpokenLanguages = p.SpokenLanguages
	}
	if p.ReviewShort != nil {
		m.ReviewShort = *p.ReviewShort
	}
	if p.ReviewLong != nil {
		m.ReviewLong = *p.ReviewLong
	}
	if p.Plot != nil {
		m.Plot = *p.Plot
	}
	if p.Review15Lines != nil {
		m.Review15Lines = p.Review15Lines
	}
	if p.Genres != nil {
		m.Genres = p.Genres
	}
	if p.TechnicalScores != nil {
		m.TechnicalScores = *p.TechnicalScores
	}
	if p.Awards != nil {
		m.Awards = p.Awards
	}
	if p.ReleaseDate != nil {
		m.ReleaseDate = *p.ReleaseDate
	}
	if p.Cast != nil {
		m.Cast = p.Cast
	}
	if p.TrailerURL != nil {
		m.TrailerURL = NormalizeTrailerURL(*p.TrailerURL)
	}
	if p.Streaming != nil {
		m.Streaming = p.Streaming
	}
}

// ValidSlug строчные латинские буквы и цифры, разделённые одиночными дефисами
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// Slugify любая последовательность не [a-z0-9] превращается в один дефис:
// "Amélie (2001)" -> "am-lie-2001"
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NormalizeTrailerURL приводит ссылку YouTube к виду embed; прочие ссылки не меняются
func NormalizeTrailerURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	var id string
	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		}
	}

	// Идентификатор видео YouTube всегда из 11 символов
	if len(id) != youtubeIDLength {
		return raw
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s", id)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
