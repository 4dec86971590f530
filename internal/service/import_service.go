package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/SergeiKhy/cinema-lines/internal/storage"
	"github.com/SergeiKhy/cinema-lines/internal/tmdb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidIMDbURL = errors.New("невалидная ссылка IMDb")

const (
	importCastLimit     = 5
	importDefaultScore  = 8
	importCertification = "US"
)

var imdbIDPattern = regexp.MustCompile(`tt\d+`)

// MetadataSource источник метаданных фильма по IMDb id
type MetadataSource interface {
	FindByIMDbID(ctx context.Context, imdbID string) (int, error)
	MovieDetails(ctx context.Context, id int) (*tmdb.MovieDetails, error)
}

// ImportService черновик рецензии из метаданных TMDB; в каталог не сохраняет
type ImportService interface {
	ImportFromIMDb(ctx context.Context, rawURL string) (*models.Movie, error)
}

type importService struct {
	source       MetadataSource
	posters      storage.PosterStore
	imageBaseURL string
	logger       *zap.Logger
}

func NewImportService(source MetadataSource, posters storage.PosterStore, imageBaseURL string, logger *zap.Logger) ImportService {
	return &importService{
		source:       source,
		posters:      posters,
		imageBaseURL: strings.TrimSuffix(imageBaseURL, "/"),
		logger:       logger,
	}
}

func (s *importService) ImportFromIMDb(ctx context.Context, rawURL string) (*models.Movie, error) {
	imdbID, err := ParseIMDbID(rawURL)
	if err != nil {
		return nil, err
	}

	tmdbID, err := s.source.FindByIMDbID(ctx, imdbID)
	if err != nil {
		return nil, err
	}

	details, err := s.source.MovieDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	slug := Slugify(details.OriginalTitle)
	movie := &models.Movie{
		Slug:          slug,
		Title:         details.OriginalTitle,
		Year:          details.Year(),
		Director:      details.Director(),
		Certification: details.Certification(importCertification),
		Plot:          details.Overview,
		ReviewShort:   details.Overview,
		ReleaseDate:   details.ReleaseDate,
		Rating:        importDefaultScore,
		TechnicalScores: models.TechnicalScores{
			Story:       importDefaultScore,
			Acting:      importDefaultScore,
			Pace:        importDefaultScore,
			Ending:      importDefaultScore,
			Originality: importDefaultScore,
			Audiovisual: importDefaultScore,
		},
	}

	if details.Runtime > 0 {
		runtime := details.Runtime
		movie.Duration = &runtime
	}

	for _, l := range details.SpokenLanguages {
		movie.SpokenLanguages = append(movie.SpokenLanguages, l.EnglishName)
	}
	for _, g := range details.Genres {
		movie.Genres = append(movie.Genres, g.Name)
	}
	for _, c := range details.Credits.Cast[:min(importCastLimit, len(details.Credits.Cast))] {
		movie.Cast = append(movie.Cast, models.CastMember{
			Name:     c.Name,
			Role:     c.Character,
			ImageURL: s.imageURL(c.ProfilePath),
		})
	}

	// Постер и фон зеркалируются параллельно; при сбое остаётся ссылка TMDB
	var g errgroup.Group
	g.Go(func() error {
		movie.PosterURL = s.mirror(ctx, details.PosterPath, slug+"-poster.jpg")
		return nil
	})
	g.Go(func() error {
		movie.BackdropURL = s.mirror(ctx, details.BackdropPath, slug+"-backdrop.jpg")
		return nil
	})
	_ = g.Wait()

	s.logger.Info("Movie imported from TMDB",
		zap.String("imdb_id", imdbID),
		zap.Int("tmdb_id", tmdbID),
		zap.String("slug", slug),
	)

	return movie, nil
}

func (s *importService) mirror(ctx context.Context, imagePath, name string) string {
	source := s.imageURL(imagePath)
	if source == "" {
		return ""
	}

	mirrored, err := s.posters.Mirror(ctx, source, name)
	if err != nil {
		s.logger.Warn("Failed to mirror image, using TMDB URL",
			zap.String("source", source),
			zap.Error(err),
		)
		return source
	}

	return mirrored
}

func (s *importService) imageURL(imagePath string) string {
	if imagePath == "" {
		return ""
	}
	return s.imageBaseURL + imagePath
}

// ParseIMDbID извлекает tt-идентификатор из ссылки вида imdb.com/title/tt...
func ParseIMDbID(rawURL string) (string, error) {
	if !strings.Contains(rawURL, "imdb.com/title/") {
		return "", ErrInvalidIMDbURL
	}

	id := imdbIDPattern.FindString(rawURL)
	if id == "" {
		return "", ErrInvalidIMDbURL
	}

	return id, nil
}
