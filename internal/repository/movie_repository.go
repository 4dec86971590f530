package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/jackc/pgx/v5"
)

// MovieRepository хранилище каталога рецензий
type MovieRepository interface {
	List(ctx context.Context) ([]models.Movie, error)
	GetBySlug(ctx context.Context, slug string) (*models.Movie, error)
	Create(ctx context.Context, movie *models.Movie) error
	Update(ctx context.Context, movie *models.Movie) error
	Delete(ctx context.Context, slug string) error
}

type movieRepository struct {
	db *PostgresDB
}

func NewMovieRepository(db *PostgresDB) MovieRepository {
	return &movieRepository{db: db}
}

const movieColumns = `
	id, slug, title, year, duration, director, poster_url, backdrop_url, rating,
	certification, spoken_languages, review_short, review_long, plot, review_15_lines,
	genres, story_score, acting_score, pace_score, ending_score, originality_score,
	audiovisual_score, awards, release_date, cast_members, trailer_url, streaming,
	created_at, updated_at
`

func (r *movieRepository) List(ctx context.Context) ([]models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(movieFields(&m)...); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movies: %w", err)
	}

	return movies, nil
}

func (r *movieRepository) GetBySlug(ctx context.Context, slug string) (*models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE slug = $1`

	movie := &models.Movie{}
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(movieFields(movie)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	return movie, nil
}

func (r *movieRepository) Create(ctx context.Context, movie *models.Movie) error {
	query := `INSERT INTO movies (` + movieColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
	)`

	_, err := r.db.Pool.Exec(ctx, query, movieValues(movie)...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}

	return nil
}

// Update перезаписывает все поля, кроме id и created_at
func (r *movieRepository) Update(ctx context.Context, movie *models.Movie) error {
	query := `
		UPDATE movies SET
			title = $2, year = $3, duration = $4, director = $5, poster_url = $6,
			backdrop_url = $7, rating = $8, certification = $9, spoken_languages = $10,
			review_short = $11, review_long = $12, plot = $13, review_15_lines = $14,
			genres = $15, story_score = $16, acting_score = $17, pace_score = $18,
			ending_score = $19, originality_score = $20, audiovisual_score = $21,
			awards = $22, release_date = $23, cast_members = $24, trailer_url = $25,
			streaming = $26, updated_at = $27
		WHERE slug = $1
	`

	// Без id и created_at: slug идёт первым параметром
	values := movieValues(movie)
	args := append(values[1:27:27], values[28])

	result, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMovieNotFound
	}

	return nil
}

func (r *movieRepository) Delete(ctx context.Context, slug string) error {
	query := `DELETE FROM movies WHERE slug = $1`

	result, err := r.db.Pool.Exec(ctx, query, slug)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMovieNotFound
	}

	return nil
}

// movieFields порядок совпадает с movieColumns
func movieFields(m *models.Movie) []any {
	return []any{
		&m.ID, &m.Slug, &m.Title, &m.Year, &m.Duration, &m.Director, &m.PosterURL,
		&m.BackdropURL, &m.Rating, &m.Certification, &m.SpokenLanguages, &m.ReviewShort,
		&m.ReviewLong, &m.Plot, &m.Review15Lines, &m.Genres,
		&m.TechnicalScores.Story, &m.TechnicalScores.Acting, &m.TechnicalScores.Pace,
		&m.TechnicalScores.Ending, &m.TechnicalScores.Originality, &m.TechnicalScores.Audiovisual,
		&m.Awards, &m.ReleaseDate, &m.Cast, &m.TrailerURL, &m.Streaming,
		&m.CreatedAt, &m.UpdatedAt,
	}
}

func movieValues(m *models.Movie) []any {
	return []any{
		m.ID, m.Slug, m.Title, m.Year, m.Duration, m.Director, m.PosterURL,
		m.BackdropURL, m.Rating, m.Certification, m.SpokenLanguages, m.ReviewShort,
		m.ReviewLong, m.Plot, m.Review15Lines, m.Genres,
		m.TechnicalScores.Story, m.TechnicalScores.Acting, m.TechnicalScores.Pace,
		m.TechnicalScores.Ending, m.TechnicalScores.Originality, m.TechnicalScores.Audiovisual,
		m.Awards, m.ReleaseDate, m.Cast, m.TrailerURL, m.Streaming,
		m.CreatedAt, m.UpdatedAt,
	}
}
