package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/SergeiKhy/cinema-lines/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMovie(slug, title string, created time.Time) *models.Movie {
	return &models.Movie{
		ID:        "id-" + slug,
		Slug:      slug,
		Title:     title,
		Year:      1995,
		Rating:    8.5,
		Genres:    []string{"Crime"},
		CreatedAt: created,
	}
}

// TestFileMovieRepository_CRUD проверяет полный цикл записи в файл
func TestFileMovieRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "movies.json")
	repo := repository.NewFileMovieRepository(path)

	// Отсутствующий файл это пустой каталог
	movies, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, movies)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newMovie("heat", "Heat", base)))
	require.NoError(t, repo.Create(ctx, newMovie("alien", "Alien", base.Add(time.Hour))))

	err = repo.Create(ctx, newMovie("heat", "Heat again", base))
	assert.ErrorIs(t, err, repository.ErrSlugExists)

	movies, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "alien", movies[0].Slug) // новые первыми

	got, err := repo.GetBySlug(ctx, "heat")
	require.NoError(t, err)
	assert.Equal(t, "Heat", got.Title)

	got.Title = "Heat (1995)"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetBySlug(ctx, "heat")
	require.NoError(t, err)
	assert.Equal(t, "Heat (1995)", got.Title)

	require.NoError(t, repo.Delete(ctx, "heat"))
	_, err = repo.GetBySlug(ctx, "heat")
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "heat"), repository.ErrMovieNotFound)
	assert.ErrorIs(t, repo.Update(ctx, newMovie("ghost", "Ghost", base)), repository.ErrMovieNotFound)
}

// TestFileMovieRepository_UpsertAndReplace проверяет зеркалирование и снимок
func TestFileMovieRepository_UpsertAndReplace(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "movies.json")
	repo := repository.NewFileMovieRepository(path)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, newMovie("heat", "Heat", base)))
	require.NoError(t, repo.Upsert(ctx, newMovie("heat", "Heat 2", base)))

	movies, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Heat 2", movies[0].Title)

	require.NoError(t, repo.ReplaceAll(ctx, []models.Movie{
		*newMovie("zodiac", "Zodiac", base),
		*newMovie("alien", "Alien", base),
	}))

	movies, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 2)

	// Новый экземпляр читает тот же файл
	reopened := repository.NewFileMovieRepository(path)
	got, err := reopened.GetBySlug(ctx, "zodiac")
	require.NoError(t, err)
	assert.Equal(t, "Zodiac", got.Title)
}

// TestFileMovieRepository_CorruptFile проверяет ошибку на битом файле
func TestFileMovieRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := repository.NewFileMovieRepository(path).List(context.Background())
	assert.Error(t, err)
}
