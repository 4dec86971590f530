package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/goccy/go-json"
)

// FileMovieRepository каталог в JSON-файле. Служит резервной копией основного
// хранилища и единственным хранилищем, если Postgres не настроен.
type FileMovieRepository struct {
	path string
	mu   sync.RWMutex
}

func NewFileMovieRepository(path string) *FileMovieRepository {
	return &FileMovieRepository{path: path}
}

func (r *FileMovieRepository) List(ctx context.Context) ([]models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	movies, err := r.load()
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(movies, func(a, b models.Movie) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return movies, nil
}

func (r *FileMovieRepository) GetBySlug(ctx context.Context, slug string) (*models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	movies, err := r.load()
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(movies, func(m models.Movie) bool { return m.Slug == slug })
	if i < 0 {
		return nil, ErrMovieNotFound
	}

	return &movies[i], nil
}

func (r *FileMovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movies, err := r.load()
	if err != nil {
		return err
	}

	if slices.ContainsFunc(movies, func(m models.Movie) bool { return m.Slug == movie.Slug }) {
		return ErrSlugExists
	}

	return r.save(append(movies, *movie))
}

func (r *FileMovieRepository) Update(ctx context.Context, movie *models.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movies, err := r.load()
	if err != nil {
		return err
	}

	i := slices.IndexFunc(movies, func(m models.Movie) bool { return m.Slug == movie.Slug })
	if i < 0 {
		return ErrMovieNotFound
	}
	movies[i] = *movie

	return r.save(movies)
}

// Upsert вставка или замена по slug; используется для зеркалирования записей
func (r *FileMovieRepository) Upsert(ctx context.Context, movie *models.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movies, err := r.load()
	if err != nil {
		return err
	}

	i := slices.IndexFunc(movies, func(m models.Movie) bool { return m.Slug == movie.Slug })
	if i < 0 {
		movies = append(movies, *movie)
	} else {
		movies[i] = *movie
	}

	return r.save(movies)
}

func (r *FileMovieRepository) Delete(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movies, err := r.load()
	if err != nil {
		return err
	}

	n := len(movies)
	movies = slices.DeleteFunc(movies, func(m models.Movie) bool { return m.Slug == slug })
	if len(movies) == n {
		return ErrMovieNotFound
	}

	return r.save(movies)
}

// ReplaceAll перезаписывает файл целиком снимком каталога
func (r *FileMovieRepository) ReplaceAll(ctx context.Context, movies []models.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := slices.Clone(movies)
	slices.SortStableFunc(snapshot, func(a, b models.Movie) int {
		return cmp.Compare(a.Slug, b.Slug)
	})

	return r.save(snapshot)
}

// Отсутствующий файл означает пустой каталог
func (r *FileMovieRepository) load() ([]models.Movie, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Movie{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var movies []models.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file: %w", err)
	}

	return movies, nil
}

// Атомарная запись: временный файл и rename
func (r *FileMovieRepository) save(movies []models.Movie) error {
	if movies == nil {
		movies = []models.Movie{}
	}

	data, err := json.MarshalIndent(movies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".movies-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}

	return nil
}
