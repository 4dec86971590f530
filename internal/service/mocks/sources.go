package mocks

import (
	"context"
	"sync"

	"github.com/SergeiKhy/cinema-lines/internal/tmdb"
)

// MockMetadataSource implements service.MetadataSource for testing
type MockMetadataSource struct {
	IDs     map[string]int
	Details map[int]*tmdb.MovieDetails
	Err     error
}

func (m *MockMetadataSource) FindByIMDbID(ctx context.Context, imdbID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	id, ok := m.IDs[imdbID]
	if !ok {
		return 0, tmdb.ErrNotFound
	}
	return id, nil
}

func (m *MockMetadataSource) MovieDetails(ctx context.Context, id int) (*tmdb.MovieDetails, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	details, ok := m.Details[id]
	if !ok {
		return nil, tmdb.ErrNotFound
	}
	return details, nil
}

// MockPosterStore implements storage.PosterStore for testing
type MockPosterStore struct {
	mu       sync.Mutex
	BaseURL  string
	Err      error
	Mirrored []string
}

func (m *MockPosterStore) Mirror(ctx context.Context, sourceURL, name string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mirrored = append(m.Mirrored, name)
	return m.BaseURL + "/movies/" + name, nil
}
