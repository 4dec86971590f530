package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SergeiKhy/cinema-lines/internal/service"
	"github.com/SergeiKhy/cinema-lines/internal/service/mocks"
	"github.com/SergeiKhy/cinema-lines/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func heatSource() *mocks.MockMetadataSource {
	details := &tmdb.MovieDetails{
		ID:              949,
		OriginalTitle:   "Heat",
		ReleaseDate:     "1995-12-15",
		Runtime:         170,
		Overview:        "A group of professional bank robbers...",
		PosterPath:      "/poster.jpg",
		BackdropPath:    "/backdrop.jpg",
		Genres:          []tmdb.Genre{{Name: "Crime"}, {Name: "Drama"}},
		SpokenLanguages: []tmdb.SpokenLanguage{{EnglishName: "English"}, {EnglishName: "Spanish"}},
		Credits: tmdb.Credits{
			Crew: []tmdb.CrewCredit{{Name: "Michael Mann", Job: "Director"}},
		},
	}
	for _, name := range []string{"Al Pacino", "Robert De Niro", "Val Kilmer", "Jon Voight", "Tom Sizemore", "Amy Brenneman"} {
		details.Credits.Cast = append(details.Credits.Cast, tmdb.CastCredit{Name: name, Character: "Role", ProfilePath: "/p.jpg"})
	}
	details.ReleaseDates.Results = []tmdb.CountryReleases{
		{Country: "FR", ReleaseDates: []tmdb.Release{{Certification: "12"}}},
		{Country: "US", ReleaseDates: []tmdb.Release{{Certification: "R"}}},
	}

	return &mocks.MockMetadataSource{
		IDs:     map[string]int{"tt0113277": 949},
		Details: map[int]*tmdb.MovieDetails{949: details},
	}
}

// TestImportService_Import проверяет сборку черновика из TMDB
func TestImportService_Import(t *testing.T) {
	posters := &mocks.MockPosterStore{BaseURL: "https://cdn.example.com"}
	svc := service.NewImportService(heatSource(), posters, "https://image.tmdb.org/t/p/original", zap.NewNop())

	movie, err := svc.ImportFromIMDb(context.Background(), "https://www.imdb.com/title/tt0113277/?ref_=fn_al_tt_1")

	require.NoError(t, err)
	assert.Equal(t, "heat", movie.Slug)
	assert.Equal(t, "Heat", movie.Title)
	assert.Equal(t, 1995, movie.Year)
	require.NotNil(t, movie.Duration)
	assert.Equal(t, 170, *movie.Duration)
	assert.Equal(t, "Michael Mann", movie.Director)
	assert.Equal(t, "R", movie.Certification)
	assert.Equal(t, []string{"Crime", "Drama"}, movie.Genres)
	assert.Equal(t, []string{"English", "Spanish"}, movie.SpokenLanguages)
	assert.Len(t, movie.Cast, 5)
	assert.Equal(t, "https://image.tmdb.org/t/p/original/p.jpg", movie.Cast[0].ImageURL)
	assert.Equal(t, float64(8), movie.Rating)
	assert.Equal(t, float64(8), movie.TechnicalScores.Audiovisual)
	assert.Equal(t, movie.Plot, movie.ReviewShort)
	assert.Equal(t, "https://cdn.example.com/movies/heat-poster.jpg", movie.PosterURL)
	assert.Equal(t, "https://cdn.example.com/movies/heat-backdrop.jpg", movie.BackdropURL)
	assert.Empty(t, movie.ID)
}

// TestImportService_MirrorFailure проверяет возврат к URL TMDB при сбое хранилища
func TestImportService_MirrorFailure(t *testing.T) {
	posters := &mocks.MockPosterStore{Err: errors.New("bucket not found")}
	svc := service.NewImportService(heatSource(), posters, "https://image.tmdb.org/t/p/original/", zap.NewNop())

	movie, err := svc.ImportFromIMDb(context.Background(), "https://www.imdb.com/title/tt0113277/")

	require.NoError(t, err)
	assert.Equal(t, "https://image.tmdb.org/t/p/original/poster.jpg", movie.PosterURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/original/backdrop.jpg", movie.BackdropURL)
}

// TestImportService_Errors проверяет невалидную ссылку и отсутствие фильма
func TestImportService_Errors(t *testing.T) {
	svc := service.NewImportService(heatSource(), &mocks.MockPosterStore{}, "https://image.tmdb.org/t/p/original", zap.NewNop())
	ctx := context.Background()

	_, err := svc.ImportFromIMDb(ctx, "https://www.themoviedb.org/movie/949")
	assert.ErrorIs(t, err, service.ErrInvalidIMDbURL)

	_, err = svc.ImportFromIMDb(ctx, "https://www.imdb.com/title/heat")
	assert.ErrorIs(t, err, service.ErrInvalidIMDbURL)

	_, err = svc.ImportFromIMDb(ctx, "https://www.imdb.com/title/tt9999999/")
	assert.ErrorIs(t, err, tmdb.ErrNotFound)
}
