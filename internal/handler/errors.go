package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/cinema-lines/internal/analytics"
	"github.com/SergeiKhy/cinema-lines/internal/repository"
	"github.com/SergeiKhy/cinema-lines/internal/service"
	"github.com/SergeiKhy/cinema-lines/internal/tmdb"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{repository.ErrMovieNotFound, http.StatusNotFound, "not_found", "Movie not found"},
	{repository.ErrSlugExists, http.StatusBadRequest, "slug_exists", "Slug is already taken"},
	{repository.ErrNoSource, http.StatusServiceUnavailable, "catalog_unavailable", "Catalog storage is unavailable"},
	{service.ErrInvalidSlug, http.StatusBadRequest, "invalid_slug", "Slug must be lowercase letters, digits and dashes"},
	{service.ErrTitleRequired, http.StatusBadRequest, "title_required", "Title is required"},
	{service.ErrInvalidRating, http.StatusBadRequest, "invalid_rating", "Rating must be between 0 and 10"},
	{service.ErrInvalidSort, http.StatusBadRequest, "invalid_sort", "Sort must be one of date, year, rating, alphabetical"},
	{service.ErrPathRequired, http.StatusBadRequest, "path_required", "Path is required"},
	{service.ErrInvalidIMDbURL, http.StatusBadRequest, "invalid_imdb_url", "Invalid IMDb URL"},
	{analytics.ErrInvalidWindow, http.StatusBadRequest, "invalid_window", "days must be a positive integer or \"all\""},
	{analytics.ErrSourceUnavailable, http.StatusServiceUnavailable, "analytics_unavailable", "Analytics storage is unavailable"},
	{tmdb.ErrNotFound, http.StatusNotFound, "not_found", "Movie not found on TMDB"},
	{tmdb.ErrNotConfigured, http.StatusServiceUnavailable, "import_disabled", "TMDB API key is not configured"},
	{tmdb.ErrUnavailable, http.StatusServiceUnavailable, "tmdb_unavailable", "TMDB is unavailable"},
}

// respondError переводит ошибку сервиса в HTTP-ответ; неизвестные ошибки
// логируются и отдаются как 500 без подробностей
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				logger.Error(fallback, zap.Error(err))
			} else {
				logger.Debug(fallback, zap.Error(err))
			}
			c.JSON(m.status, ErrorResponse{Error: m.code, Message: m.message})
			return
		}
	}

	logger.Error(fallback, zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: fallback,
	})
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}
