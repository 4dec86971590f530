package handler

import (
	"net/http"
	"strconv"

	"github.com/SergeiKhy/cinema-lines/internal/middleware"
	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/SergeiKhy/cinema-lines/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxListLimit = 100

type MovieHandler struct {
	service service.MovieService
	logger  *zap.Logger
}

func NewMovieHandler(service service.MovieService, logger *zap.Logger) *MovieHandler {
	return &MovieHandler{
		service: service,
		logger:  logger,
	}
}

// ListMovies godoc
// @Summary List movies
// @Description Library listing with genre filter, search and sort
// @Tags movies
// @Produce json
// @Param genre query string false "Genre"
// @Param search query string false "Search in title and director"
// @Param sort query string false "date, year, rating, alphabetical" default(date)
// @Success 200 {array} models.Movie
// @Failure 400 {object} ErrorResponse
// @Router /api/movies [get]
func (h *MovieHandler) ListMovies(c *gin.Context) {
	movies, err := h.service.ListMovies(c.Request.Context(), models.MovieFilter{
		Genre:  c.Query("genre"),
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to list movies")
		return
	}

	c.JSON(http.StatusOK, movies)
}

// GetMovie godoc
// @Summary Get a movie
// @Tags movies
// @Produce json
// @Param slug path string true "Movie slug"
// @Success 200 {object} models.Movie
// @Failure 404 {object} ErrorResponse
// @Router /api/movies/{slug} [get]
func (h *MovieHandler) GetMovie(c *gin.Context) {
	movie, err := h.service.GetMovie(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get movie")
		return
	}

	c.JSON(http.StatusOK, movie)
}

// Similar godoc
// @Summary Similar movies
// @Tags movies
// @Produce json
// @Param slug path string true "Movie slug"
// @Param limit query int false "Number of movies" default(4)
// @Success 200 {array} models.Movie
// @Failure 404 {object} ErrorResponse
// @Router /api/movies/{slug}/similar [get]
func (h *MovieHandler) Similar(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	movies, err := h.service.Similar(c.Request.Context(), c.Param("slug"), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to find similar movies")
		return
	}

	c.JSON(http.StatusOK, movies)
}

// Ranked godoc
// @Summary Top or flop ranking
// @Tags movies
// @Produce json
// @Param direction path string true "top or flop"
// @Param limit query int false "Number of movies" default(50)
// @Success 200 {array} models.Movie
// @Failure 400 {object} ErrorResponse
// @Router /api/rankings/{direction} [get]
func (h *MovieHandler) Ranked(c *gin.Context) {
	var order service.RankOrder
	switch c.Param("direction") {
	case "top":
		order = service.RankTop
	case "flop":
		order = service.RankFlop
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_direction",
			Message: "Direction must be top or flop",
		})
		return
	}

	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	movies, err := h.service.Ranked(c.Request.Context(), order, limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to rank movies")
		return
	}

	c.JSON(http.StatusOK, movies)
}

// CreateMovie godoc
// @Summary Create a movie review
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.Movie true "Movie"
// @Success 201 {object} models.Movie
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/movies [post]
func (h *MovieHandler) CreateMovie(c *gin.Context) {
	var movie models.Movie
	if err := c.ShouldBindJSON(&movie); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		badRequest(c, "invalid_request", err)
		return
	}

	created, err := h.service.CreateMovie(c.Request.Context(), &movie)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create movie")
		return
	}

	h.logger.Info("Movie created via API",
		zap.String("slug", created.Slug),
		zap.String("api_key", middleware.APIKeyName(c)),
	)
	c.JSON(http.StatusCreated, created)
}

// UpdateMovie godoc
// @Summary Update a movie review
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Movie slug"
// @Param request body models.MoviePatch true "Fields to change"
// @Success 200 {object} models.Movie
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/movies/{slug} [put]
func (h *MovieHandler) UpdateMovie(c *gin.Context) {
	var patch models.MoviePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		badRequest(c, "invalid_request", err)
		return
	}

	slug := c.Param("slug")
	movie, err := h.service.UpdateMovie(c.Request.Context(), slug, &patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update movie")
		return
	}

	h.logger.Info("Movie updated via API",
		zap.String("slug", slug),
		zap.String("api_key", middleware.APIKeyName(c)),
	)
	c.JSON(http.StatusOK, movie)
}

// DeleteMovie godoc
// @Summary Delete a movie review
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Movie slug"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /api/movies/{slug} [delete]
func (h *MovieHandler) DeleteMovie(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.service.DeleteMovie(c.Request.Context(), slug); err != nil {
		respondError(c, h.logger, err, "Failed to delete movie")
		return
	}

	h.logger.Info("Movie deleted via API",
		zap.String("slug", slug),
		zap.String("api_key", middleware.APIKeyName(c)),
	)
	c.JSON(http.StatusOK, gin.H{"message": "Movie deleted successfully"})
}

// queryLimit читает ?limit=; пустое значение означает лимит по умолчанию
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxListLimit {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_limit",
			Message: "limit must be between 1 and 100",
		})
		return 0, false
	}
	return limit, true
}
