package handler

import (
	"net/http"

	"github.com/SergeiKhy/cinema-lines/internal/middleware"
	"github.com/SergeiKhy/cinema-lines/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ImportHandler struct {
	service service.ImportService
	logger  *zap.Logger
}

func NewImportHandler(service service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		service: service,
		logger:  logger,
	}
}

type ImportRequest struct {
	URL string `json:"url" binding:"required"`
}

// ImportIMDb godoc
// @Summary Draft a movie from IMDb
// @Description Looks the title up on TMDB and returns an unsaved draft
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body ImportRequest true "IMDb title URL"
// @Success 200 {object} models.Movie
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/admin/import-imdb [post]
func (h *ImportHandler) ImportIMDb(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}

	draft, err := h.service.ImportFromIMDb(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, h.logger, err, "Failed to import movie")
		return
	}

	h.logger.Info("Movie draft imported",
		zap.String("slug", draft.Slug),
		zap.String("api_key", middleware.APIKeyName(c)),
	)
	c.JSON(http.StatusOK, draft)
}
