package handler

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/cinema-lines/internal/analytics"
	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/SergeiKhy/cinema-lines/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultReportDays = "30"

type AnalyticsHandler struct {
	processor  service.PageViewProcessor
	reports    service.ReportService
	geoHeaders []string
	logger     *zap.Logger
}

// NewAnalyticsHandler geoHeaders проверяются по порядку, первый непустой побеждает
func NewAnalyticsHandler(
	processor service.PageViewProcessor,
	reports service.ReportService,
	geoHeaders []string,
	logger *zap.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		processor:  processor,
		reports:    reports,
		geoHeaders: geoHeaders,
		logger:     logger,
	}
}

type TrackRequest struct {
	Path string `json:"path"`
}

type TrackResponse struct {
	Success bool `json:"success"`
	Skipped bool `json:"skipped,omitempty"`
}

// Track godoc
// @Summary Record a page view
// @Description Counts a page view; admin and API paths are skipped
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body TrackRequest true "Viewed path"
// @Success 200 {object} TrackResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/analytics/track [post]
func (h *AnalyticsHandler) Track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}

	result, err := h.processor.Track(c.Request.Context(), &models.PageViewEvent{
		Path:    req.Path,
		Country: h.country(c),
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to track page view")
		return
	}

	// Потерянное при переполнении событие для клиента не ошибка
	c.JSON(http.StatusOK, TrackResponse{
		Success: true,
		Skipped: result == service.TrackSkipped,
	})
}

func (h *AnalyticsHandler) country(c *gin.Context) string {
	for _, header := range h.geoHeaders {
		if v := strings.TrimSpace(c.GetHeader(header)); v != "" {
			return v
		}
	}
	return ""
}

// Report godoc
// @Summary Analytics report
// @Description KPIs, daily traffic, geography and top content for a window
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param days query string false "Positive number of days or all" default(30)
// @Success 200 {object} models.Report
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/admin/analytics [get]
func (h *AnalyticsHandler) Report(c *gin.Context) {
	w, err := analytics.ParseWindow(c.DefaultQuery("days", defaultReportDays))
	if err != nil {
		respondError(c, h.logger, err, "Invalid analytics window")
		return
	}

	report, err := h.reports.GetReport(c.Request.Context(), w)
	if err != nil {
		respondError(c, h.logger, err, "Failed to build analytics report")
		return
	}

	c.JSON(http.StatusOK, report)
}
