package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/service"
	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Pinger зависимость, доступность которой проверяет readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks    map[string]Pinger
	processor service.PageViewProcessor
}

func NewHealthHandler(checks map[string]Pinger, processor service.PageViewProcessor) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		processor: processor,
	}
}

// HealthCheck godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "cinema-lines",
	})
}

// Ready godoc
// @Summary Readiness probe
// @Description Pings storage backends and reports page view queue usage
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := gin.H{
		"status": "ok",
		"checks": checks,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if h.processor != nil {
		body["page_views"] = h.processor.Stats()
	}

	c.JSON(status, body)
}
