package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/SergeiKhy/cinema-lines/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestRateLimiter_Middleware проверяет работу rate limiter middleware
func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Создаём rate limiter с лимитом 5 запросов в секунду и burst 5
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/api/analytics/track", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	// Первые 5 запросов должны пройти (в пределах burst лимита)
	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest("POST", "/api/analytics/track", nil)
		assert.Equal(t, http.StatusOK, serve(router, req).Code)
	}

	// Следующий запрос должен быть ограничен
	req, _ := http.NewRequest("POST", "/api/analytics/track", nil)
	w := serve(router, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Другой клиент не затронут
	req, _ = http.NewRequest("POST", "/api/analytics/track", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(router, req).Code)
}

// TestAPIKey_Middleware проверяет аутентификацию по API ключу
func TestAPIKey_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ak := middleware.NewAPIKey(middleware.APIKeyConfig{
		ValidKeys: map[string]string{
			"test-key-1": "editor",
			"test-key-2": "importer",
		},
	})

	router := gin.New()
	router.Use(ak.Middleware())
	router.GET("/api/admin/analytics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"key": middleware.APIKeyName(c)})
	})

	// Запрос без API ключа должен быть отклонён
	req, _ := http.NewRequest("GET", "/api/admin/analytics", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)

	// Запрос с невалидным API ключом должен быть отклонён
	req, _ = http.NewRequest("GET", "/api/admin/analytics", nil)
	req.Header.Set("X-API-Key", "invalid-key")
	assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)

	// Ключ в query параметре не принимается
	req, _ = http.NewRequest("GET", "/api/admin/analytics?api_key=test-key-1", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)

	// Запрос с валидным API ключом должен пройти
	req, _ = http.NewRequest("GET", "/api/admin/analytics", nil)
	req.Header.Set("X-API-Key", "test-key-1")
	w := serve(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key":"editor"`)
}

// TestAPIKey_Middleware_BearerToken проверяет передачу API ключа через Bearer токен
func TestAPIKey_Middleware_BearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequireAPIKey(map[string]string{"test-key-1": "editor"}))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer test-key-1")
	assert.Equal(t, http.StatusOK, serve(router, req).Code)
}

// TestAPIKey_Middleware_UnnamedKey проверяет, что ключ с пустым именем принимается
func TestAPIKey_Middleware_UnnamedKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequireAPIKey(map[string]string{"secret": ""}))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"key": middleware.APIKeyName(c)})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, serve(router, req).Code)

	req, _ = http.NewRequest("GET", "/test", nil)
	req.Header.Set("X-API-Key", "other")
	assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)
}

// TestRequireAPIKey_NoKeysConfigured проверяет, что без ключей админка закрыта
func TestRequireAPIKey_NoKeysConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequireAPIKey(nil))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("X-API-Key", "anything")
	assert.Equal(t, http.StatusServiceUnavailable, serve(router, req).Code)
}

// TestMetrics_Middleware проверяет учёт запросов по шаблону маршрута
func TestMetrics_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()

	router := gin.New()
	router.Use(middleware.Metrics(m), middleware.RequestLogger(zap.NewNop()))
	router.GET("/api/movies/:slug", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"slug": c.Param("slug")})
	})

	for _, slug := range []string{"heat", "alien"} {
		req, _ := http.NewRequest("GET", "/api/movies/"+slug, nil)
		assert.Equal(t, http.StatusOK, serve(router, req).Code)
	}
	req, _ := http.NewRequest("GET", "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, serve(router, req).Code)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/movies/:slug", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
