package handler

import (
	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/SergeiKhy/cinema-lines/internal/middleware"
	"github.com/SergeiKhy/cinema-lines/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterDeps зависимости HTTP-слоя
type RouterDeps struct {
	Movies      service.MovieService
	Processor   service.PageViewProcessor
	Reports     service.ReportService
	Importer    service.ImportService
	RateLimiter *middleware.RateLimiter
	// APIKeys ключ -> имя; пустая карта закрывает админку
	APIKeys    map[string]string
	GeoHeaders []string
	Checks     map[string]Pinger
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := RegisterValidators(); err != nil {
		logger.Warn("Failed to register validators", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	movieHandler := NewMovieHandler(deps.Movies, logger)
	analyticsHandler := NewAnalyticsHandler(deps.Processor, deps.Reports, deps.GeoHeaders, logger)
	importHandler := NewImportHandler(deps.Importer, logger)
	healthHandler := NewHealthHandler(deps.Checks, deps.Processor)

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.HealthCheck)
		api.GET("/ready", healthHandler.Ready)
	}

	// Rate limiting для публичных эндпоинтов
	public := api.Group("")
	if deps.RateLimiter != nil {
		public.Use(deps.RateLimiter.Middleware())
	}
	{
		public.GET("/movies", movieHandler.ListMovies)
		public.GET("/movies/:slug", movieHandler.GetMovie)
		public.GET("/movies/:slug/similar", movieHandler.Similar)
		public.GET("/rankings/:direction", movieHandler.Ranked)
		public.POST("/analytics/track", analyticsHandler.Track)
	}

	requireKey := middleware.RequireAPIKey(deps.APIKeys)

	// Запись в каталог только с API ключом
	editor := api.Group("", requireKey)
	{
		editor.POST("/movies", movieHandler.CreateMovie)
		editor.PUT("/movies/:slug", movieHandler.UpdateMovie)
		editor.DELETE("/movies/:slug", movieHandler.DeleteMovie)
	}

	admin := api.Group("/admin", requireKey)
	{
		admin.GET("/analytics", analyticsHandler.Report)
		admin.POST("/import-imdb", importHandler.ImportIMDb)
	}

	return router
}
