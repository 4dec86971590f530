package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/analytics"
	"github.com/SergeiKhy/cinema-lines/internal/config"
	"github.com/SergeiKhy/cinema-lines/internal/handler"
	"github.com/SergeiKhy/cinema-lines/internal/job"
	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/SergeiKhy/cinema-lines/internal/middleware"
	"github.com/SergeiKhy/cinema-lines/internal/repository"
	"github.com/SergeiKhy/cinema-lines/internal/service"
	"github.com/SergeiKhy/cinema-lines/internal/storage"
	"github.com/SergeiKhy/cinema-lines/internal/tmdb"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	m := metrics.New()
	checks := make(map[string]handler.Pinger)

	// Подключение к БД (postgres); без неё каталог живёт в JSON-файле,
	// а счётчики в памяти процесса
	var (
		movieRepo   repository.MovieRepository
		counterRepo repository.CounterRepository
		db          *repository.PostgresDB
	)
	if cfg.DB.Enabled() {
		db, err = repository.NewPostgresDB(cfg.DB)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Connected to PostgreSQL")

		movieRepo = repository.NewMovieRepository(db)
		counterRepo = repository.NewCounterRepository(db)
		checks["postgres"] = db
	} else {
		logger.Warn("DB_HOST not set, page view counters are kept in memory")
		counterRepo = repository.NewMemoryCounterRepository()
	}

	// Подключение к Redis
	var redis *repository.RedisDB
	if cfg.Redis.Enabled() {
		redis, err = repository.NewRedisClient(cfg.Redis)
		if err != nil {
			// Кэш не обязателен, работаем без Redis
			logger.Warn("Failed to connect to Redis", zap.Error(err))
			redis = nil
		} else {
			defer redis.Close()
			logger.Info("Connected to Redis")
			checks["redis"] = redis
		}
	}

	// Инициализация репозиториев
	backupRepo := repository.NewFileMovieRepository(cfg.Catalog.FilePath)
	catalog := repository.NewCatalogChain(movieRepo, backupRepo, logger, m)
	cacheRepo := repository.NewCacheRepositoryWithFallback(redis, cfg.Catalog.CacheTTL, logger)

	posters, err := storage.NewPosterStore(context.Background(), cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to configure object storage", zap.Error(err))
	}

	// Инициализация сервисов
	movieService := service.NewMovieService(catalog, cacheRepo, cfg.Catalog.CacheTTL, logger, m)
	reportService := service.NewReportService(
		analytics.NewAggregator(counterRepo),
		catalog,
		cfg.Analytics.DemoFallback,
		logger,
		m,
	)
	importService := service.NewImportService(tmdb.NewClient(cfg.TMDB, m), posters, cfg.TMDB.ImageBaseURL, logger)
	if cfg.TMDB.APIKey == "" {
		logger.Warn("TMDB_API_KEY not set, IMDb import is disabled")
	}

	// Инициализация процессора просмотров (Worker Pool)
	pageViewProcessor := service.NewPageViewProcessor(counterRepo, service.ProcessorConfig{
		Workers:    cfg.Analytics.Workers,
		BufferSize: cfg.Analytics.BufferSize,
	}, logger, m)
	pageViewProcessor.Start()
	defer pageViewProcessor.Stop()

	// Резервная копия каталога нужна только при наличии базы
	var backupJob *job.CatalogBackup
	if movieRepo != nil {
		backupJob, err = job.NewCatalogBackup(movieRepo, backupRepo, cfg.Backup.Schedule, logger, m)
		if err != nil {
			logger.Fatal("Failed to schedule catalog backup", zap.Error(err))
		}
		backupJob.Start()
	}

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})
	defer rateLimiter.Stop()

	if len(cfg.Auth.APIKeys) > 0 {
		logger.Info("API key authentication enabled", zap.Int("keys_count", len(cfg.Auth.APIKeys)))
	} else {
		logger.Warn("API_KEYS not set, admin endpoints are disabled")
	}

	// Настройка роутера
	router := handler.NewRouter(handler.RouterDeps{
		Movies:      movieService,
		Processor:   pageViewProcessor,
		Reports:     reportService,
		Importer:    importService,
		RateLimiter: rateLimiter,
		APIKeys:     cfg.Auth.APIKeys,
		GeoHeaders:  cfg.Analytics.GeoHeaders,
		Checks:      checks,
		Metrics:     m,
		Logger:      logger,
	})

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if backupJob != nil {
		backupJob.Stop(ctx)
	}

	logger.Info("Server exited")
}
