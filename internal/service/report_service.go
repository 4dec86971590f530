package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/analytics"
	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/SergeiKhy/cinema-lines/internal/repository"
	"go.uber.org/zap"
)

// ReportService отчёт для админ-панели
type ReportService interface {
	GetReport(ctx context.Context, w analytics.Window) (*models.Report, error)
}

type reportService struct {
	aggregator   *analytics.Aggregator
	movieRepo    repository.MovieRepository
	demoFallback bool
	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewReportService demoFallback включает демо-отчёт при недоступном хранилище счётчиков
func NewReportService(
	aggregator *analytics.Aggregator,
	movieRepo repository.MovieRepository,
	demoFallback bool,
	logger *zap.Logger,
	m *metrics.Metrics,
) ReportService {
	return &reportService{
		aggregator:   aggregator,
		movieRepo:    movieRepo,
		demoFallback: demoFallback,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

func (s *reportService) GetReport(ctx context.Context, w analytics.Window) (*models.Report, error) {
	start := time.Now()
	defer func() {
		s.metrics.ReportDuration.Observe(time.Since(start).Seconds())
	}()

	if !w.Valid() {
		s.metrics.ReportsTotal.WithLabelValues("invalid").Inc()
		return nil, analytics.ErrInvalidWindow
	}

	catalog, err := s.movieRepo.List(ctx)
	if err != nil {
		return s.unavailable(w, nil, fmt.Errorf("%w: catalog: %w", analytics.ErrSourceUnavailable, err))
	}

	report, err := s.aggregator.GenerateReport(ctx, w, catalog)
	if err != nil {
		if errors.Is(err, analytics.ErrSourceUnavailable) {
			return s.unavailable(w, catalog, err)
		}
		s.metrics.ReportsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	s.metrics.ReportsTotal.WithLabelValues("ok").Inc()
	return report, nil
}

// unavailable без включённого демо-режима ошибка возвращается как есть
func (s *reportService) unavailable(w analytics.Window, catalog []models.Movie, cause error) (*models.Report, error) {
	if !s.demoFallback {
		s.metrics.ReportsTotal.WithLabelValues("unavailable").Inc()
		s.logger.Error("Analytics source unavailable", zap.String("window", w.String()), zap.Error(cause))
		return nil, cause
	}

	s.metrics.ReportsTotal.WithLabelValues("simulated").Inc()
	s.logger.Warn("Analytics source unavailable, serving simulated report",
		zap.String("window", w.String()),
		zap.Error(cause),
	)

	now := s.now()
	rng := rand.New(rand.NewPCG(uint64(now.UnixNano()), uint64(w.Days())))
	report := analytics.Simulate(w, catalog, now, rng)
	return &report, nil
}
