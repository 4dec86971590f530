// Package job фоновые задачи по расписанию.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const backupTimeout = time.Minute

// CatalogSource основное хранилище каталога
type CatalogSource interface {
	List(ctx context.Context) ([]models.Movie, error)
}

// CatalogSink файловая копия каталога
type CatalogSink interface {
	ReplaceAll(ctx context.Context, movies []models.Movie) error
}

// CatalogBackup выгружает каталог из базы в JSON-файл по cron-расписанию
type CatalogBackup struct {
	source  CatalogSource
	sink    CatalogSink
	cron    *cron.Cron
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCatalogBackup schedule в стандартном пятипольном формате cron
func NewCatalogBackup(source CatalogSource, sink CatalogSink, schedule string, logger *zap.Logger, m *metrics.Metrics) (*CatalogBackup, error) {
	cronLogger := zapCronLogger{logger.Sugar()}
	b := &CatalogBackup{
		source:  source,
		sink:    sink,
		logger:  logger,
		metrics: m,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
	}

	if _, err := b.cron.AddJob(schedule, b); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}

	return b, nil
}

func (b *CatalogBackup) Start() {
	b.cron.Start()
	b.logger.Info("Catalog backup scheduled", zap.Time("next_run", b.cron.Entries()[0].Next))
}

// Stop ждёт завершения выполняющейся выгрузки или отмены ctx
func (b *CatalogBackup) Stop(ctx context.Context) {
	select {
	case <-b.cron.Stop().Done():
	case <-ctx.Done():
		b.logger.Warn("Catalog backup did not finish before shutdown")
	}
}

// Run реализует cron.Job
func (b *CatalogBackup) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if err := b.RunOnce(ctx); err != nil {
		b.logger.Error("Catalog backup failed", zap.Error(err))
	}
}

// RunOnce снимок каталога в файл. Пустой снимок не записывается, чтобы
// недоступная или пустая база не стёрла последнюю копию.
func (b *CatalogBackup) RunOnce(ctx context.Context) error {
	start := time.Now()

	movies, err := b.source.List(ctx)
	if err != nil {
		b.metrics.BackupRunsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	if len(movies) == 0 {
		b.metrics.BackupRunsTotal.WithLabelValues("skipped").Inc()
		b.logger.Warn("Catalog is empty, backup skipped")
		return nil
	}

	if err := b.sink.ReplaceAll(ctx, movies); err != nil {
		b.metrics.BackupRunsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to write backup: %w", err)
	}

	b.metrics.BackupRunsTotal.WithLabelValues("ok").Inc()
	b.logger.Info("Catalog backup completed",
		zap.Int("movies", len(movies)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// zapCronLogger адаптер cron.Logger поверх zap
type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
