package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/SergeiKhy/cinema-lines/internal/models"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	breakerFailureThreshold = 3
	breakerOpenTimeout      = 30 * time.Second
)

// errAborted ошибка primary, случившаяся после отмены запроса вызывающей стороной
var errAborted = errors.New("request aborted by caller")

// catalogChain читает из основного хранилища, а при его сбое из файловой копии.
// Записи идут в основное хранилище и зеркалируются в файл.
type catalogChain struct {
	primary MovieRepository
	backup  *FileMovieRepository
	breaker *gobreaker.CircuitBreaker[any]
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCatalogChain без primary файл становится единственным хранилищем
func NewCatalogChain(primary MovieRepository, backup *FileMovieRepository, logger *zap.Logger, m *metrics.Metrics) MovieRepository {
	if primary == nil {
		return backup
	}

	c := &catalogChain{
		primary: primary,
		backup:  backup,
		logger:  logger,
		metrics: m,
	}

	c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "catalog-primary",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		// Отсутствие фильма, занятый slug и отмена запроса клиентом не сбои хранилища
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrMovieNotFound) ||
				errors.Is(err, ErrSlugExists) ||
				errors.Is(err, errAborted)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Catalog circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

func (c *catalogChain) List(ctx context.Context) ([]models.Movie, error) {
	res, err := c.execute(ctx, func() (any, error) {
		return c.primary.List(ctx)
	})
	if err == nil {
		return res.([]models.Movie), nil
	}
	if errors.Is(err, errAborted) {
		return nil, err
	}

	c.fallback("list", err)
	return c.backup.List(ctx)
}

func (c *catalogChain) GetBySlug(ctx context.Context, slug string) (*models.Movie, error) {
	res, err := c.execute(ctx, func() (any, error) {
		return c.primary.GetBySlug(ctx, slug)
	})
	if err == nil {
		return res.(*models.Movie), nil
	}
	if errors.Is(err, ErrMovieNotFound) || errors.Is(err, errAborted) {
		return nil, err
	}

	c.fallback("get", err)
	return c.backup.GetBySlug(ctx, slug)
}

func (c *catalogChain) Create(ctx context.Context, movie *models.Movie) error {
	if err := c.write(ctx, func() error { return c.primary.Create(ctx, movie) }); err != nil {
		return err
	}

	c.mirror("create", movie.Slug, c.backup.Upsert(ctx, movie))
	return nil
}

func (c *catalogChain) Update(ctx context.Context, movie *models.Movie) error {
	if err := c.write(ctx, func() error { return c.primary.Update(ctx, movie) }); err != nil {
		return err
	}

	c.mirror("update", movie.Slug, c.backup.Upsert(ctx, movie))
	return nil
}

func (c *catalogChain) Delete(ctx context.Context, slug string) error {
	if err := c.write(ctx, func() error { return c.primary.Delete(ctx, slug) }); err != nil {
		return err
	}

	err := c.backup.Delete(ctx, slug)
	if errors.Is(err, ErrMovieNotFound) {
		err = nil
	}
	c.mirror("delete", slug, err)
	return nil
}

// execute вызывает primary через breaker
func (c *catalogChain) execute(ctx context.Context, fn func() (any, error)) (any, error) {
	return c.breaker.Execute(func() (any, error) {
		res, err := fn()
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errAborted, err)
		}
		return res, err
	})
}

func (c *catalogChain) write(ctx context.Context, fn func() error) error {
	_, err := c.execute(ctx, func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrNoSource, err)
	}
	return err
}

func (c *catalogChain) fallback(op string, cause error) {
	c.metrics.CatalogFallbacksTotal.WithLabelValues("file").Inc()
	c.logger.Warn("Catalog primary unavailable, reading backup file",
		zap.String("op", op),
		zap.Error(cause),
	)
}

// Сбой зеркала не отменяет уже выполненную запись
func (c *catalogChain) mirror(op, slug string, err error) {
	if err == nil {
		return
	}
	c.logger.Warn("Failed to mirror catalog write to backup file",
		zap.String("op", op),
		zap.String("slug", slug),
		zap.Error(err),
	)
}
