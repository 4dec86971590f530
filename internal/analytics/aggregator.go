// Package analytics строит отчёт по счётчикам просмотров: KPI, дневной ряд
// без пропусков, доли стран и самый просматриваемый контент.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/models"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidWindow     = errors.New("invalid analytics window")
	ErrSourceUnavailable = errors.New("aggregation source unavailable")
)

// contentFetchLimit путей читается с запасом: часть отсекается фильтром
const contentFetchLimit = 50

// CounterReader чтение счётчиков, которые пишет приём просмотров
type CounterReader interface {
	ReadDailyCounters(ctx context.Context, since string) ([]models.DailyCounter, error)
	ReadCountryCounters(ctx context.Context, limit int) ([]models.CountryCounter, error)
	ReadPathCounters(ctx context.Context, limit int) ([]models.ViewCounter, error)
}

type Aggregator struct {
	reader CounterReader
	now    func() time.Time
}

type Option func(*Aggregator)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator reader разделяется между вызовами, создаётся один раз на процесс
func NewAggregator(reader CounterReader, opts ...Option) *Aggregator {
	a := &Aggregator{
		reader: reader,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GenerateReport читает счётчики (три независимых запроса параллельно) и
// строит отчёт. Ошибки чтения не повторяются и возвращаются как
// ErrSourceUnavailable; частичных отчётов нет.
func (a *Aggregator) GenerateReport(ctx context.Context, w Window, catalog []models.Movie) (*models.Report, error) {
	if !w.Valid() {
		return nil, ErrInvalidWindow
	}

	today := a.now()
	snap, err := a.readSnapshot(ctx, Since(w, today))
	if err != nil {
		return nil, err
	}

	report := Build(snap, w, catalog, today)
	return &report, nil
}

func (a *Aggregator) readSnapshot(ctx context.Context, since string) (Snapshot, error) {
	var snap Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := a.reader.ReadDailyCounters(gctx, since)
		if err != nil {
			return fmt.Errorf("%w: daily counters: %w", ErrSourceUnavailable, err)
		}
		snap.Daily = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.reader.ReadCountryCounters(gctx, geoLimit)
		if err != nil {
			return fmt.Errorf("%w: country counters: %w", ErrSourceUnavailable, err)
		}
		snap.Countries = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.reader.ReadPathCounters(gctx, contentFetchLimit)
		if err != nil {
			return fmt.Errorf("%w: path counters: %w", ErrSourceUnavailable, err)
		}
		snap.Paths = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
