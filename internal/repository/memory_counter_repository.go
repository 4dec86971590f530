package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/SergeiKhy/cinema-lines/internal/models"
)

const dayLayout = "2006-01-02"

// memoryCounterRepository счётчики в памяти процесса, когда Postgres не настроен
type memoryCounterRepository struct {
	mu        sync.RWMutex
	paths     map[string]int64
	days      map[string]*models.DailyCounter
	countries map[string]int64
}

func NewMemoryCounterRepository() CounterRepository {
	return &memoryCounterRepository{
		paths:     make(map[string]int64),
		days:      make(map[string]*models.DailyCounter),
		countries: make(map[string]int64),
	}
}

func (r *memoryCounterRepository) IncrementPageView(ctx context.Context, view *models.PageView) error {
	day := view.ViewedAt.UTC().Format(dayLayout)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.paths[view.Path]++
	r.countries[view.Country]++

	c, ok := r.days[day]
	if !ok {
		c = &models.DailyCounter{Date: day}
		r.days[day] = c
	}
	c.Views++
	c.Sessions++

	return nil
}

func (r *memoryCounterRepository) ReadDailyCounters(ctx context.Context, since string) ([]models.DailyCounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counters []models.DailyCounter
	for day, c := range r.days {
		if day >= since {
			counters = append(counters, *c)
		}
	}
	slices.SortFunc(counters, func(a, b models.DailyCounter) int {
		return cmp.Compare(a.Date, b.Date)
	})

	return counters, nil
}

func (r *memoryCounterRepository) ReadCountryCounters(ctx context.Context, limit int) ([]models.CountryCounter, error) {
	r.mu.RLock()
	counters := make([]models.CountryCounter, 0, len(r.countries))
	for country, views := range r.countries {
		counters = append(counters, models.CountryCounter{Country: country, Views: views})
	}
	r.mu.RUnlock()

	slices.SortFunc(counters, func(a, b models.CountryCounter) int {
		if c := cmp.Compare(b.Views, a.Views); c != 0 {
			return c
		}
		return cmp.Compare(a.Country, b.Country)
	})

	return counters[:min(limit, len(counters))], nil
}

func (r *memoryCounterRepository) ReadPathCounters(ctx context.Context, limit int) ([]models.ViewCounter, error) {
	r.mu.RLock()
	counters := make([]models.ViewCounter, 0, len(r.paths))
	for path, views := range r.paths {
		counters = append(counters, models.ViewCounter{Path: path, Views: views})
	}
	r.mu.RUnlock()

	slices.SortFunc(counters, func(a, b models.ViewCounter) int {
		if c := cmp.Compare(b.Views, a.Views); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})

	return counters[:min(limit, len(counters))], nil
}
