package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/jackc/pgx/v5"
)

// CounterRepository накопительные счётчики просмотров: по пути, по дню и по стране
type CounterRepository interface {
	IncrementPageView(ctx context.Context, view *models.PageView) error
	ReadDailyCounters(ctx context.Context, since string) ([]models.DailyCounter, error)
	ReadCountryCounters(ctx context.Context, limit int) ([]models.CountryCounter, error)
	ReadPathCounters(ctx context.Context, limit int) ([]models.ViewCounter, error)
}

type counterRepository struct {
	db *PostgresDB
}

func NewCounterRepository(db *PostgresDB) CounterRepository {
	return &counterRepository{db: db}
}

// IncrementPageView увеличивает три счётчика в одной транзакции
func (r *counterRepository) IncrementPageView(ctx context.Context, view *models.PageView) error {
	day := view.ViewedAt.UTC().Format(dayLayout)

	err := pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO path_counters (path, views) VALUES ($1, 1)
			ON CONFLICT (path) DO UPDATE SET views = path_counters.views + 1
		`, view.Path); err != nil {
			return fmt.Errorf("path counter: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO daily_counters (day, views, sessions) VALUES ($1, 1, 1)
			ON CONFLICT (day) DO UPDATE SET
				views = daily_counters.views + 1,
				sessions = daily_counters.sessions + 1
		`, day); err != nil {
			return fmt.Errorf("daily counter: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO country_counters (country, views) VALUES ($1, 1)
			ON CONFLICT (country) DO UPDATE SET views = country_counters.views + 1
		`, view.Country); err != nil {
			return fmt.Errorf("country counter: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record page view: %w", err)
	}

	return nil
}

func (r *counterRepository) ReadDailyCounters(ctx context.Context, since string) ([]models.DailyCounter, error) {
	query := `
		SELECT day, views, sessions
		FROM daily_counters
		WHERE day >= $1
		ORDER BY day ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily counters: %w", err)
	}
	defer rows.Close()

	var counters []models.DailyCounter
	for rows.Next() {
		var c models.DailyCounter
		if err := rows.Scan(&c.Date, &c.Views, &c.Sessions); err != nil {
			return nil, fmt.Errorf("failed to scan daily counter: %w", err)
		}
		counters = append(counters, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily counters: %w", err)
	}

	return counters, nil
}

func (r *counterRepository) ReadCountryCounters(ctx context.Context, limit int) ([]models.CountryCounter, error) {
	query := `
		SELECT country, views
		FROM country_counters
		ORDER BY views DESC, country ASC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read country counters: %w", err)
	}
	defer rows.Close()

	var counters []models.CountryCounter
	for rows.Next() {
		var c models.CountryCounter
		if err := rows.Scan(&c.Country, &c.Views); err != nil {
			return nil, fmt.Errorf("failed to scan country counter: %w", err)
		}
		counters = append(counters, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating country counters: %w", err)
	}

	return counters, nil
}

// ReadPathCounters служебные пути не отсекаются здесь, это делает агрегатор
func (r *counterRepository) ReadPathCounters(ctx context.Context, limit int) ([]models.ViewCounter, error) {
	query := `
		SELECT path, views
		FROM path_counters
		ORDER BY views DESC, path ASC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read path counters: %w", err)
	}
	defer rows.Close()

	var counters []models.ViewCounter
	for rows.Next() {
		var c models.ViewCounter
		if err := rows.Scan(&c.Path, &c.Views); err != nil {
			return nil, fmt.Errorf("failed to scan path counter: %w", err)
		}
		counters = append(counters, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating path counters: %w", err)
	}

	return counters, nil
}
