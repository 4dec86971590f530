package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrSlugExists    = errors.New("slug already exists")
	ErrNoSource      = errors.New("no catalog source available")
)

// PostgresDB общий пул соединений; создаётся один раз и передаётся в репозитории
type PostgresDB struct {
	Pool *pgxpool.Pool
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB config: %w", err)
	}

	// Настройка пула соединений
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

// Migrate создаёт таблицы, если их ещё нет
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *PostgresDB) Close() {
	db.Pool.Close()
}

// Проверка на нарушение уникальности (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const schema = `
CREATE TABLE IF NOT EXISTS path_counters (
	path  TEXT PRIMARY KEY,
	views BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS daily_counters (
	day      TEXT PRIMARY KEY,
	views    BIGINT NOT NULL DEFAULT 0,
	sessions BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS country_counters (
	country TEXT PRIMARY KEY,
	views   BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS movies (
	id                TEXT PRIMARY KEY,
	slug              TEXT NOT NULL UNIQUE,
	title             TEXT NOT NULL,
	year              INTEGER NOT NULL DEFAULT 0,
	duration          INTEGER,
	director          TEXT NOT NULL DEFAULT '',
	poster_url        TEXT NOT NULL DEFAULT '',
	backdrop_url      TEXT NOT NULL DEFAULT '',
	rating            DOUBLE PRECISION NOT NULL DEFAULT 0,
	certification     TEXT NOT NULL DEFAULT '',
	spoken_languages  TEXT[],
	review_short      TEXT NOT NULL DEFAULT '',
	review_long       TEXT NOT NULL DEFAULT '',
	plot              TEXT NOT NULL DEFAULT '',
	review_15_lines   TEXT[],
	genres            TEXT[],
	story_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
	acting_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
	pace_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
	ending_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
	originality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	audiovisual_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	awards            TEXT[],
	release_date      TEXT NOT NULL DEFAULT '',
	cast_members      JSONB,
	trailer_url       TEXT NOT NULL DEFAULT '',
	streaming         TEXT[],
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_movies_created_at ON movies (created_at DESC);
`
