package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrCacheMiss = errors.New("cache miss")

// CacheRepository кэш карточек фильмов по slug
type CacheRepository interface {
	Get(ctx context.Context, slug string) (*models.Movie, error)
	Set(ctx context.Context, movie *models.Movie, ttl time.Duration) error
	Delete(ctx context.Context, slug string) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

// NewCacheRepositoryWithFallback без Redis переходит на кэш в памяти процесса
func NewCacheRepositoryWithFallback(redis *RedisDB, ttl time.Duration, logger *zap.Logger) CacheRepository {
	if redis == nil {
		logger.Info("Using in-memory movie cache")
		return NewMemoryCacheRepository(1024, ttl)
	}

	logger.Info("Using Redis movie cache")
	return NewCacheRepository(redis)
}

func (r *cacheRepository) Get(ctx context.Context, slug string) (*models.Movie, error) {
	data, err := r.redis.Client.Get(ctx, r.key(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var movie models.Movie
	if err := json.Unmarshal(data, &movie); err != nil {
		return nil, fmt.Errorf("failed to unmarshal movie: %w", err)
	}

	return &movie, nil
}

func (r *cacheRepository) Set(ctx context.Context, movie *models.Movie, ttl time.Duration) error {
	data, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("failed to marshal movie: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(movie.Slug), data, ttl).Err()
}

func (r *cacheRepository) Delete(ctx context.Context, slug string) error {
	return r.redis.Client.Del(ctx, r.key(slug)).Err()
}

func (r *cacheRepository) key(slug string) string {
	return "movie:" + slug
}

// memoryCacheRepository TTL общий для всех записей и задаётся при создании
type memoryCacheRepository struct {
	cache *lru.LRU[string, models.Movie]
}

func NewMemoryCacheRepository(size int, ttl time.Duration) CacheRepository {
	return &memoryCacheRepository{
		cache: lru.NewLRU[string, models.Movie](size, nil, ttl),
	}
}

func (r *memoryCacheRepository) Get(ctx context.Context, slug string) (*models.Movie, error) {
	movie, ok := r.cache.Get(slug)
	if !ok {
		return nil, ErrCacheMiss
	}
	return &movie, nil
}

func (r *memoryCacheRepository) Set(ctx context.Context, movie *models.Movie, ttl time.Duration) error {
	r.cache.Add(movie.Slug, *movie)
	return nil
}

func (r *memoryCacheRepository) Delete(ctx context.Context, slug string) error {
	r.cache.Remove(slug)
	return nil
}
