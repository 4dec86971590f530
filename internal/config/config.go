package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Analytics AnalyticsConfig
	Catalog   CatalogConfig
	TMDB      TMDBConfig
	Storage   StorageConfig
	Backup    BackupConfig
}

type AppConfig struct {
	Port    string
	BaseURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Enabled сообщает, настроено ли подключение к PostgreSQL
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type AuthConfig struct {
	APIKeys map[string]string // API key -> name/description
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

type AnalyticsConfig struct {
	// GeoHeaders заголовки с ISO-кодом страны, проверяются по порядку
	GeoHeaders []string
	// DemoFallback разрешает демо-отчёт, если хранилище счётчиков недоступно
	DemoFallback bool
	Workers      int
	BufferSize   int
}

type CatalogConfig struct {
	FilePath string
	CacheTTL time.Duration
}

type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Timeout      time.Duration
}

type StorageConfig struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	PublicURL    string
	UsePathStyle bool
}

func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

type BackupConfig struct {
	Schedule string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// В проде переменные приходят из окружения, .env может отсутствовать
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("BASE_URL", "https://15linesofcinema.com")
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("GEO_HEADERS", "X-Vercel-IP-Country,CF-IPCountry")
	viper.SetDefault("ANALYTICS_WORKERS", 3)
	viper.SetDefault("ANALYTICS_BUFFER", 1000)
	viper.SetDefault("CATALOG_FILE", "data/movies.json")
	viper.SetDefault("CATALOG_CACHE_TTL", time.Hour)
	viper.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	viper.SetDefault("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/original")
	viper.SetDefault("TMDB_TIMEOUT", 10*time.Second)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("BACKUP_SCHEDULE", "0 3 * * *")

	var cfg Config
	cfg.App.Port = viper.GetString("APP_PORT")
	cfg.App.BaseURL = viper.GetString("BASE_URL")
	cfg.DB.Host = viper.GetString("DB_HOST")
	cfg.DB.Port = viper.GetString("DB_PORT")
	cfg.DB.User = viper.GetString("DB_USER")
	cfg.DB.Password = viper.GetString("DB_PASSWORD")
	cfg.DB.Name = viper.GetString("DB_NAME")
	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")
	cfg.Redis.Password = viper.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = viper.GetInt("REDIS_DB")

	// Auth config - parse API keys from comma-separated string
	// Format: key1:name1,key2:name2
	cfg.Auth.APIKeys = parseAPIKeys(viper.GetString("API_KEYS"))

	cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = viper.GetInt("RATE_LIMIT_BURST")

	cfg.Analytics.GeoHeaders = splitList(viper.GetString("GEO_HEADERS"))
	cfg.Analytics.DemoFallback = viper.GetBool("ANALYTICS_DEMO_FALLBACK")
	cfg.Analytics.Workers = viper.GetInt("ANALYTICS_WORKERS")
	cfg.Analytics.BufferSize = viper.GetInt("ANALYTICS_BUFFER")

	cfg.Catalog.FilePath = viper.GetString("CATALOG_FILE")
	cfg.Catalog.CacheTTL = viper.GetDuration("CATALOG_CACHE_TTL")

	cfg.TMDB.APIKey = viper.GetString("TMDB_API_KEY")
	cfg.TMDB.BaseURL = viper.GetString("TMDB_BASE_URL")
	cfg.TMDB.ImageBaseURL = viper.GetString("TMDB_IMAGE_BASE_URL")
	cfg.TMDB.Timeout = viper.GetDuration("TMDB_TIMEOUT")

	cfg.Storage.Bucket = viper.GetString("S3_BUCKET")
	cfg.Storage.Region = viper.GetString("S3_REGION")
	cfg.Storage.Endpoint = viper.GetString("S3_ENDPOINT")
	cfg.Storage.AccessKey = viper.GetString("S3_ACCESS_KEY")
	cfg.Storage.SecretKey = viper.GetString("S3_SECRET_KEY")
	cfg.Storage.PublicURL = viper.GetString("S3_PUBLIC_URL")
	cfg.Storage.UsePathStyle = viper.GetBool("S3_USE_PATH_STYLE")

	cfg.Backup.Schedule = viper.GetString("BACKUP_SCHEDULE")

	return &cfg, nil
}

// parseAPIKeys parses comma-separated API keys in format "key1:name1,key2:name2".
// A key without a name gets "key-N" where N is its position in the list.
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}

	pairs := strings.Split(raw, ",")
	for i, pair := range pairs {
		key, name, _ := strings.Cut(strings.TrimSpace(pair), ":")
		key, name = strings.TrimSpace(key), strings.TrimSpace(name)
		if key == "" {
			continue
		}
		if name == "" {
			name = fmt.Sprintf("key-%d", i+1)
		}
		keys[key] = name
	}

	return keys
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
