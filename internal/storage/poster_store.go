// Package storage зеркалирование постеров в S3-совместимое хранилище.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const maxImageSize = 20 << 20

// PosterStore копирует изображение по URL и возвращает публичный адрес копии
type PosterStore interface {
	Mirror(ctx context.Context, sourceURL, name string) (string, error)
}

// objectPutter часть s3.Client, нужная для загрузки
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3PosterStore struct {
	client     objectPutter
	httpClient *http.Client
	bucket     string
	publicURL  string
}

// NewPosterStore без бакета возвращает хранилище, отдающее исходный URL
func NewPosterStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (PosterStore, error) {
	if !cfg.Enabled() {
		logger.Info("Object storage not configured, posters will link to TMDB")
		return passthroughStore{}, nil
	}

	var (
		awsCfg aws.Config
		err    error
	)
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		// Статические ключи (MinIO, R2 или AWS с явными ключами)
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	logger.Info("Posters will be mirrored to object storage", zap.String("bucket", cfg.Bucket))

	return newS3PosterStore(client, cfg.Bucket, publicURL), nil
}

func newS3PosterStore(client objectPutter, bucket, publicURL string) *s3PosterStore {
	return &s3PosterStore{
		client:     client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		bucket:     bucket,
		publicURL:  strings.TrimSuffix(publicURL, "/"),
	}
}

// Mirror скачивает изображение и кладёт его под ключом movies/<name>
func (s *s3PosterStore) Mirror(ctx context.Context, sourceURL, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key := path.Join("movies", name)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

// passthroughStore ничего не копирует
type passthroughStore struct{}

func (passthroughStore) Mirror(ctx context.Context, sourceURL, name string) (string, error) {
	return sourceURL, nil
}
