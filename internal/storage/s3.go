package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sony/gobreaker/v2"
)

const coverCacheControl = "public, max-age=31536000, immutable"

// putObjectAPI - часть клиента S3, которая нужна для загрузки.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config - параметры бакета и защитного автомата.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string // S3-совместимое хранилище (MinIO); включает path-style
	PublicBaseURL string
	UploadTimeout time.Duration
	// BreakerFailures - число подряд неудачных загрузок, после которого автомат размыкается.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// S3CoverStore загружает обложки в S3 через circuit breaker.
// Разомкнутый автомат возвращает ErrStorageUnavailable сразу.
type S3CoverStore struct {
	client  putObjectAPI
	cfg     S3Config
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// NewS3CoverStore создает клиента S3 из стандартной цепочки учетных данных AWS.
func NewS3CoverStore(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3CoverStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket cannot be empty")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3CoverStore(client, cfg, logger), nil
}

func newS3CoverStore(client putObjectAPI, cfg S3Config, logger *slog.Logger) *S3CoverStore {
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 30 * time.Second
	}

	s := &S3CoverStore{client: client, cfg: cfg, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "s3-covers",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return s
}

// Upload кладет объект в бакет и возвращает его публичный URL.
func (s *S3CoverStore) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	key = SanitizeKey(key)
	publicURL, err := s.breaker.Execute(func() (string, error) {
		uploadCtx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
		defer cancel()

		_, err := s.client.PutObject(uploadCtx, &s3.PutObjectInput{
			Bucket:        aws.String(s.cfg.Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(body),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(body))),
			CacheControl:  aws.String(coverCacheControl),
		})
		if err != nil {
			return "", err
		}
		return s.PublicURL(key), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.logger.WarnContext(ctx, "Cover upload rejected by circuit breaker", slog.String("key", key))
			return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		s.logger.ErrorContext(ctx, "S3 upload failed", slog.String("key", key), slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to upload cover %s: %w", key, err)
	}
	return publicURL, nil
}

// PublicURL строит канонический URL объекта в бакете.
func (s *S3CoverStore) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	escaped := strings.Join(segments, "/")
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, escaped)
}
