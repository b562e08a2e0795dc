// Package config загружает конфигурацию сервиса из трех слоев:
// значения по умолчанию, необязательный YAML-файл и переменные окружения.
package config

import (
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/logging"
	"catalog-service/internal/recommend"
)

// Config - полная конфигурация catalog-service.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Database  DatabaseConfig   `koanf:"database"`
	Auth      AuthConfig       `koanf:"auth"`
	Storage   StorageConfig    `koanf:"storage"`
	Recommend recommend.Config `koanf:"recommend"`
	Logging   logging.Config   `koanf:"logging"`
}

type ServerConfig struct {
	HTTPPort          string        `koanf:"http_port"`
	GRPCPort          string        `koanf:"grpc_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

type DatabaseConfig struct {
	// URL пустой - сервис работает на in-memory хранилищах (режим разработки).
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// StorageConfig - хранилище обложек. Пустой Bucket включает хранение в памяти.
type StorageConfig struct {
	Bucket          string        `koanf:"bucket"`
	Region          string        `koanf:"region"`
	Endpoint        string        `koanf:"endpoint"`
	PublicBaseURL   string        `koanf:"public_base_url"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes"`
	UploadTimeout   time.Duration `koanf:"upload_timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			HTTPPort:          "8080",
			GRPCPort:          "50051",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitRequests: 20,
			RateLimitWindow:   time.Minute,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Region:          "us-east-1",
			MaxUploadBytes:  5 << 20,
			UploadTimeout:   30 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Recommend: recommend.DefaultConfig(),
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate проверяет обязательные параметры и согласованность значений.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		problems = append(problems, "auth.jwt_secret (JWT_SECRET) is required")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.token_ttl must be positive")
	}
	if c.Server.HTTPPort == "" {
		problems = append(problems, "server.http_port is required")
	}
	if c.Server.RateLimitRequests <= 0 || c.Server.RateLimitWindow <= 0 {
		problems = append(problems, "server.rate_limit_requests and server.rate_limit_window must be positive")
	}
	if c.Database.URL != "" && c.Database.MaxOpenConns <= 0 {
		problems = append(problems, "database.max_open_conns must be positive")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		problems = append(problems, "storage.max_upload_bytes must be positive")
	}
	if c.Storage.Bucket != "" && c.Storage.Region == "" {
		problems = append(problems, "storage.region is required when storage.bucket is set")
	}
	if !logging.ValidLevel(c.Logging.Level) {
		problems = append(problems, fmt.Sprintf("logging.level %q is not recognized", c.Logging.Level))
	}
	if err := c.Recommend.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UsesPostgres сообщает, настроена ли база данных.
func (c *Config) UsesPostgres() bool { return c.Database.URL != "" }

// UsesS3 сообщает, настроено ли объектное хранилище.
func (c *Config) UsesS3() bool { return c.Storage.Bucket != "" }
