// Package logging строит *slog.Logger поверх zerolog.
// Сервис пишет логи через slog (методы *Context), а форматированием и уровнем
// управляет zerolog: JSON для продакшена, console для локальной разработки.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config - параметры логгера.
type Config struct {
	Level  string    `koanf:"level"`  // debug, info, warn, error
	Format string    `koanf:"format"` // json или console
	Output io.Writer `koanf:"-"`
}

// New создает логгер сервиса. Пустые поля заменяются значениями по умолчанию.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.Kitchen}
	}

	zl := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Str("service", "catalog-service").
		Logger()
	return slog.New(NewHandler(zl))
}

// ParseLevel переводит строковый уровень в zerolog.Level. Неизвестное значение - info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel сообщает, распознается ли уровень.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
