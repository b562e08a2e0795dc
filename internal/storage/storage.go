// Package storage хранит обложки фильмов в объектном хранилище.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"catalog-service/internal/domain"
)

// CoverPrefix - "папка" с обложками в бакете.
const CoverPrefix = "covers/"

// DefaultMaxCoverBytes - лимит размера обложки.
const DefaultMaxCoverBytes int64 = 5 << 20

var (
	ErrCoverTooLarge      = fmt.Errorf("cover file is too large: %w", domain.ErrValidation)
	ErrCoverUnsupported   = fmt.Errorf("cover must be a JPEG, PNG or WEBP image: %w", domain.ErrValidation)
	ErrStorageUnavailable = errors.New("object storage unavailable")
)

var allowedCoverTypes = []string{"image/jpeg", "image/png", "image/webp"}

var unsafeKeyChars = regexp.MustCompile(`[^\w.\-/]`)

// CoverStore сохраняет изображение и возвращает его публичный URL.
type CoverStore interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// Cover - проверенная обложка, готовая к загрузке.
type Cover struct {
	Key         string
	ContentType string
	Data        []byte
}

// ReadCover читает файл (не более maxBytes), определяет тип по содержимому
// и строит ключ объекта вида covers/<uuid>_<имя>.
func ReadCover(r io.Reader, filename string, maxBytes int64) (*Cover, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxCoverBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrCoverTooLarge
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("cover", "file is empty")
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedCoverTypes...) {
		return nil, ErrCoverUnsupported
	}
	return &Cover{
		Key:         CoverKey(filename),
		ContentType: mtype.String(),
		Data:        data,
	}, nil
}

// CoverKey строит уникальный ключ объекта с безопасным именем файла.
func CoverKey(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "cover"
	}
	return SanitizeKey(CoverPrefix + uuid.NewString() + "_" + name)
}

// SanitizeKey заменяет недопустимые в ключе символы на "_", сохраняя "/".
func SanitizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}
