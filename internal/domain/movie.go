// internal/domain/movie.go
package domain

import (
	"strings"
	"time"
)

// Movie представляет запись каталога фильмов.
// Жанр и режиссер могут отсутствовать (nil), и тогда считаются неизвестными.
type Movie struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"titulo"`
	Genre     *string   `json:"genre" db:"genero"`
	Director  *string   `json:"director" db:"diretor"`
	CoverURL  *string   `json:"cover_url" db:"imagem_s3_url"`
	CreatedAt time.Time `json:"created_at" db:"criado_em"`
	UpdatedAt time.Time `json:"updated_at" db:"atualizado_em"`
}

// CreateMovieRequest определяет поля для создания нового фильма
type CreateMovieRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Genre    string `json:"genre,omitempty" validate:"omitempty,max=100"`
	Director string `json:"director,omitempty" validate:"omitempty,max=100"`
}

// UpdateMovieRequest определяет поля для обновления метаданных фильма.
// Пустые genre/director сбрасывают значение в NULL.
type UpdateMovieRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Genre    string `json:"genre,omitempty" validate:"omitempty,max=100"`
	Director string `json:"director,omitempty" validate:"omitempty,max=100"`
}

// MovieDetail - фильм вместе с агрегатом оценок и оценкой текущего пользователя
type MovieDetail struct {
	*Movie
	MeanRating  *float64 `json:"mean_rating"`
	RatingCount int64    `json:"rating_count"`
	MyRating    *int     `json:"my_rating"`
}

// OptionalText превращает пустую строку в nil, иначе возвращает указатель на обрезанное значение.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ValidateTitle проверяет единственный обязательный инвариант фильма.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", NewValidationError("title", "must not be empty")
	}
	return title, nil
}

// GenreName возвращает жанр или пустую строку, если он неизвестен.
func (m *Movie) GenreName() string {
	if m.Genre == nil {
		return ""
	}
	return *m.Genre
}
