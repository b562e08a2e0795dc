// internal/domain/rating.go
package domain

import (
	"math"
	"time"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating - оценка одного фильма одним пользователем.
// На пару (UserID, MovieID) существует не более одной записи.
type Rating struct {
	UserID    string    `json:"user_id" db:"usuario_id"`
	MovieID   string    `json:"movie_id" db:"filme_id"`
	Score     int       `json:"score" db:"nota"`
	UpdatedAt time.Time `json:"updated_at" db:"atualizado_em"`
}

// RateMovieRequest - тело запроса на оценку фильма.
// Score - число с плавающей точкой; дробные значения отклоняет ParseScore.
type RateMovieRequest struct {
	MovieID string   `json:"movie_id" validate:"required"`
	Score   *float64 `json:"score" validate:"required"`
}

// ScoreRequest - тело PUT /api/ratings/{movieId}
type ScoreRequest struct {
	Score *float64 `json:"score" validate:"required"`
}

// RateMovieResponse сообщает, была ли оценка создана или обновлена.
type RateMovieResponse struct {
	Created bool `json:"created,omitempty"`
	Updated bool `json:"updated,omitempty"`
}

// MyRatingResponse - оценка текущего пользователя или null.
type MyRatingResponse struct {
	Score *int `json:"score"`
}

// ParseScore проверяет, что значение - целое число из [1,5].
// Значения вне диапазона отклоняются целиком, а не обрезаются.
func ParseScore(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, NewValidationError("score", "must be a whole number")
	}
	return ValidateScore(int(v))
}

// ValidateScore проверяет диапазон целочисленной оценки.
func ValidateScore(score int) (int, error) {
	if score < MinScore || score > MaxScore {
		return 0, NewValidationError("score", "must be between 1 and 5")
	}
	return score, nil
}
