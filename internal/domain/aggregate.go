// internal/domain/aggregate.go
package domain

// MovieAggregate - производная проекция оценок фильма.
// MeanRating равен nil, если оценок нет: 0 не используется как "нет данных".
type MovieAggregate struct {
	MovieID     string   `json:"movie_id" db:"filme_id"`
	MeanRating  *float64 `json:"mean_rating" db:"mean_rating"`
	RatingCount int64    `json:"rating_count" db:"rating_count"`
}

// MovieStats - фильм вместе со своим агрегатом, используется для глобального рейтинга популярности.
type MovieStats struct {
	Movie
	MeanRating  *float64 `json:"mean_rating" db:"mean_rating"`
	RatingCount int64    `json:"rating_count" db:"rating_count"`
}

// GenreAffinity - средняя оценка пользователя по фильмам одного жанра.
type GenreAffinity struct {
	Genre     string  `json:"genre" db:"genre"`
	MeanScore float64 `json:"mean_score" db:"mean_score"`
}
