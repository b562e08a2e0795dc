// internal/domain/recommendation.go
package domain

// RecommendationPolicy выбирает стратегию построения рекомендаций.
type RecommendationPolicy string

const (
	// PolicyExclusive: персональные кандидаты по любимым жанрам, иначе глобальная популярность.
	PolicyExclusive RecommendationPolicy = "exclusive"
	// PolicyMerge: глобальная популярность, любимые жанры подняты в начало.
	PolicyMerge RecommendationPolicy = "merge"
)

// RecommendationStage указывает, какая стадия сформировала список.
type RecommendationStage string

const (
	StagePersonalized RecommendationStage = "personalized"
	StagePopular      RecommendationStage = "popular"
	StageMerged       RecommendationStage = "merged"
)

// RecommendationRequest - входные данные селектора. Пустой UserID означает анонимный запрос.
type RecommendationRequest struct {
	UserID string
	Limit  int
}

// Recommendation - фильм в выдаче с агрегатом оценок, если он был посчитан.
type Recommendation struct {
	*Movie
	MeanRating  *float64 `json:"mean_rating,omitempty"`
	RatingCount *int64   `json:"rating_count,omitempty"`
}

// RecommendationResult - ответ селектора.
type RecommendationResult struct {
	Policy          RecommendationPolicy `json:"policy"`
	Stage           RecommendationStage  `json:"stage"`
	FavoredGenres   []GenreAffinity      `json:"favored_genres"`
	Recommendations []Recommendation     `json:"recommendations"`
}
