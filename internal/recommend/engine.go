package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"catalog-service/internal/domain"
	"catalog-service/internal/metrics"
)

// Source - read-side запросы к оценкам, на которых строятся агрегаты.
// Реализуется store.RatingStore.
type Source interface {
	MovieAggregate(ctx context.Context, movieID string) (domain.MovieAggregate, error)
	MovieStats(ctx context.Context) ([]domain.MovieStats, error)
	GenreAffinities(ctx context.Context, userID string) ([]domain.GenreAffinity, error)
	UnratedMoviesInGenres(ctx context.Context, userID string, genres []string, limit int) ([]*domain.Movie, error)
}

// Engine - агрегатор оценок и селектор рекомендаций.
// Не хранит состояния между запросами.
type Engine struct {
	source Source
	cfg    Config
	logger *slog.Logger
}

// NewEngine создает Engine. Некорректная конфигурация - ошибка.
func NewEngine(source Source, cfg Config, logger *slog.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("recommend: source cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{source: source, cfg: cfg, logger: logger}, nil
}

// Config возвращает действующую конфигурацию.
func (e *Engine) Config() Config { return e.cfg }

// MovieAggregate возвращает среднюю оценку (округленную) и количество оценок фильма.
// Для фильма без оценок MeanRating равен nil.
func (e *Engine) MovieAggregate(ctx context.Context, movieID string) (domain.MovieAggregate, error) {
	agg, err := e.source.MovieAggregate(ctx, movieID)
	if err != nil {
		return domain.MovieAggregate{}, err
	}
	if agg.RatingCount == 0 {
		agg.MeanRating = nil
	}
	agg.MeanRating = roundPtr(agg.MeanRating, e.cfg.Precision)
	return agg, nil
}

// GenreAffinities возвращает средние оценки пользователя по жанрам в детерминированном порядке.
// Значения не округлены: порог сравнивается с точным средним.
func (e *Engine) GenreAffinities(ctx context.Context, userID string) ([]domain.GenreAffinity, error) {
	if userID == "" {
		return []domain.GenreAffinity{}, nil
	}
	affinities, err := e.source.GenreAffinities(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortAffinities(affinities)
	return affinities, nil
}

// FavoredGenres возвращает до MaxFavoredGenres жанров со средней оценкой >= порога.
func (e *Engine) FavoredGenres(ctx context.Context, userID string) ([]domain.GenreAffinity, error) {
	affinities, err := e.GenreAffinities(ctx, userID)
	if err != nil {
		return nil, err
	}
	return SelectFavored(affinities, e.cfg.FavoredThreshold, e.cfg.MaxFavoredGenres), nil
}

// Recommend строит список рекомендаций согласно настроенной политике.
// Отсутствие данных не является ошибкой: результат может быть пустым.
func (e *Engine) Recommend(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error) {
	limit := e.cfg.ResolveLimit(req.Limit)

	favored, err := e.FavoredGenres(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute favored genres: %w", err)
	}

	result := &domain.RecommendationResult{
		Policy:          e.cfg.Policy,
		FavoredGenres:   e.roundAffinities(favored),
		Recommendations: []domain.Recommendation{},
	}

	switch e.cfg.Policy {
	case domain.PolicyMerge:
		err = e.merged(ctx, favored, limit, result)
	default:
		err = e.exclusive(ctx, req.UserID, favored, limit, result)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordRecommendation(string(result.Stage))
	e.logger.DebugContext(ctx, "Recommendations computed",
		slog.String("policy", string(result.Policy)),
		slog.String("stage", string(result.Stage)),
		slog.Int("favored_genres", len(result.FavoredGenres)),
		slog.Int("count", len(result.Recommendations)))
	return result, nil
}

func (e *Engine) exclusive(ctx context.Context, userID string, favored []domain.GenreAffinity, limit int, result *domain.RecommendationResult) error {
	if len(favored) > 0 {
		genres := make([]string, len(favored))
		for i, f := range favored {
			genres[i] = f.Genre
		}
		movies, err := e.source.UnratedMoviesInGenres(ctx, userID, genres, limit)
		if err != nil {
			return fmt.Errorf("failed to select personalized candidates: %w", err)
		}
		if len(movies) > 0 {
			if len(movies) > limit {
				movies = movies[:limit]
			}
			for _, m := range movies {
				result.Recommendations = append(result.Recommendations, domain.Recommendation{Movie: m})
			}
			result.Stage = domain.StagePersonalized
			return nil
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	ranked, err := e.popularity(ctx)
	if err != nil {
		return err
	}
	result.Stage = domain.StagePopular
	e.appendStats(result, ranked, limit)
	return nil
}

func (e *Engine) merged(ctx context.Context, favored []domain.GenreAffinity, limit int, result *domain.RecommendationResult) error {
	ranked, err := e.popularity(ctx)
	if err != nil {
		return err
	}
	result.Stage = domain.StagePopular
	if len(favored) > 0 {
		ranked = PersonalizeMerge(ranked, favored)
		result.Stage = domain.StageMerged
	}
	e.appendStats(result, ranked, limit)
	return nil
}

func (e *Engine) popularity(ctx context.Context) ([]domain.MovieStats, error) {
	stats, err := e.source.MovieStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute popularity ranking: %w", err)
	}
	RankByPopularity(stats)
	return stats, nil
}

func (e *Engine) appendStats(result *domain.RecommendationResult, ranked []domain.MovieStats, limit int) {
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		movie := ranked[i].Movie
		count := ranked[i].RatingCount
		result.Recommendations = append(result.Recommendations, domain.Recommendation{
			Movie:       &movie,
			MeanRating:  roundPtr(ranked[i].MeanRating, e.cfg.Precision),
			RatingCount: &count,
		})
	}
}

func (e *Engine) roundAffinities(affinities []domain.GenreAffinity) []domain.GenreAffinity {
	out := make([]domain.GenreAffinity, len(affinities))
	for i, a := range affinities {
		out[i] = domain.GenreAffinity{Genre: a.Genre, MeanScore: Round(a.MeanScore, e.cfg.Precision)}
	}
	return out
}
