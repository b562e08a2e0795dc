// internal/store/postgres_rating_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"catalog-service/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRatingStore реализует RatingStore для PostgreSQL (таблица avaliacoes).
type PostgresRatingStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresRatingStore создает новый экземпляр PostgresRatingStore.
func NewPostgresRatingStore(db *sqlx.DB, logger *slog.Logger) (*PostgresRatingStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresRatingStore")
	}
	return &PostgresRatingStore{db: db, logger: logger}, nil
}

// Upsert пишет оценку одним атомарным INSERT ... ON CONFLICT.
// Конкурентные записи одной пары сериализует сама БД: побеждает последний.
func (s *PostgresRatingStore) Upsert(ctx context.Context, userID, movieID string, score int) (bool, error) {
	if _, err := domain.ValidateScore(score); err != nil {
		return false, err
	}
	query := `INSERT INTO avaliacoes (usuario_id, filme_id, nota, atualizado_em)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (usuario_id, filme_id)
              DO UPDATE SET nota = EXCLUDED.nota, atualizado_em = EXCLUDED.atualizado_em
              RETURNING (xmax = 0) AS inserted`

	s.logger.DebugContext(ctx, "Executing Upsert rating query",
		slog.String("userID", userID), slog.String("movieID", movieID), slog.Int("score", score))

	var inserted bool
	err := s.db.QueryRowxContext(ctx, query, userID, movieID, score, time.Now().UTC()).Scan(&inserted)
	if err != nil {
		switch pqCode(err) {
		case foreignKeyViolation, invalidTextRepr:
			s.logger.WarnContext(ctx, "Rating rejected: unknown movie or user", slog.String("movieID", movieID), slog.String("userID", userID))
			return false, domain.NewValidationError("movie_id", "unknown movie")
		case checkViolation:
			return false, domain.NewValidationError("score", "must be between 1 and 5")
		}
		s.logger.ErrorContext(ctx, "Failed to upsert rating in DB", slog.String("error", err.Error()))
		return false, fmt.Errorf("failed to upsert rating: %w", err)
	}
	s.logger.InfoContext(ctx, "Rating stored in DB", slog.String("movieID", movieID), slog.Bool("created", inserted))
	return inserted, nil
}

// Get возвращает оценку пользователя или nil.
func (s *PostgresRatingStore) Get(ctx context.Context, userID, movieID string) (*int, error) {
	query := `SELECT nota FROM avaliacoes WHERE usuario_id = $1 AND filme_id = $2`
	var score int
	err := s.db.GetContext(ctx, &score, query, userID, movieID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Failed to get rating from DB", slog.String("movieID", movieID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &score, nil
}

// ListByUser возвращает оценки пользователя, новые первыми.
func (s *PostgresRatingStore) ListByUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	query := `SELECT usuario_id, filme_id, nota, atualizado_em FROM avaliacoes
              WHERE usuario_id = $1 ORDER BY atualizado_em DESC, filme_id`
	ratings := []domain.Rating{}
	if err := s.db.SelectContext(ctx, &ratings, query, userID); err != nil {
		if isInvalidText(err) {
			return []domain.Rating{}, nil
		}
		s.logger.ErrorContext(ctx, "Failed to list user ratings from DB", slog.String("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return ratings, nil
}

// MovieAggregate считает среднюю оценку и количество оценок фильма.
// Для фильма без оценок (или несуществующего) mean_rating остается NULL.
func (s *PostgresRatingStore) MovieAggregate(ctx context.Context, movieID string) (domain.MovieAggregate, error) {
	query := `SELECT AVG(a.nota)::float8 AS mean_rating, COUNT(a.nota) AS rating_count
              FROM avaliacoes a JOIN filmes f ON f.id = a.filme_id
              WHERE a.filme_id = $1`
	agg := domain.MovieAggregate{MovieID: movieID}
	if err := s.db.GetContext(ctx, &agg, query, movieID); err != nil {
		if isInvalidText(err) {
			return domain.MovieAggregate{MovieID: movieID}, nil
		}
		s.logger.ErrorContext(ctx, "Failed to get movie aggregate from DB", slog.String("movieID", movieID), slog.String("error", err.Error()))
		return domain.MovieAggregate{}, fmt.Errorf("failed to get aggregate for movie %s: %w", movieID, err)
	}
	agg.MovieID = movieID
	return agg, nil
}

// MovieStats возвращает все фильмы с их агрегатами. Порядок не гарантируется.
func (s *PostgresRatingStore) MovieStats(ctx context.Context) ([]domain.MovieStats, error) {
	query := `SELECT f.id, f.titulo, f.genero, f.diretor, f.imagem_s3_url, f.criado_em, f.atualizado_em,
                     AVG(a.nota)::float8 AS mean_rating, COUNT(a.nota) AS rating_count
              FROM filmes f
              LEFT JOIN avaliacoes a ON a.filme_id = f.id
              GROUP BY f.id`
	stats := []domain.MovieStats{}
	if err := s.db.SelectContext(ctx, &stats, query); err != nil {
		s.logger.ErrorContext(ctx, "Failed to compute movie stats in DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to compute movie stats: %w", err)
	}
	return stats, nil
}

// GenreAffinities считает среднюю оценку пользователя по каждому жанру.
// Фильмы без жанра в расчет не попадают.
func (s *PostgresRatingStore) GenreAffinities(ctx context.Context, userID string) ([]domain.GenreAffinity, error) {
	query := `SELECT f.genero AS genre, AVG(a.nota)::float8 AS mean_score
              FROM avaliacoes a
              JOIN filmes f ON f.id = a.filme_id
              WHERE a.usuario_id = $1 AND f.genero IS NOT NULL
              GROUP BY f.genero
              ORDER BY mean_score DESC, f.genero ASC`
	affinities := []domain.GenreAffinity{}
	if err := s.db.SelectContext(ctx, &affinities, query, userID); err != nil {
		if isInvalidText(err) {
			return []domain.GenreAffinity{}, nil
		}
		s.logger.ErrorContext(ctx, "Failed to compute genre affinities in DB", slog.String("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to compute genre affinities: %w", err)
	}
	return affinities, nil
}

// UnratedMoviesInGenres выбирает фильмы заданных жанров, которые пользователь еще не оценил,
// от новых к старым.
func (s *PostgresRatingStore) UnratedMoviesInGenres(ctx context.Context, userID string, genres []string, limit int) ([]*domain.Movie, error) {
	movies := []*domain.Movie{}
	if len(genres) == 0 || limit <= 0 {
		return movies, nil
	}
	query := `SELECT ` + movieColumns + `
              FROM filmes f
              WHERE f.genero = ANY($1)
                AND NOT EXISTS (SELECT 1 FROM avaliacoes a WHERE a.filme_id = f.id AND a.usuario_id = $2)
              ORDER BY f.criado_em DESC, f.id
              LIMIT $3`
	if err := s.db.SelectContext(ctx, &movies, query, pq.Array(genres), userID, limit); err != nil {
		if isInvalidText(err) {
			return []*domain.Movie{}, nil
		}
		s.logger.ErrorContext(ctx, "Failed to select unrated movies in DB", slog.String("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to select unrated movies: %w", err)
	}
	return movies, nil
}
