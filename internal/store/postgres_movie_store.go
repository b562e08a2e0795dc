// internal/store/postgres_movie_store.go
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
)

const movieColumns = `id, titulo, genero, diretor, imagem_s3_url, criado_em, atualizado_em`

// PostgresMovieStore реализует MovieStore для PostgreSQL (таблица filmes).
type PostgresMovieStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresMovieStore создает новый экземпляр PostgresMovieStore.
func NewPostgresMovieStore(db *sqlx.DB, logger *slog.Logger) (*PostgresMovieStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresMovieStore{db: db, logger: logger}, nil
}

// Create создает новый фильм в базе данных.
func (s *PostgresMovieStore) Create(ctx context.Context, movie *domain.Movie) error {
	query := `INSERT INTO filmes (` + movieColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	movie.CreatedAt = time.Now().UTC()
	movie.UpdatedAt = movie.CreatedAt

	s.logger.DebugContext(ctx, "Executing Create movie query", slog.String("movieID", movie.ID), slog.String("title", movie.Title))
	_, err := s.db.ExecContext(ctx, query,
		movie.ID, movie.Title, movie.Genre, movie.Director, movie.CoverURL,
		movie.CreatedAt, movie.UpdatedAt,
	)
	if err != nil {
		switch pqCode(err) {
		case uniqueViolation:
			return fmt.Errorf("movie %s: %w", movie.ID, domain.ErrConflict)
		case checkViolation:
			return domain.NewValidationError("title", "must not be empty")
		}
		s.logger.ErrorContext(ctx, "Failed to create movie in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create movie: %w", err)
	}
	s.logger.InfoContext(ctx, "Movie created successfully in DB", slog.String("movieID", movie.ID))
	return nil
}

// GetByID находит фильм по его ID.
func (s *PostgresMovieStore) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM filmes WHERE id = $1`
	var movie domain.Movie

	err := s.db.GetContext(ctx, &movie, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			s.logger.WarnContext(ctx, "Movie not found by ID in DB", slog.String("movieID", id))
			return nil, ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get movie by ID: %w", err)
	}
	return &movie, nil
}

// Update обновляет метаданные фильма и возвращает актуальную запись в movie.
func (s *PostgresMovieStore) Update(ctx context.Context, movie *domain.Movie) error {
	query := `UPDATE filmes SET titulo = $1, genero = $2, diretor = $3, atualizado_em = $4
              WHERE id = $5 RETURNING ` + movieColumns

	s.logger.DebugContext(ctx, "Executing Update movie query", slog.String("movieID", movie.ID))
	err := s.db.GetContext(ctx, movie, query, movie.Title, movie.Genre, movie.Director, time.Now().UTC(), movie.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return ErrMovieNotFound
		}
		if pqCode(err) == checkViolation {
			return domain.NewValidationError("title", "must not be empty")
		}
		s.logger.ErrorContext(ctx, "Failed to update movie in DB", slog.String("movieID", movie.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update movie: %w", err)
	}
	s.logger.InfoContext(ctx, "Movie updated successfully in DB", slog.String("movieID", movie.ID))
	return nil
}

// UpdateCover сохраняет ссылку на обложку фильма.
func (s *PostgresMovieStore) UpdateCover(ctx context.Context, id, coverURL string) error {
	query := `UPDATE filmes SET imagem_s3_url = $1, atualizado_em = $2 WHERE id = $3`
	return s.execAffectingMovie(ctx, "update cover", id, query, coverURL, time.Now().UTC(), id)
}

// Delete удаляет фильм. Оценки удаляются каскадно (ON DELETE CASCADE).
func (s *PostgresMovieStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM filmes WHERE id = $1`
	return s.execAffectingMovie(ctx, "delete", id, query, id)
}

// List возвращает фильмы от новых к старым.
func (s *PostgresMovieStore) List(ctx context.Context, limit int) ([]*domain.Movie, error) {
	if limit <= 0 || limit > MaxListMovies {
		limit = MaxListMovies
	}
	query := `SELECT ` + movieColumns + ` FROM filmes ORDER BY criado_em DESC, id LIMIT $1`

	movies := []*domain.Movie{}
	if err := s.db.SelectContext(ctx, &movies, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

func (s *PostgresMovieStore) execAffectingMovie(ctx context.Context, op, id, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isInvalidText(err) {
			return ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to "+op+" movie in DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to %s movie: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s result: %w", op, err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No movie found to "+op, slog.String("movieID", id))
		return ErrMovieNotFound
	}
	s.logger.InfoContext(ctx, "Movie "+op+" succeeded in DB", slog.String("movieID", id))
	return nil
}
