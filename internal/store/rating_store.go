// internal/store/rating_store.go
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"catalog-service/internal/domain"
)

// RatingStore - хранилище оценок и источник агрегатов.
// Агрегаты всегда считаются заново из текущих оценок и нигде не кешируются.
type RatingStore interface {
	// Upsert создает или перезаписывает оценку пары (userID, movieID).
	// Возвращает created=true, если запись была создана.
	Upsert(ctx context.Context, userID, movieID string, score int) (created bool, err error)
	// Get возвращает оценку пользователя или nil, если он не оценивал фильм.
	Get(ctx context.Context, userID, movieID string) (*int, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Rating, error)

	MovieAggregate(ctx context.Context, movieID string) (domain.MovieAggregate, error)
	MovieStats(ctx context.Context) ([]domain.MovieStats, error)
	GenreAffinities(ctx context.Context, userID string) ([]domain.GenreAffinity, error)
	UnratedMoviesInGenres(ctx context.Context, userID string, genres []string, limit int) ([]*domain.Movie, error)
}

type ratingKey struct {
	userID  string
	movieID string
}

// MockRatingStore хранит оценки в памяти поверх MockMovieStore.
// Удаление фильма в MockMovieStore каскадно удаляет его оценки.
type MockRatingStore struct {
	mu      sync.RWMutex
	ratings map[ratingKey]domain.Rating
	movies  *MockMovieStore
	now     func() time.Time
}

func NewMockRatingStore(movies *MockMovieStore) *MockRatingStore {
	m := &MockRatingStore{
		ratings: make(map[ratingKey]domain.Rating),
		movies:  movies,
		now:     func() time.Time { return time.Now().UTC() },
	}
	movies.onDelete = m.deleteForMovie
	return m
}

func (m *MockRatingStore) Upsert(ctx context.Context, userID, movieID string, score int) (bool, error) {
	if _, err := domain.ValidateScore(score); err != nil {
		return false, err
	}
	if _, err := m.movies.GetByID(ctx, movieID); err != nil {
		return false, domain.NewValidationError("movie_id", "unknown movie")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := ratingKey{userID: userID, movieID: movieID}
	_, exists := m.ratings[key]
	m.ratings[key] = domain.Rating{UserID: userID, MovieID: movieID, Score: score, UpdatedAt: m.now()}
	return !exists, nil
}

func (m *MockRatingStore) Get(ctx context.Context, userID, movieID string) (*int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.ratings[ratingKey{userID: userID, movieID: movieID}]; ok {
		score := r.Score
		return &score, nil
	}
	return nil, nil
}

func (m *MockRatingStore) ListByUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Rating{}
	for k, r := range m.ratings {
		if k.userID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].MovieID < out[j].MovieID
	})
	return out, nil
}

func (m *MockRatingStore) MovieAggregate(ctx context.Context, movieID string) (domain.MovieAggregate, error) {
	agg := domain.MovieAggregate{MovieID: movieID}
	if _, err := m.movies.GetByID(ctx, movieID); err != nil {
		return agg, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for k, r := range m.ratings {
		if k.movieID == movieID {
			sum += int64(r.Score)
			agg.RatingCount++
		}
	}
	agg.MeanRating = mean(sum, agg.RatingCount)
	return agg, nil
}

func (m *MockRatingStore) MovieStats(ctx context.Context) ([]domain.MovieStats, error) {
	movies := m.movies.snapshot()

	m.mu.RLock()
	defer m.mu.RUnlock()
	sums := make(map[string]int64)
	counts := make(map[string]int64)
	for k, r := range m.ratings {
		sums[k.movieID] += int64(r.Score)
		counts[k.movieID]++
	}
	stats := make([]domain.MovieStats, 0, len(movies))
	for _, movie := range movies {
		stats = append(stats, domain.MovieStats{
			Movie:       *movie,
			MeanRating:  mean(sums[movie.ID], counts[movie.ID]),
			RatingCount: counts[movie.ID],
		})
	}
	return stats, nil
}

func (m *MockRatingStore) GenreAffinities(ctx context.Context, userID string) ([]domain.GenreAffinity, error) {
	genres := make(map[string]string)
	for _, movie := range m.movies.snapshot() {
		if movie.Genre != nil {
			genres[movie.ID] = *movie.Genre
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	sums := make(map[string]int64)
	counts := make(map[string]int64)
	for k, r := range m.ratings {
		genre, ok := genres[k.movieID]
		if k.userID != userID || !ok {
			continue
		}
		sums[genre] += int64(r.Score)
		counts[genre]++
	}
	out := make([]domain.GenreAffinity, 0, len(counts))
	for genre, n := range counts {
		out = append(out, domain.GenreAffinity{Genre: genre, MeanScore: *mean(sums[genre], n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanScore != out[j].MeanScore {
			return out[i].MeanScore > out[j].MeanScore
		}
		return out[i].Genre < out[j].Genre
	})
	return out, nil
}

func (m *MockRatingStore) UnratedMoviesInGenres(ctx context.Context, userID string, genres []string, limit int) ([]*domain.Movie, error) {
	out := []*domain.Movie{}
	if len(genres) == 0 || limit <= 0 {
		return out, nil
	}
	wanted := make(map[string]bool, len(genres))
	for _, g := range genres {
		wanted[g] = true
	}
	movies := m.movies.snapshot()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, movie := range movies {
		if movie.Genre == nil || !wanted[*movie.Genre] {
			continue
		}
		if _, rated := m.ratings[ratingKey{userID: userID, movieID: movie.ID}]; rated {
			continue
		}
		out = append(out, movie)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockRatingStore) deleteForMovie(movieID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.ratings {
		if k.movieID == movieID {
			delete(m.ratings, k)
		}
	}
}

func mean(sum, count int64) *float64 {
	if count == 0 {
		return nil
	}
	v := float64(sum) / float64(count)
	return &v
}
