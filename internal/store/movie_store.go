// internal/store/movie_store.go
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"catalog-service/internal/domain"
)

var (
	ErrMovieNotFound = fmt.Errorf("movie %w", domain.ErrNotFound)
)

// MaxListMovies - верхняя граница списка каталога.
const MaxListMovies = 100

// MovieStore - провайдер каталога фильмов.
type MovieStore interface {
	Create(ctx context.Context, movie *domain.Movie) error
	GetByID(ctx context.Context, id string) (*domain.Movie, error)
	Update(ctx context.Context, movie *domain.Movie) error
	UpdateCover(ctx context.Context, id, coverURL string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]*domain.Movie, error)
}

// MockMovieStore хранит фильмы в памяти.
type MockMovieStore struct {
	mu     sync.RWMutex
	movies map[string]*domain.Movie
	// onDelete вызывается под блокировкой после удаления фильма (каскад для оценок).
	onDelete func(movieID string)
}

func NewMockMovieStore() *MockMovieStore {
	return &MockMovieStore{movies: make(map[string]*domain.Movie)}
}

func (m *MockMovieStore) Create(ctx context.Context, movie *domain.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.movies[movie.ID]; exists {
		return fmt.Errorf("movie %s: %w", movie.ID, domain.ErrConflict)
	}
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}
	movie.UpdatedAt = movie.CreatedAt
	movieCopy := *movie
	m.movies[movie.ID] = &movieCopy
	return nil
}

func (m *MockMovieStore) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if movie, ok := m.movies[id]; ok {
		movieCopy := *movie
		return &movieCopy, nil
	}
	return nil, ErrMovieNotFound
}

func (m *MockMovieStore) Update(ctx context.Context, movie *domain.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.movies[movie.ID]
	if !ok {
		return ErrMovieNotFound
	}
	existing.Title = movie.Title
	existing.Genre = movie.Genre
	existing.Director = movie.Director
	existing.UpdatedAt = time.Now().UTC()
	*movie = *existing
	return nil
}

func (m *MockMovieStore) UpdateCover(ctx context.Context, id, coverURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.movies[id]
	if !ok {
		return ErrMovieNotFound
	}
	existing.CoverURL = &coverURL
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockMovieStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.movies[id]; !ok {
		return ErrMovieNotFound
	}
	delete(m.movies, id)
	if m.onDelete != nil {
		m.onDelete(id)
	}
	return nil
}

// List возвращает фильмы от новых к старым.
func (m *MockMovieStore) List(ctx context.Context, limit int) ([]*domain.Movie, error) {
	all := m.snapshot()
	if limit <= 0 || limit > MaxListMovies {
		limit = MaxListMovies
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// snapshot возвращает копии всех фильмов, отсортированные по дате создания (новые первыми).
func (m *MockMovieStore) snapshot() []*domain.Movie {
	m.mu.RLock()
	defer m.mu.RUnlock()
	movies := make([]*domain.Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		movieCopy := *movie
		movies = append(movies, &movieCopy)
	}
	sortNewestFirst(movies)
	return movies
}

func sortNewestFirst(movies []*domain.Movie) {
	sort.SliceStable(movies, func(i, j int) bool {
		if !movies[i].CreatedAt.Equal(movies[j].CreatedAt) {
			return movies[i].CreatedAt.After(movies[j].CreatedAt)
		}
		return movies[i].ID < movies[j].ID
	})
}
