// internal/store/user_store.go
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalog-service/internal/domain"
)

// Кастомные ошибки хранилища пользователей
var (
	ErrUserNotFound      = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrUserAlreadyExists = fmt.Errorf("user with this email already exists: %w", domain.ErrConflict)
)

// UserStore определяет интерфейс для операций с данными пользователей.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// MockUserStore для разработки без БД и тестов
type MockUserStore struct {
	mu           sync.RWMutex
	users        map[string]*domain.User // Ключ: UserID
	usersByEmail map[string]*domain.User // Ключ: Email
}

// NewMockUserStore создает пустой MockUserStore
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users:        make(map[string]*domain.User),
		usersByEmail: make(map[string]*domain.User),
	}
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByEmail[user.Email]; exists {
		return ErrUserAlreadyExists
	}
	if _, exists := m.users[user.ID]; exists {
		return ErrUserAlreadyExists
	}

	user.CreatedAt = time.Now().UTC()
	userCopy := *user
	m.users[user.ID] = &userCopy
	m.usersByEmail[user.Email] = &userCopy
	return nil
}

func (m *MockUserStore) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if user, ok := m.users[userID]; ok {
		userCopy := *user
		return &userCopy, nil
	}
	return nil, ErrUserNotFound
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if user, ok := m.usersByEmail[email]; ok {
		userCopy := *user
		return &userCopy, nil
	}
	return nil, ErrUserNotFound
}
