package storage

import (
	"context"
	"strings"
	"sync"
)

// MemoryCoverStore хранит обложки в памяти. Используется без настроенного бакета и в тестах.
type MemoryCoverStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]StoredObject
}

type StoredObject struct {
	ContentType string
	Data        []byte
}

func NewMemoryCoverStore(baseURL string) *MemoryCoverStore {
	if baseURL == "" {
		baseURL = "memory://covers"
	}
	return &MemoryCoverStore{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]StoredObject)}
}

func (m *MemoryCoverStore) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key = SanitizeKey(key)
	data := make([]byte, len(body))
	copy(data, body)

	m.mu.Lock()
	m.objects[key] = StoredObject{ContentType: contentType, Data: data}
	m.mu.Unlock()
	return m.baseURL + "/" + key, nil
}

// Object возвращает сохраненный объект.
func (m *MemoryCoverStore) Object(key string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len возвращает количество сохраненных объектов.
func (m *MemoryCoverStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
