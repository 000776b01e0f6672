package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// stateStoreInMemory — простая in-memory реализация StateStore.
type stateStoreInMemory struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

// StateStore расширяет domain.StateStore счётчиком записей для тестов.
type StateStore interface {
	domain.StateStore
	// Writes возвращает количество успешных вызовов Set.
	Writes() int
}

// NewStateStore возвращает in-memory хранилище для локальной разработки и тестов.
func NewStateStore() StateStore {
	return &stateStoreInMemory{
		values: make(map[string]string),
	}
}

// NewStateStoreWithValues возвращает хранилище с заранее заполненными значениями.
func NewStateStoreWithValues(values map[string]string) StateStore {
	store := &stateStoreInMemory{
		values: make(map[string]string, len(values)),
	}
	for k, v := range values {
		store.values[k] = v
	}
	return store
}

// Get возвращает значение или ErrStateKeyNotFound, если его нет.
func (s *stateStoreInMemory) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", domain.ErrStateKeyRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", domain.ErrStateKeyNotFound
	}
	return value, nil
}

// Set перезаписывает значение по ключу.
func (s *stateStoreInMemory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrStateKeyRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.writes++
	return nil
}

// Ping всегда успешен для in-memory хранилища.
func (s *stateStoreInMemory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *stateStoreInMemory) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

var _ domain.StateStore = (*stateStoreInMemory)(nil)
