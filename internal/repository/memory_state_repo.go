package repository

import (
	"context"
	"sync"

	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
)

// memoryStateRepository keeps state for the lifetime of the process only.
type memoryStateRepository struct {
	mu    sync.RWMutex
	store map[string][]byte
	log   *logrus.Logger
}

func NewMemoryStateRepository(logger *logrus.Logger) domain.StateRepository {
	return &memoryStateRepository{
		store: make(map[string][]byte),
		log:   logger,
	}
}

func (r *memoryStateRepository) Initialize(ctx context.Context) error {
	r.log.Info("Repository: In-memory state store initialized")
	return nil
}

func (r *memoryStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.store[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (r *memoryStateRepository) Set(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[key] = append([]byte(nil), value...)
	r.log.Debugf("Repository: Stored %d bytes under key '%s'", len(value), key)
	return nil
}

func (r *memoryStateRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store, key)
	return nil
}

func (r *memoryStateRepository) Ping(ctx context.Context) bool {
	return true
}

func (r *memoryStateRepository) Close() error {
	return nil
}
