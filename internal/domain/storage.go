package domain

import "context"

// StateRepository persists small opaque values under string keys, the way a
// browser's local storage would. Get returns ErrKeyNotFound for absent keys.
type StateRepository interface {
	Initialize(ctx context.Context) error

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) bool
	Close() error
}
