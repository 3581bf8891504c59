package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	redisStateHash      = "storefront:state"
	redisConnectRetries = 5
)

// redisStateRepository stores every key as a field of one Redis hash.
type redisStateRepository struct {
	client *redis.Client
	log    *logrus.Logger
}

// NewRedisStateRepository accepts either a redis:// URL or a plain host:port.
func NewRedisStateRepository(redisAddr string, logger *logrus.Logger) (domain.StateRepository, error) {
	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		if redisAddr == "" {
			return nil, fmt.Errorf("redis address cannot be empty")
		}
		opts = &redis.Options{
			Addr:         redisAddr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     4,
		}
	}

	return &redisStateRepository{
		client: redis.NewClient(opts),
		log:    logger,
	}, nil
}

// Initialize pings Redis with exponential backoff until it answers or the retries run out.
func (r *redisStateRepository) Initialize(ctx context.Context) error {
	r.log.Info("Repository: Initializing Redis state store...")
	for i := 0; i < redisConnectRetries; i++ {
		if r.Ping(ctx) {
			r.log.Infof("Repository: Redis ping successful on attempt %d", i+1)
			return nil
		}

		backoff := time.Duration(500*(1<<uint(i))) * time.Millisecond
		r.log.Warnf("Repository: Redis ping failed (attempt %d/%d), retrying in %v", i+1, redisConnectRetries, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("failed to connect to Redis after %d attempts", redisConnectRetries)
}

func (r *redisStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.HGet(ctx, redisStateHash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		r.log.Errorf("Repository: Redis HGet '%s' failed: %v", key, err)
		return nil, fmt.Errorf("redis HGet error: %w", err)
	}
	return val, nil
}

func (r *redisStateRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.HSet(ctx, redisStateHash, key, value).Err(); err != nil {
		r.log.Errorf("Repository: Redis HSet '%s' failed: %v", key, err)
		return fmt.Errorf("redis HSet error: %w", err)
	}
	return nil
}

func (r *redisStateRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.HDel(ctx, redisStateHash, key).Err(); err != nil {
		r.log.Errorf("Repository: Redis HDel '%s' failed: %v", key, err)
		return fmt.Errorf("redis HDel error: %w", err)
	}
	return nil
}

func (r *redisStateRepository) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.log.Debugf("Repository: Redis ping failed: %v", err)
		return false
	}
	return true
}

func (r *redisStateRepository) Close() error {
	r.log.Info("Repository: Closing Redis connection")
	return r.client.Close()
}
