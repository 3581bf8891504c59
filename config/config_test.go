package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://fakestoreapi.com", cfg.StoreAPIURL)
	assert.Equal(t, ":8080", cfg.HTTPPort)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StorageFile, cfg.StorageDriver)
	assert.Equal(t, 1, cfg.ProfileUserID)
	assert.Equal(t, 12, cfg.PageSize)
	assert.True(t, decimal.NewFromInt(10).Equal(cfg.Shipping()))
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_API_URL", "http://localhost:3000")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("STORAGE_DRIVER", StorageRedis)
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SHIPPING_FEE", "4.99")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.StoreAPIURL)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.True(t, decimal.RequireFromString("4.99").Equal(cfg.Shipping()))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown storage driver", env: map[string]string{"STORAGE_DRIVER": "s3"}},
		{name: "redis without address", env: map[string]string{"STORAGE_DRIVER": StorageRedis}},
		{name: "postgres without url", env: map[string]string{"STORAGE_DRIVER": StoragePostgres}},
		{name: "non-numeric shipping", env: map[string]string{"SHIPPING_FEE": "ten"}},
		{name: "zero shipping", env: map[string]string{"SHIPPING_FEE": "0"}},
		{name: "zero page size", env: map[string]string{"PAGE_SIZE": "0"}},
		{name: "unknown exporter", env: map[string]string{"TRACING_EXPORTER": "zipkin"}},
		{name: "negative user id", env: map[string]string{"PROFILE_USER_ID": "-1"}},
		{name: "bad timeout", env: map[string]string{"REQUEST_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
