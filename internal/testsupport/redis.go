package testsupport

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"finassist/internal/adapters/config"
)

// NewRedisClient starts an in-process miniredis server and returns a client
// connected to it. Both are closed on test cleanup.
func NewRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, server
}

// NewIntegrationRedisClient connects to the Redis named by REDIS_HOST and
// flushes its database around the test. The test is skipped when REDIS_HOST
// is unset.
func NewIntegrationRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set, skipping redis integration test")
	}

	cfg := config.RedisConfig{Host: host, Port: 6379, Password: os.Getenv("REDIS_PASSWORD")}
	if p, err := strconv.Atoi(os.Getenv("REDIS_PORT")); err == nil {
		cfg.Port = p
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}
