package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	c := context.Background()
	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Errorf("failed to terminate container: %s", err)
		}
	})

	connStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	opt, err := redis.ParseURL(connStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })
	if err = client.Ping(c).Err(); err != nil {
		t.Fatalf("failed ping redis client with error: %s", err)
	}
	return client
}

func TestCachedClientFetchOne(t *testing.T) {
	redisClient := setupRedis(t)

	var calls atomic.Int32
	server := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/products/404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		time.Sleep(20 * time.Millisecond)
		fmt.Fprintf(w, productJSON, 1)
	})
	cached := NewCachedClient(newTestClient(server.URL, nil), redisClient, time.Minute, nil)
	c := context.Background()

	t.Run("given concurrent misses should call catalog once", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				product, err := cached.FetchOne(c, 1)
				assert.NoError(t, err)
				assert.Equal(t, int64(1), product.ID)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("given cached product should not call catalog", func(t *testing.T) {
		product, err := cached.FetchOne(c, 1)
		require.NoError(t, err)
		assert.Equal(t, "109.95", product.Price.String())
		assert.Equal(t, int32(1), calls.Load())

		ttl, err := redisClient.TTL(c, fmt.Sprintf(KeyProducts, 1)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("given not found should not cache the failure", func(t *testing.T) {
		before := calls.Load()
		for range 2 {
			_, err := cached.FetchOne(c, 404)
			assert.ErrorIs(t, err, ErrNotFound)
		}
		assert.Equal(t, before+2, calls.Load())

		exists, err := redisClient.Exists(c, fmt.Sprintf(KeyProducts, 404)).Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})
}
