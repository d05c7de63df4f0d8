package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/shopeasy/internal/config"
)

const productJSON = `{"id":%d,"title":"Fjallraven Backpack","price":109.95,"description":"bag","category":"men's clothing","image":"https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg","rating":{"rate":3.9,"count":120}}`

func newCatalogServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(url string, reg prometheus.Registerer) *Client {
	return NewClient(
		config.Catalog{
			BaseURL: url,
			Timeout: time.Second,
			Breaker: config.Breaker{MaxFailures: 100, OpenTimeout: time.Second},
		},
		WithMetrics(NewMetrics(reg)),
	)
}

func TestFetchOne(t *testing.T) {
	tests := []struct {
		name         string
		handler      http.HandlerFunc
		expectedErr  error
		expectedID   int64
		expectedDesc string
	}{
		{
			name: "given existing product should decode it",
			handler: func(w http.ResponseWriter, r *http.Request) {
				id := strings.TrimPrefix(r.URL.Path, "/products/")
				fmt.Fprintf(w, productJSON, mustAtoi(t, id))
			},
			expectedID: 1,
		},
		{
			name: "given 404 should return not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectedErr: ErrNotFound,
		},
		{
			name: "given 400 should return not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			expectedErr: ErrNotFound,
		},
		{
			name: "given empty 200 body should return not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			expectedErr: ErrNotFound,
		},
		{
			name: "given null 200 body should return not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "null")
			},
			expectedErr: ErrNotFound,
		},
		{
			name: "given 503 should return unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			expectedErr: ErrUnavailable,
		},
		{
			name: "given malformed body should return unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"id":`)
			},
			expectedErr: ErrUnavailable,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := newCatalogServer(t, test.handler)
			cl := newTestClient(server.URL, nil)

			product, err := cl.FetchOne(context.Background(), 1)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expectedID, product.ID)
			assert.Equal(t, "109.95", product.Price.String())
			assert.Equal(t, 120, product.Rating.Count)
		})
	}
}

func TestFetchOneTransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cl := newTestClient(url, nil)
	_, err := cl.FetchOne(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchOneTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	cl := NewClient(config.Catalog{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := cl.FetchOne(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchOneConcurrentCallsAreIsolated(t *testing.T) {
	server := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		id := mustAtoi(t, strings.TrimPrefix(r.URL.Path, "/products/"))
		if id%2 == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, productJSON, id)
	})
	cl := newTestClient(server.URL, nil)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	products := make([]int64, 10)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := cl.FetchOne(context.Background(), int64(i+1))
			products[i], errs[i] = p.ID, err
		}()
	}
	wg.Wait()

	for i := range 10 {
		id := int64(i + 1)
		if id%2 == 0 {
			assert.ErrorIs(t, errs[i], ErrUnavailable, "id=%d", id)
			continue
		}
		assert.NoError(t, errs[i], "id=%d", id)
		assert.Equal(t, id, products[i])
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	})
	cl := NewClient(config.Catalog{
		BaseURL: server.URL,
		Timeout: time.Second,
		Breaker: config.Breaker{MaxFailures: 2, OpenTimeout: time.Minute},
	})

	for range 5 {
		_, err := cl.FetchOne(context.Background(), 1)
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	server := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	cl := NewClient(config.Catalog{
		BaseURL: server.URL,
		Timeout: time.Second,
		Breaker: config.Breaker{MaxFailures: 1, OpenTimeout: time.Minute},
	})

	for range 3 {
		_, err := cl.FetchOne(context.Background(), 1)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
}

func TestFetchPage(t *testing.T) {
	const total = 20
	server := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		limit := mustAtoi(t, r.URL.Query().Get("limit"))
		if limit > total {
			limit = total
		}
		items := make([]string, 0, limit)
		for i := range limit {
			items = append(items, fmt.Sprintf(productJSON, i+1))
		}
		fmt.Fprint(w, "["+strings.Join(items, ",")+"]")
	})

	tests := []struct {
		name          string
		limit         int
		expectedCount int
	}{
		{name: "given limit below catalog size should return limit products", limit: 6, expectedCount: 6},
		{name: "given limit above catalog size should return fewer products", limit: 24, expectedCount: total},
		{name: "given zero limit should return no products", limit: 0, expectedCount: 0},
	}

	reg := prometheus.NewRegistry()
	cl := newTestClient(server.URL, reg)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			products, err := cl.FetchPage(context.Background(), test.limit)
			require.NoError(t, err)
			assert.Len(t, products, test.expectedCount)
		})
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(
		cl.metrics.requests.WithLabelValues(OperationFetchPage, OutcomeOK),
	))
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	v, err := strconv.Atoi(s)
	require.NoError(t, err)
	return v
}
