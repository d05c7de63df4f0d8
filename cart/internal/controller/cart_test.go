package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/shopeasy/cart/internal/service"
	"github.com/Alturino/shopeasy/cart/internal/store"
	"github.com/Alturino/shopeasy/internal/validate"
	"github.com/Alturino/shopeasy/product/pkg/client"
	"github.com/Alturino/shopeasy/product/pkg/response"
)

type priceFetcher struct {
	mu     sync.Mutex
	prices map[int64]string
}

func (f *priceFetcher) FetchOne(c context.Context, id int64) (response.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price, ok := f.prices[id]
	if !ok {
		return response.Product{}, client.ErrUnavailable
	}
	return response.Product{ID: id, Title: fmt.Sprintf("product %d", id), Price: decimal.RequireFromString(price)}, nil
}

type envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       struct {
		Cart service.View `json:"cart"`
	} `json:"data"`
}

func newRouter(t *testing.T, fetcher *priceFetcher) (*mux.Router, *service.CartService) {
	t.Helper()
	svc := service.NewCartService(fetcher, nil)
	t.Cleanup(svc.Close)
	router := mux.NewRouter()
	AttachCartController(router, svc, validate.New())
	return router, svc
}

func do(t *testing.T, router http.Handler, method, target, body string) envelope {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	actual := envelope{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&actual))
	assert.Equal(t, rec.Code, actual.StatusCode)
	return actual
}

func TestDispatchIntent(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedLines  int
	}{
		{name: "add", body: `{"type":"add","productId":1}`, expectedStatus: http.StatusOK, expectedLines: 1},
		{name: "set quantity", body: `{"type":"set_quantity","productId":2,"quantity":3}`, expectedStatus: http.StatusOK, expectedLines: 1},
		{name: "set quantity zero on empty cart", body: `{"type":"set_quantity","productId":2,"quantity":0}`, expectedStatus: http.StatusOK, expectedLines: 0},
		{name: "set quantity over max", body: `{"type":"set_quantity","productId":1,"quantity":9223372036854775807}`, expectedStatus: http.StatusBadRequest},
		{name: "unknown type", body: `{"type":"checkout","productId":1}`, expectedStatus: http.StatusBadRequest},
		{name: "missing product id", body: `{"type":"add"}`, expectedStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"type":`, expectedStatus: http.StatusBadRequest},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			router, svc := newRouter(t, &priceFetcher{prices: map[int64]string{1: "1", 2: "2"}})

			actual := do(t, router, http.MethodPost, "/cart/intents", test.body)

			assert.Equal(t, test.expectedStatus, actual.StatusCode)
			if test.expectedStatus != http.StatusOK {
				assert.Equal(t, "failed", actual.Status)
				assert.Zero(t, svc.View().Version, "rejected intents never reach the cart")
				return
			}
			assert.Equal(t, "success", actual.Status)
			assert.Len(t, actual.Data.Cart.Lines, test.expectedLines)
		})
	}
}

func TestGetCart(t *testing.T) {
	router, svc := newRouter(t, &priceFetcher{prices: map[int64]string{1: "9.99"}})

	do(t, router, http.MethodPost, "/cart/intents", `{"type":"add","productId":1}`)
	do(t, router, http.MethodPost, "/cart/intents", `{"type":"add","productId":1}`)
	svc.Close()

	actual := do(t, router, http.MethodGet, "/cart", "")

	require.Len(t, actual.Data.Cart.Lines, 1)
	assert.Equal(t, "19.98", actual.Data.Cart.TotalFormatted)
	assert.Equal(t, 2, actual.Data.Cart.ItemCount)
	require.NotNil(t, actual.Data.Cart.Lines[0].Product)
	assert.Equal(t, "product 1", actual.Data.Cart.Lines[0].Product.Title)
}

func TestRetryItem(t *testing.T) {
	fetcher := &priceFetcher{prices: map[int64]string{}}
	router, svc := newRouter(t, fetcher)

	do(t, router, http.MethodPost, "/cart/intents", `{"type":"add","productId":4}`)
	svc.Close()

	actual := do(t, router, http.MethodPost, "/cart/items/abc/retry", "")
	assert.Equal(t, http.StatusBadRequest, actual.StatusCode)

	actual = do(t, router, http.MethodPost, "/cart/items/5/retry", "")
	assert.Equal(t, http.StatusConflict, actual.StatusCode)

	fetcher.mu.Lock()
	fetcher.prices[4] = "4"
	fetcher.mu.Unlock()

	actual = do(t, router, http.MethodPost, "/cart/items/4/retry", "")
	assert.Equal(t, http.StatusAccepted, actual.StatusCode)
	svc.Close()

	assert.Equal(t, "4.00", svc.View().TotalFormatted)
}

func TestStreamEvents(t *testing.T) {
	router, svc := newRouter(t, &priceFetcher{prices: map[int64]string{1: "2.50"}})
	server := httptest.NewServer(router)
	defer server.Close()

	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(c, http.MethodGet, server.URL+"/cart/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	next := func() service.View {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				view := service.View{}
				require.NoError(t, json.Unmarshal([]byte(data), &view))
				return view
			}
		}
	}

	initial := next()
	assert.Zero(t, initial.Version)
	assert.Empty(t, initial.Lines)

	svc.Dispatch(context.Background(), store.Add(1))

	var latest service.View
	for latest.Total.IsZero() {
		latest = next()
		require.Greater(t, latest.Version, initial.Version)
	}
	assert.Equal(t, "2.50", latest.TotalFormatted)
}
