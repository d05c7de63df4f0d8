package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/shopeasy/internal/config"
)

func TestRunBrowse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		products := "["
		for i := 1; i <= min(limit, 8); i++ {
			if i > 1 {
				products += ","
			}
			products += fmt.Sprintf(`{"id":%d,"title":"item %d","price":%d.5,"category":"misc"}`, i, i, i)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(products + "]"))
	}))
	defer server.Close()

	cfg := &config.Config{Catalog: config.Catalog{BaseURL: server.URL, Timeout: time.Second, PageSize: 6}}

	tests := []struct {
		name         string
		page         int
		expectedRows []string
		expectedMore bool
	}{
		{name: "first page", page: 1, expectedRows: []string{"item 1", "item 6"}, expectedMore: true},
		{name: "last page", page: 2, expectedRows: []string{"item 8"}, expectedMore: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out := bytes.Buffer{}

			err := RunBrowse(context.Background(), cfg, test.page, &out)

			require.NoError(t, err)
			assert.Contains(t, out.String(), "ID")
			for _, row := range test.expectedRows {
				assert.Contains(t, out.String(), row)
			}
			assert.Equal(t, test.expectedMore, bytes.Contains(out.Bytes(), []byte("--page")))
		})
	}

	err := RunBrowse(context.Background(), cfg, 0, &bytes.Buffer{})
	assert.Error(t, err)
}
