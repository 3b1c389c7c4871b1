package catalogapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain"
)

// newTestClient returns a client with fast retries pointed at server
func newTestClient(server *httptest.Server) *Client {
	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "test-api-key", RequestsPerSecond: 1000, Burst: 100})
	client.backoffBase = time.Millisecond
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://api.example.com/", APIKey: "test-api-key"})

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.Equal(t, defaultMaxAttempts, client.maxAttempts)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://api.example.com"})

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(500*time.Millisecond, tt.attempt))
		})
	}
}

func TestFetchProducts_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"_id":"p1","name":"iPhone 11","category":"phone","colors":[{"colorName":"Black"}],"model":["iPhone 11"],"price":699,"stock":3,"rating":4.5},
			{"id":2,"name":"Case for [MODEL]","category":{"name":"accessory"},"price":19.99}
		]`))
	}))
	defer server.Close()

	products, err := newTestClient(server).FetchProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, []domain.Color{{Name: "Black"}}, products[0].Colors)
	assert.Equal(t, "2", products[1].ID)
	assert.Equal(t, "accessory", products[1].Category)
	assert.Empty(t, products[1].Subcategory)
}

func TestFetchProducts_Envelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[{"id":"a","name":"Laptop"}]}`))
	}))
	defer server.Close()

	products, err := newTestClient(server).FetchProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Laptop", products[0].Name)
}

func TestFetchProducts_NotFound(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	products, err := newTestClient(server).FetchProducts(context.Background())

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestFetchProducts_ServerError_Retries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"id":"1","name":"Success after retry"}]`))
	}))
	defer server.Close()

	products, err := newTestClient(server).FetchProducts(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestFetchProducts_ServerError_GivesUp(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchProducts(context.Background())

	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Equal(t, int32(defaultMaxAttempts), atomic.LoadInt32(&attempts))
}

func TestFetchProducts_ClientError_NoRetry(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchProducts(context.Background())

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts)) // Should not retry 4xx errors
}

func TestFetchProducts_TooManyRequests_Retries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	products, err := newTestClient(server).FetchProducts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestFetchProducts_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	products, err := newTestClient(server).FetchProducts(context.Background())

	assert.Nil(t, products)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestFetchProducts_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	products, err := newTestClient(server).FetchProducts(ctx)

	assert.Nil(t, products)
	assert.Error(t, err)
}

func TestFetchVocabulary_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/categories":
			w.Write([]byte(`[{"name":"phone"},{"name":"laptop"}]`))
		case "/subcategories":
			w.Write([]byte(`["android","ios"]`))
		case "/colors":
			w.Write([]byte(`[{"colorName":"Black"},{"colorName":""}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	vocab, err := newTestClient(server).FetchVocabulary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"phone", "laptop"}, vocab.Categories)
	assert.Equal(t, []string{"android", "ios"}, vocab.Subcategories)
	assert.Equal(t, []string{"Black"}, vocab.Colors)
}

func TestFetchVocabulary_PartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/colors" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	vocab, err := newTestClient(server).FetchVocabulary(context.Background())

	assert.Nil(t, vocab)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}
