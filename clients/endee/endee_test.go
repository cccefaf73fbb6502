package endee

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/supportstack/triage/internal/retry"
)

func newTestClient(serverURL string) *Client {
	c := NewClient(serverURL, "test-token", zerolog.Nop())
	// Keep retries fast in tests.
	c.RetryConfig = retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiple: 2.0}
	return c
}

func TestSearch_MsgpackResponse(t *testing.T) {
	want := []SearchResult{
		{ID: "ticket_1", Distance: 0.12},
		{ID: "ticket_2", Distance: 0.48},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/index/support_tickets/search", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.K)
		assert.Len(t, req.Vector, 3)

		packed, err := msgpack.Marshal(want)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/msgpack")
		w.Write(packed)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	results, err := client.Search(context.Background(), "support_tickets", []float32{0.1, 0.2, 0.3}, 5)
	require.NoError(t, err)
	assert.Equal(t, want, results)
}

func TestSearch_JSONFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{Results: []SearchResult{{ID: "a", Distance: 1.5}}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	results, err := client.Search(context.Background(), "idx", []float32{1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, 1.5, results[0].Distance)
}

func TestSearch_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	results, err := client.Search(context.Background(), "idx", []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"id": "x", "distance": 0.3}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	results, err := client.Search(context.Background(), "idx", []float32{1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_NoRetryOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Search(context.Background(), "idx", []float32{1}, 1)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateIndex_SpaceTypeMapping(t *testing.T) {
	tests := []struct {
		metric    string
		spaceType string
	}{
		{metric: "cosine", spaceType: "cosine"},
		{metric: "euclidean", spaceType: "l2"},
		{metric: "dot", spaceType: "ip"},
		{metric: "dot_product", spaceType: "ip"},
		{metric: "something_else", spaceType: "cosine"},
	}

	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/index/create", r.URL.Path)

				var req createIndexRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "tickets", req.IndexName)
				assert.Equal(t, 384, req.Dim)
				assert.Equal(t, tt.spaceType, req.SpaceType)

				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			require.NoError(t, client.CreateIndex(context.Background(), "tickets", 384, tt.metric))
		})
	}
}

func TestInsertVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/index/tickets/vector/insert", r.URL.Path)

		// The payload is a bare array, not an envelope.
		var vectors []Vector
		require.NoError(t, json.NewDecoder(r.Body).Decode(&vectors))
		require.Len(t, vectors, 2)
		assert.Equal(t, "t1", vectors[0].ID)
		assert.Equal(t, "Technical", vectors[0].Metadata["category"])

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.InsertVectors(context.Background(), "tickets", []Vector{
		{ID: "t1", Values: []float32{0.1, 0.2}, Metadata: map[string]any{"category": "Technical"}},
		{ID: "t2", Values: []float32{0.3, 0.4}},
	})
	require.NoError(t, err)
}

func TestInsertVectors_EmptyIsNoop(t *testing.T) {
	client := newTestClient("http://unreachable.invalid")
	require.NoError(t, client.InsertVectors(context.Background(), "tickets", nil))
}

func TestListIndexes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"indexes": ["support_tickets", "archive"]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	indexes, err := client.ListIndexes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"support_tickets", "archive"}, indexes)
}

func TestIndexStats_Msgpack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		packed, err := msgpack.Marshal(IndexStats{VectorCount: 8469, Dimension: 384, SpaceType: "cosine"})
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/x-msgpack")
		w.Write(packed)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	stats, err := client.IndexStats(context.Background(), "support_tickets")
	require.NoError(t, err)
	assert.Equal(t, 8469, stats.VectorCount)
	assert.Equal(t, 384, stats.Dimension)
}
