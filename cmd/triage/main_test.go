package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportstack/triage/clients/endee"
	"github.com/supportstack/triage/metadata"
)

const loadTestCSV = `Ticket Subject,Ticket Description,Ticket Type
Cannot log in,Password reset link broken,Account Access
Double charge,I was charged twice,Billing
`

// fakeEndee records the index operations the loader performs.
type fakeEndee struct {
	mu       sync.Mutex
	indexes  []string
	deleted  []string
	created  []string
	inserted int
}

func (f *fakeEndee) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/index/list", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{"indexes": f.indexes})
	})

	mux.HandleFunc("POST /api/v1/index/create", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IndexName string `json:"index_name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.created = append(f.created, req.IndexName)
		f.mu.Unlock()
	})

	mux.HandleFunc("DELETE /api/v1/index/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("name"))
		f.mu.Unlock()
	})

	mux.HandleFunc("POST /api/v1/index/{name}/vector/insert", func(w http.ResponseWriter, r *http.Request) {
		var vectors []endee.Vector
		require.NoError(t, json.NewDecoder(r.Body).Decode(&vectors))
		f.mu.Lock()
		f.inserted += len(vectors)
		f.mu.Unlock()
	})

	return mux
}

func stubEmbed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func newLoadTestStore(t *testing.T) *metadata.Store {
	t.Helper()
	store, err := metadata.NewStoreFromReader(strings.NewReader(loadTestCSV), metadata.Config{})
	require.NoError(t, err)
	return store
}

func TestLoadDataset_FreshIndex(t *testing.T) {
	fake := &fakeEndee{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	client := endee.NewClient(server.URL, "", zerolog.Nop())
	err := loadDataset(context.Background(), client, stubEmbed, newLoadTestStore(t), "ticket_", "support_tickets", zerolog.Nop())
	require.NoError(t, err)

	assert.Empty(t, fake.deleted)
	assert.Equal(t, []string{"support_tickets"}, fake.created)
	assert.Equal(t, 2, fake.inserted)
}

func TestLoadDataset_ExistingIndexIsRebuilt(t *testing.T) {
	fake := &fakeEndee{indexes: []string{"support_tickets", "archive"}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	client := endee.NewClient(server.URL, "", zerolog.Nop())
	err := loadDataset(context.Background(), client, stubEmbed, newLoadTestStore(t), "ticket_", "support_tickets", zerolog.Nop())
	require.NoError(t, err)

	// The existing index is dropped and recreated, not aborted on.
	assert.Equal(t, []string{"support_tickets"}, fake.deleted)
	assert.Equal(t, []string{"support_tickets"}, fake.created)
	assert.Equal(t, 2, fake.inserted)
}

func TestNewHTTPServer_Timeouts(t *testing.T) {
	srv := newHTTPServer(":8080", http.NewServeMux())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadHeaderTimeout)
	assert.NotZero(t, srv.IdleTimeout)
}
