// Package testutil provides mock collaborators for testing code built on the
// triage engine.
package testutil

import (
	"context"
	"sync"

	"github.com/supportstack/triage"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient for testing
type MockEmbeddingClient struct {
	GenerateEmbeddingFunc func(ctx context.Context, text string) ([]float32, error)
	mu                    sync.Mutex
	CallCount             int
	LastText              string
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastText = text
	m.mu.Unlock()

	if m.GenerateEmbeddingFunc != nil {
		return m.GenerateEmbeddingFunc(ctx, text)
	}
	// Default: return a simple embedding based on text length
	embedding := make([]float32, 10)
	for i := range embedding {
		embedding[i] = float32(len(text)) / 100.0
	}
	return embedding, nil
}

// MockSearchClient is a mock implementation of VectorSearchClient for testing
type MockSearchClient struct {
	SearchFunc func(ctx context.Context, indexName string, vector []float32, topK int) ([]triage.Neighbor, error)

	mu            sync.Mutex
	CallCount     int
	LastIndexName string
	LastTopK      int
}

func (m *MockSearchClient) Search(ctx context.Context, indexName string, vector []float32, topK int) ([]triage.Neighbor, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastIndexName = indexName
	m.LastTopK = topK
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, indexName, vector, topK)
	}

	// Default: return no neighbors
	return []triage.Neighbor{}, nil
}

// MockMetadataStore is a map-backed implementation of MetadataStore for testing
type MockMetadataStore struct {
	Records map[string]triage.TicketMetadata
}

func NewMockMetadataStore() *MockMetadataStore {
	return &MockMetadataStore{
		Records: make(map[string]triage.TicketMetadata),
	}
}

// Add registers a record under the given item ID.
func (m *MockMetadataStore) Add(itemID, category, text string) *MockMetadataStore {
	m.Records[itemID] = triage.TicketMetadata{Category: category, Text: text}
	return m
}

func (m *MockMetadataStore) Lookup(itemID string) (triage.TicketMetadata, bool) {
	meta, ok := m.Records[itemID]
	return meta, ok
}
