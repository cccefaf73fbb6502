// Package adapters bridges vendor clients to the triage engine's
// collaborator interfaces.
package adapters

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/supportstack/triage"
	"github.com/supportstack/triage/clients/endee"
	"github.com/supportstack/triage/clients/voyage"
)

// VoyageEmbeddingAdapter adapts the Voyage client to the EmbeddingClient
// interface. Ticket text is embedded as a query against the indexed corpus.
type VoyageEmbeddingAdapter struct {
	client interface {
		GenerateEmbedding(ctx context.Context, text string, embeddingType voyage.VoyageEmbeddingType) ([]float32, error)
	}
}

// NewVoyageEmbeddingAdapter creates a new adapter for Voyage AI. If apiKey
// is nil, the VOYAGEAI_API_KEY environment variable is used.
func NewVoyageEmbeddingAdapter(apiKey *string) (*VoyageEmbeddingAdapter, error) {
	key, err := loadEnvVar(apiKey, "VOYAGEAI_API_KEY")
	if err != nil {
		return nil, err
	}

	return &VoyageEmbeddingAdapter{
		client: voyage.NewEmbeddingService(*key),
	}, nil
}

// GenerateEmbedding implements the EmbeddingClient interface.
func (a *VoyageEmbeddingAdapter) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return a.client.GenerateEmbedding(ctx, text, voyage.VoyageEmbeddingTypeQuery)
}

// GenerateDocumentEmbedding embeds text as a document, for indexing the
// labeled corpus rather than querying it.
func (a *VoyageEmbeddingAdapter) GenerateDocumentEmbedding(ctx context.Context, text string) ([]float32, error) {
	return a.client.GenerateEmbedding(ctx, text, voyage.VoyageEmbeddingTypeDocument)
}

// EndeeSearchAdapter adapts the Endee client to the VectorSearchClient
// interface. Endee reports cosine distance directly, so no score conversion
// happens here.
type EndeeSearchAdapter struct {
	client interface {
		Search(ctx context.Context, indexName string, vector []float32, topK int) ([]endee.SearchResult, error)
	}
}

// NewEndeeSearchAdapter creates a new adapter for the Endee vector database.
// If baseURL is nil, the ENDEE_BASE_URL environment variable is used; the
// auth token comes from ENDEE_AUTH_TOKEN and may be empty.
func NewEndeeSearchAdapter(baseURL *string, logger zerolog.Logger) (*EndeeSearchAdapter, error) {
	url, err := loadEnvVar(baseURL, "ENDEE_BASE_URL")
	if err != nil {
		return nil, err
	}

	return &EndeeSearchAdapter{
		client: endee.NewClient(*url, os.Getenv("ENDEE_AUTH_TOKEN"), logger),
	}, nil
}

// Search implements the VectorSearchClient interface.
func (a *EndeeSearchAdapter) Search(ctx context.Context, indexName string, vector []float32, topK int) ([]triage.Neighbor, error) {
	results, err := a.client.Search(ctx, indexName, vector, topK)
	if err != nil {
		return nil, err
	}

	neighbors := make([]triage.Neighbor, len(results))
	for i, r := range results {
		neighbors[i] = triage.Neighbor{
			ID:       r.ID,
			Distance: r.Distance,
		}
	}
	return neighbors, nil
}

// loadEnvVar loads an environment variable into a pointer if no value is provided.
func loadEnvVar(target *string, envKey string) (*string, error) {
	if target == nil {
		envVar := os.Getenv(envKey)
		if envVar == "" {
			return nil, fmt.Errorf("%s environment variable not set and no value provided", envKey)
		}
		return &envVar, nil
	}
	return target, nil
}
