// Package voyage wraps the Voyage AI embedding API.
package voyage

import (
	"context"
	"fmt"

	"github.com/austinfhunter/voyageai"
)

const EMBEDDING_DIMENSIONS = 1024

const VOYAGEAI_EMBEDDING_MODEL = "voyage-3.5-lite"

type VoyageEmbeddingType string

const (
	VoyageEmbeddingTypeDocument VoyageEmbeddingType = "document"
	VoyageEmbeddingTypeQuery    VoyageEmbeddingType = "query"
	VoyageEmbeddingTypeDefault  VoyageEmbeddingType = ""
)

// voyageService handles generating embeddings for text.
type voyageService struct {
	client     *voyageai.VoyageClient
	dimensions int
	model      string
}

// NewEmbeddingService creates a new embedding service. Each service owns
// its client; there is no shared process-wide instance.
func NewEmbeddingService(apiKey string) *voyageService {
	return &voyageService{
		client: voyageai.NewClient(&voyageai.VoyageClientOpts{
			Key: apiKey,
		}),
		dimensions: EMBEDDING_DIMENSIONS,
		model:      VOYAGEAI_EMBEDDING_MODEL,
	}
}

// SetDimensions sets the output dimensions for the embedding model.
func (es *voyageService) SetDimensions(dimensions int) {
	es.dimensions = dimensions
}

// SetModel sets the embedding model.
func (es *voyageService) SetModel(model string) {
	es.model = model
}

// GenerateEmbedding generates an embedding for a single text using VoyageAI.
func (es *voyageService) GenerateEmbedding(ctx context.Context, text string, embeddingType VoyageEmbeddingType) ([]float32, error) {
	dimensions := es.GetEmbeddingDimensions()
	inputType := parseEmbeddingType(embeddingType)

	embeddings, err := es.client.Embed(
		[]string{text},
		es.model,
		&voyageai.EmbeddingRequestOpts{
			InputType:       inputType,
			OutputDimension: &dimensions,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("could not get embedding: %w", err)
	}

	if len(embeddings.Data) == 0 {
		return nil, fmt.Errorf("voyage returned no embeddings")
	}

	return embeddings.Data[0].Embedding, nil
}

// GetEmbeddingDimensions returns the dimension count for the embedding model.
func (es *voyageService) GetEmbeddingDimensions() int {
	return es.dimensions
}

// parseEmbeddingType converts the embedding type to the API's input-type
// parameter; the default type omits it.
func parseEmbeddingType(embeddingType VoyageEmbeddingType) *string {
	if embeddingType == VoyageEmbeddingTypeDefault {
		return nil
	}
	s := string(embeddingType)
	return &s
}
