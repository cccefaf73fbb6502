package adapters

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"

	"github.com/supportstack/triage"
)

// PineconeSearchAdapter adapts a Pinecone index to the VectorSearchClient
// interface. The index connection is fixed at construction; the indexName
// argument to Search is ignored because Pinecone addresses indexes by host.
type PineconeSearchAdapter struct {
	index interface {
		QueryByVectorValues(ctx context.Context, req *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	}
}

// NewPineconeSearchAdapter creates a new adapter for Pinecone. If apiKey or
// host are nil, the PINECONE_API_KEY / PINECONE_HOST environment variables
// are used.
func NewPineconeSearchAdapter(apiKey *string, host *string, namespace string) (*PineconeSearchAdapter, error) {
	key, err := loadEnvVar(apiKey, "PINECONE_API_KEY")
	if err != nil {
		return nil, err
	}

	h, err := loadEnvVar(host, "PINECONE_HOST")
	if err != nil {
		return nil, err
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: *key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	index, err := client.Index(pinecone.NewIndexConnParams{
		Host:      *h,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pinecone index: %w", err)
	}

	return &PineconeSearchAdapter{
		index: index,
	}, nil
}

// Search implements the VectorSearchClient interface. Pinecone returns a
// cosine similarity in [-1, 1]; the engine expects a cosine distance in
// [0, 2], so the score is converted as distance = 1 - similarity.
func (a *PineconeSearchAdapter) Search(ctx context.Context, indexName string, vector []float32, topK int) ([]triage.Neighbor, error) {
	resp, err := a.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeValues:   false,
		IncludeMetadata: false,
	})
	if err != nil {
		return nil, err
	}

	neighbors := make([]triage.Neighbor, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		if match.Vector == nil {
			continue
		}
		neighbors = append(neighbors, triage.Neighbor{
			ID:       match.Vector.Id,
			Distance: 1 - float64(match.Score),
		})
	}
	return neighbors, nil
}
