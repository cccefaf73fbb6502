package adapters

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const defaultEmbeddingModel = openai.EmbeddingModelTextEmbedding3Small

// OpenAIEmbeddingAdapter implements EmbeddingClient using the OpenAI
// embeddings API. It is an alternative to the Voyage adapter for
// deployments already on OpenAI.
type OpenAIEmbeddingAdapter struct {
	client openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbeddingAdapter creates a new adapter for OpenAI embeddings.
// If apiKey is nil, the OPENAI_API_KEY environment variable is used. An
// empty model selects text-embedding-3-small.
func NewOpenAIEmbeddingAdapter(apiKey *string, model string) (*OpenAIEmbeddingAdapter, error) {
	key, err := loadEnvVar(apiKey, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}

	instance := &OpenAIEmbeddingAdapter{
		client: openai.NewClient(option.WithAPIKey(*key)),
		model:  defaultEmbeddingModel,
	}
	if model != "" {
		instance.model = openai.EmbeddingModel(model)
	}

	return instance, nil
}

// GenerateEmbedding implements the EmbeddingClient interface.
func (a *OpenAIEmbeddingAdapter) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model: a.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}

	embedding := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}
