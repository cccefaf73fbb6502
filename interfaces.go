package triage

import "context"

// EmbeddingClient generates vector embeddings for text.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Neighbor is one raw result from the vector search index: the indexed
// item's ID and its distance from the query vector (lower is more similar).
type Neighbor struct {
	ID       string
	Distance float64
}

// VectorSearchClient performs nearest-neighbor search over previously
// indexed tickets. Implementations may return fewer than topK neighbors,
// including none.
type VectorSearchClient interface {
	Search(ctx context.Context, indexName string, vector []float32, topK int) ([]Neighbor, error)
}

// TicketMetadata is the labeled-ticket record behind an indexed vector.
type TicketMetadata struct {
	Category string
	Text     string
}

// MetadataStore resolves an indexed item ID to its category label and
// display text. Lookup never fails; absence is reported via ok=false.
// Implementations must be safe for unsynchronized concurrent reads.
type MetadataStore interface {
	Lookup(itemID string) (TicketMetadata, bool)
}
