package endee

import "fmt"

// Vector is one indexed item: an ID, its embedding, and optional metadata
// stored alongside it.
type Vector struct {
	ID       string         `json:"id" msgpack:"id"`
	Values   []float32      `json:"vector" msgpack:"vector"`
	Metadata map[string]any `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// SearchResult is one neighbor returned by a similarity search: the indexed
// item's ID and its distance from the query vector (lower is more similar).
type SearchResult struct {
	ID       string  `json:"id" msgpack:"id"`
	Distance float64 `json:"distance" msgpack:"distance"`
}

// IndexStats holds the statistics Endee reports for an index.
type IndexStats struct {
	VectorCount int    `json:"vector_count" msgpack:"vector_count"`
	Dimension   int    `json:"dim" msgpack:"dim"`
	SpaceType   string `json:"space_type" msgpack:"space_type"`
}

// createIndexRequest is the payload for index creation. Endee calls the
// distance metric a "space type".
type createIndexRequest struct {
	IndexName string `json:"index_name"`
	Dim       int    `json:"dim"`
	SpaceType string `json:"space_type"`
}

// searchRequest is the payload for a similarity search.
type searchRequest struct {
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
}

// searchResponse is the JSON fallback envelope for search results.
type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// listIndexesResponse is the envelope for the index listing endpoint.
type listIndexesResponse struct {
	Indexes []string `json:"indexes"`
}

// APIError is returned when Endee responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("endee API error %s: status %d", e.Endpoint, e.StatusCode)
}
