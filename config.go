package triage

import (
	"errors"

	"github.com/rs/zerolog"
)

const (
	// DefaultTopK is the default number of similar tickets retrieved per
	// classification request.
	DefaultTopK = 5

	// DefaultConfidenceThreshold is the configured minimum confidence.
	// It does not gate routing; consumers may use it to flag
	// low-confidence decisions.
	DefaultConfidenceThreshold = 0.6

	// DefaultIndexName is the vector index holding the labeled tickets.
	DefaultIndexName = "support_tickets"
)

// Errors surfaced by the engine.
var (
	// ErrEmptyText is returned when the ticket text is empty or
	// whitespace-only. No external call is made in that case.
	ErrEmptyText = errors.New("cannot classify empty text")

	// ErrNoCatchAllRule is returned at construction time when the routing
	// table has no catch-all rule, which would leave categories unrouted.
	ErrNoCatchAllRule = errors.New("routing rules missing catch-all rule")
)

// Config holds the collaborators and settings for the Engine. The three
// clients are required; the engine does not construct backends on its own.
type Config struct {
	// EmbeddingClient turns ticket text into a query vector.
	EmbeddingClient EmbeddingClient

	// SearchClient runs the nearest-neighbor search.
	SearchClient VectorSearchClient

	// MetadataStore resolves neighbor IDs to category labels and text.
	MetadataStore MetadataStore

	// RoutingRules is the ordered routing table. If empty,
	// DefaultRoutingRules() is used. The table must contain a catch-all
	// rule (see NewResolver).
	RoutingRules []RoutingRule

	// IndexName is the vector index to search. Defaults to DefaultIndexName.
	IndexName string

	// TopK is the number of neighbors to retrieve. Defaults to DefaultTopK.
	TopK int

	// ConfidenceThreshold is reported on decisions but does not change
	// routing. Defaults to DefaultConfidenceThreshold.
	ConfidenceThreshold float64

	// Logger is used for recovered failures. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

// applyDefaults fills in default values for unset config fields.
func (c *Config) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.IndexName == "" {
		c.IndexName = DefaultIndexName
	}
	if len(c.RoutingRules) == 0 {
		c.RoutingRules = DefaultRoutingRules()
	}
	if c.Logger == nil {
		l := zerolog.Nop()
		c.Logger = &l
	}
}

// validate checks that the required collaborators are present.
func (c *Config) validate() error {
	if c.EmbeddingClient == nil {
		return errors.New("embedding client is required")
	}
	if c.SearchClient == nil {
		return errors.New("search client is required")
	}
	if c.MetadataStore == nil {
		return errors.New("metadata store is required")
	}
	return nil
}
