// Package triage classifies free-text support tickets by nearest-neighbor
// search over previously labeled tickets and routes them to a department.
// There is no trained classifier: neighbors vote for their category with
// their similarity score as vote mass, and an ordered rule table maps the
// winning category to a department, priority, and SLA.
package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/supportstack/triage/internal/metrics"
)

// Engine is the classification and routing facade. It is stateless per
// request; the metadata store and routing table are read-only after
// construction, so a single Engine is safe for concurrent use.
type Engine struct {
	embedding EmbeddingClient
	search    VectorSearchClient
	metadata  MetadataStore
	resolver  *Resolver
	indexName string
	topK      int
	threshold float64
	logger    zerolog.Logger
}

// NewEngine creates an Engine from the given configuration. It fails when a
// required collaborator is missing or the routing table has no catch-all
// rule; both are startup errors, never per-request ones.
func NewEngine(cfg Config) (*Engine, error) {
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	resolver, err := NewResolver(cfg.RoutingRules)
	if err != nil {
		return nil, fmt.Errorf("invalid routing rules: %w", err)
	}

	return &Engine{
		embedding: cfg.EmbeddingClient,
		search:    cfg.SearchClient,
		metadata:  cfg.MetadataStore,
		resolver:  resolver,
		indexName: cfg.IndexName,
		topK:      cfg.TopK,
		threshold: cfg.ConfidenceThreshold,
		logger:    *cfg.Logger,
	}, nil
}

// ConfidenceThreshold returns the configured minimum confidence. The engine
// itself does not gate routing on it; callers may use it to flag
// low-confidence decisions.
func (e *Engine) ConfidenceThreshold() float64 {
	return e.threshold
}

// Classify predicts a category for the ticket text.
//
// Empty or whitespace-only text returns ErrEmptyText before any external
// call. A failed or empty search is recovered into a CategoryUnknown result
// carrying an error message rather than returned as an error; only the
// embedding call can fail hard.
func (e *Engine) Classify(ctx context.Context, text string) (*ClassificationResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := e.embedding.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	neighbors, err := e.search.Search(ctx, e.indexName, embedding, e.topK)
	if err != nil {
		e.logger.Warn().Err(err).Str("index", e.indexName).Msg("vector search failed, returning unknown")
		metrics.RecordSearchFailure()
		return &ClassificationResult{
			Category:       CategoryUnknown,
			Confidence:     0,
			Matches:        []SimilarityMatch{},
			CategoryScores: map[string]float64{},
			Error:          err.Error(),
		}, nil
	}

	if len(neighbors) == 0 {
		return &ClassificationResult{
			Category:       CategoryUnknown,
			Confidence:     0,
			Matches:        []SimilarityMatch{},
			CategoryScores: map[string]float64{},
			Error:          "no similar tickets found",
		}, nil
	}

	matches := normalizeMatches(neighbors, e.metadata)
	return voteOnCategory(matches), nil
}

// ClassifyAndRoute classifies the ticket text and resolves the routing
// decision for the predicted category. Every recoverable failure still
// produces a decision; only invalid input returns an error.
func (e *Engine) ClassifyAndRoute(ctx context.Context, text string) (*RoutingDecision, error) {
	start := time.Now()

	result, err := e.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	rule := e.resolver.Resolve(result.Category)
	metrics.RecordClassification(result.Category, rule.Department, time.Since(start).Seconds())

	return &RoutingDecision{
		Category:   result.Category,
		Confidence: result.Confidence,
		Department: rule.Department,
		Priority:   rule.Priority,
		SLAHours:   rule.SLAHours,
		Matches:    result.Matches,
		Error:      result.Error,
	}, nil
}
