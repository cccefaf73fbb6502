package triage

// Categories the engine falls back to when no neighbor can vote.
const (
	// CategoryUnknown is returned when the vector search failed or
	// returned no results at all.
	CategoryUnknown = "Unknown"

	// CategoryUncategorized is returned when the search produced results
	// but none of them resolved to a category in the metadata store.
	CategoryUncategorized = "Uncategorized"
)

// SimilarityMatch is one neighbor from the vector search, resolved against
// the ticket metadata store. Score is the bounded similarity derived from
// the raw distance; Preview is the first 200 characters of the stored text.
type SimilarityMatch struct {
	Category string
	Score    float64
	Distance float64
	Preview  string
}

// ClassificationResult is the output of the voting engine.
//
// CategoryScores maps each category seen in the matches to its accumulated
// similarity mass. Confidence is the winning category's share of the total
// mass, always in [0, 1]. Error carries a description for the recovered
// failure paths (search unavailable, no results); it is empty on success.
type ClassificationResult struct {
	Category       string
	Confidence     float64
	Matches        []SimilarityMatch
	CategoryScores map[string]float64
	Error          string
}

// Priority is the operational urgency attached to a routing rule.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// RoutingRule maps a category signal to a department. MatchKey is compared
// case-insensitively as a substring of the predicted category, so a rule
// keyed "Technical" also catches "Technical Issue". Rules are scanned in
// declaration order and the first match wins.
type RoutingRule struct {
	MatchKey   string   `yaml:"match_key"`
	Department string   `yaml:"department"`
	Priority   Priority `yaml:"priority"`
	SLAHours   int      `yaml:"sla_hours"`
}

// RoutingDecision is the final, externally visible output of the engine.
type RoutingDecision struct {
	Category   string
	Confidence float64
	Department string
	Priority   Priority
	SLAHours   int
	Matches    []SimilarityMatch
	Error      string
}
