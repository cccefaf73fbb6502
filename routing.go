package triage

import "strings"

// catchAllMatchKey identifies the rule used when no other rule matches.
const catchAllMatchKey = "General"

// DefaultRoutingRules returns the standard routing table. Order matters:
// rules are checked top to bottom and the first match wins, so more
// specific keys come before the catch-all.
func DefaultRoutingRules() []RoutingRule {
	return []RoutingRule{
		{MatchKey: "Technical", Department: "Technical Support", Priority: PriorityHigh, SLAHours: 4},
		{MatchKey: "Account", Department: "Account Services", Priority: PriorityHigh, SLAHours: 2},
		{MatchKey: "Billing", Department: "Billing Team", Priority: PriorityMedium, SLAHours: 24},
		{MatchKey: "Product", Department: "Sales Team", Priority: PriorityMedium, SLAHours: 8},
		{MatchKey: "Bug", Department: "Engineering", Priority: PriorityHigh, SLAHours: 8},
		{MatchKey: "Feature", Department: "Product Management", Priority: PriorityMedium, SLAHours: 24},
		{MatchKey: catchAllMatchKey, Department: "General Support", Priority: PriorityLow, SLAHours: 48},
	}
}

// Resolver maps a predicted category to a routing rule. The rule table is
// fixed at construction and read-only afterward, so a single Resolver is
// safe for concurrent use.
type Resolver struct {
	rules    []RoutingRule
	catchAll RoutingRule
}

// NewResolver validates the rule table and returns a Resolver. The table
// must contain a catch-all rule (match key "General", compared
// case-insensitively); without one a category could go unrouted, so its
// absence is a configuration error.
func NewResolver(rules []RoutingRule) (*Resolver, error) {
	r := &Resolver{rules: rules}

	found := false
	for _, rule := range rules {
		if strings.EqualFold(rule.MatchKey, catchAllMatchKey) {
			r.catchAll = rule
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNoCatchAllRule
	}

	return r, nil
}

// Resolve returns the first rule whose match key is a case-insensitive
// substring of the category, or the catch-all when nothing matches.
// Resolve is total: it always returns a rule.
func (r *Resolver) Resolve(category string) RoutingRule {
	lower := strings.ToLower(category)
	for _, rule := range r.rules {
		if strings.Contains(lower, strings.ToLower(rule.MatchKey)) {
			return rule
		}
	}
	return r.catchAll
}
