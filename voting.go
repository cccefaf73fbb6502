package triage

// voteOnCategory aggregates similarity mass per category and picks a winner.
//
// Each match contributes its full score to its category: a category that
// appears often with modest scores can outvote one that appears once with a
// high score. Confidence is the winner's share of the total mass. Ties are
// broken in favor of the category that appears earliest in the ranked match
// sequence, which keeps the result deterministic regardless of map iteration
// order.
//
// An empty match list yields CategoryUncategorized with zero confidence.
// This is distinct from the zero-search-results case, which the engine
// reports as CategoryUnknown with an error message.
func voteOnCategory(matches []SimilarityMatch) *ClassificationResult {
	if len(matches) == 0 {
		return &ClassificationResult{
			Category:       CategoryUncategorized,
			Confidence:     0,
			Matches:        []SimilarityMatch{},
			CategoryScores: map[string]float64{},
		}
	}

	scores := make(map[string]float64, len(matches))
	var seen []string
	for _, m := range matches {
		if _, ok := scores[m.Category]; !ok {
			seen = append(seen, m.Category)
		}
		scores[m.Category] += m.Score
	}

	var winner string
	var winning, total float64
	for i, cat := range seen {
		total += scores[cat]
		// Strict comparison: on an exact tie the earlier-seen category keeps the win.
		if i == 0 || scores[cat] > winning {
			winner = cat
			winning = scores[cat]
		}
	}

	confidence := 0.0
	if total > 0 {
		confidence = winning / total
	}

	return &ClassificationResult{
		Category:       winner,
		Confidence:     confidence,
		Matches:        matches,
		CategoryScores: scores,
	}
}
