package triage

import "math"

// previewLimit is the maximum preview length in characters (not bytes).
const previewLimit = 200

// maxCosineDistance is the upper bound of the cosine distance metric the
// index is built with: 0 means identical, 2 means maximally dissimilar.
// If the index is rebuilt with a different metric, distanceToScore must be
// replaced to match.
const maxCosineDistance = 2.0

// distanceToScore converts a cosine distance in [0, 2] to a similarity
// score in [0, 1]. Distances outside the metric's range clamp to 0.
func distanceToScore(distance float64) float64 {
	if distance < 0 || distance > maxCosineDistance {
		return 0
	}
	return 1 - distance/maxCosineDistance
}

// normalizeMatches turns raw search neighbors into SimilarityMatch values,
// preserving the search's relevance order. Neighbors that are malformed,
// unknown to the metadata store, or missing a category label are skipped;
// they cannot vote.
func normalizeMatches(neighbors []Neighbor, store MetadataStore) []SimilarityMatch {
	matches := make([]SimilarityMatch, 0, len(neighbors))

	for _, n := range neighbors {
		if n.ID == "" || math.IsNaN(n.Distance) || math.IsInf(n.Distance, 0) {
			continue
		}

		meta, ok := store.Lookup(n.ID)
		if !ok || meta.Category == "" {
			continue
		}

		matches = append(matches, SimilarityMatch{
			Category: meta.Category,
			Score:    distanceToScore(n.Distance),
			Distance: n.Distance,
			Preview:  truncatePreview(meta.Text),
		})
	}

	return matches
}

// truncatePreview limits text to the first previewLimit characters.
func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit])
}
