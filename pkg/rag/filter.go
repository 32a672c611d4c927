package rag

// FilterRelevant drops vector-origin candidates at or below minSimilarity
// (strict > comparison). Keyword candidates bypass the threshold: their
// fixed 1.0 score encodes certainty, not comparability.
func FilterRelevant(candidates []Candidate, minSimilarity float64) []Candidate {
	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Origin == OriginVector && c.Score <= minSimilarity {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// ComputeConfidence labels how well-grounded an answer will be, given the
// candidates selected for the context window. Keyword hits are treated as
// ground-truth evidence regardless of vector scores.
func ComputeConfidence(subset []Candidate) Confidence {
	var vectorSum float64
	var vectorCount int
	hasKeyword := false

	for _, c := range subset {
		switch c.Origin {
		case OriginKeyword:
			hasKeyword = true
		case OriginVector:
			vectorSum += c.Score
			vectorCount++
		}
	}

	var avg float64
	if vectorCount > 0 {
		avg = vectorSum / float64(vectorCount)
	}

	switch {
	case hasKeyword || avg > 0.5:
		return ConfidenceHigh
	case avg > 0.3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
