// Package mmr implements maximal-marginal-relevance selection: picking
// results that stay relevant to a query embedding while penalizing
// redundancy among the picks themselves.
package mmr

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched dimensions or zero-magnitude vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Select returns the indices of up to k candidates chosen by maximal
// marginal relevance. lambda balances the two objectives: 1 is pure
// relevance to the query, 0 is pure diversity among the selection.
// Candidate order is preserved only through the scores; ties keep the
// earliest candidate.
func Select(query []float32, candidates [][]float32, lambda float64, k int) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i, candidate := range candidates {
		relevance[i] = CosineSimilarity(query, candidate)
	}

	selected := make([]int, 0, k)
	remaining := make(map[int]struct{}, len(candidates))
	for i := range candidates {
		remaining[i] = struct{}{}
	}

	// Seed with the most relevant candidate.
	best := -1
	for i := range candidates {
		if best == -1 || relevance[i] > relevance[best] {
			best = i
		}
	}
	selected = append(selected, best)
	delete(remaining, best)

	for len(selected) < k {
		best = -1
		bestScore := math.Inf(-1)
		for i := 0; i < len(candidates); i++ {
			if _, ok := remaining[i]; !ok {
				continue
			}
			redundancy := math.Inf(-1)
			for _, j := range selected {
				if sim := CosineSimilarity(candidates[i], candidates[j]); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		if best == -1 {
			break
		}
		selected = append(selected, best)
		delete(remaining, best)
	}
	return selected
}
