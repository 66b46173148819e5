package vector

import (
	"fmt"
	"sort"
)

// Result is a single search hit.
type Result struct {
	ID    string
	Score float64 // inner product; cosine similarity for normalized vectors
}

// TopK returns up to k vectors most similar to query by inner product,
// in strictly non-increasing score order. ids and vectors are parallel
// slices. Returns fewer than k results when fewer vectors exist.
func TopK(query []float32, ids []string, vectors [][]float32, k int) ([]Result, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	if k <= 0 || len(ids) == 0 {
		return nil, nil
	}
	scores := make([]Result, len(ids))
	for i, vec := range vectors {
		if len(vec) != len(query) {
			return nil, fmt.Errorf("vector %s has dimension %d, query has %d", ids[i], len(vec), len(query))
		}
		scores[i] = Result{ID: ids[i], Score: InnerProduct(query, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}
