// Package index builds, persists and queries the in-memory vector
// index over stored chunks.
package index

import (
	"math"
	"sort"

	"nudge/internal/models"
)

// Record is a chunk plus its embedding. Regenerated on every build,
// never edited in place.
type Record struct {
	Chunk  models.Chunk
	Vector []float32
}

// Index is an ordered collection of records supporting brute-force
// nearest-neighbor queries by cosine similarity. Record order is chunk
// store insertion order, which also breaks score ties.
type Index struct {
	Records   []Record
	Dimension int
	Model     string
}

// Result is one retrieved record with its similarity score.
type Result struct {
	Record
	Score float32
}

// Search returns the k records most similar to the query vector,
// highest similarity first. A k larger than the record count returns
// everything; ties keep insertion order.
func (ix *Index) Search(query []float32, k int) []Result {
	if k <= 0 || len(query) != ix.Dimension {
		return nil
	}
	results := make([]Result, 0, len(ix.Records))
	for _, r := range ix.Records {
		results = append(results, Result{Record: r, Score: cosineSimilarity(query, r.Vector)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
