package score

import (
	"math"

	"lesnouvelles-feed/internal/domain/entity"
)

// Breakdown is the decomposed relevance of one candidate for one query.
type Breakdown struct {
	Semantic float64
	Tag      float64
	Total    float64
}

// TagScorer compares the tag lists of a query and a candidate.
type TagScorer func(query, candidate []entity.Tag) float64

// Cosine returns the cosine similarity of a and b. Empty vectors, vectors of
// different length and zero-norm vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	c := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// float rounding can push |c| slightly past 1
	return math.Max(-1, math.Min(1, c))
}

func tagSet(tags []entity.Tag) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t.Text] = struct{}{}
	}
	return set
}

func intersection(a, b map[string]struct{}) int {
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// TagOverlap is the share of the query's distinct entity texts that also
// appear in the candidate. It is relative to the query, so
// TagOverlap(a, b) != TagOverlap(b, a) in general.
func TagOverlap(query, candidate []entity.Tag) float64 {
	q, c := tagSet(query), tagSet(candidate)
	if len(q) == 0 || len(c) == 0 {
		return 0
	}
	return float64(intersection(q, c)) / float64(len(q))
}

// SymmetricTagOverlap is the Jaccard index of the two distinct entity text sets.
func SymmetricTagOverlap(a, b []entity.Tag) float64 {
	sa, sb := tagSet(a), tagSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := intersection(sa, sb)
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// Score compares candidate to query with the given tag scorer.
func Score(query, candidate entity.Enrichable, tags TagScorer) Breakdown {
	b := Breakdown{
		Semantic: Cosine(query.EnrichmentEmbedding(), candidate.EnrichmentEmbedding()),
		Tag:      tags(query.EnrichmentTags(), candidate.EnrichmentTags()),
	}
	b.Total = b.Semantic + b.Tag
	return b
}
