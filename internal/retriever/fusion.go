package retriever

import (
	"math"
	"sort"
)

// FuseRRF combines ranked lists with reciprocal rank fusion. Each list
// is truncated to rankWindowSize before fusion; a document's fused
// score is the sum of 1/(rankConstant + rank) over the lists that
// returned it, ranks 1-based. Ordering is a total order: fused score
// descending, then lowest rank across lists, then document id.
func FuseRRF(lists [][]Hit, rankConstant, rankWindowSize int) []Hit {
	type fused struct {
		hit     Hit
		score   float64
		minRank int
	}
	byID := make(map[string]*fused)
	for _, list := range lists {
		if len(list) > rankWindowSize {
			list = list[:rankWindowSize]
		}
		for i, hit := range list {
			rank := i + 1
			f, ok := byID[hit.ID]
			if !ok {
				f = &fused{hit: hit, minRank: math.MaxInt}
				byID[hit.ID] = f
			}
			f.score += 1.0 / float64(rankConstant+rank)
			if rank < f.minRank {
				f.minRank = rank
			}
		}
	}

	out := make([]*fused, 0, len(byID))
	for _, f := range byID {
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].minRank != out[j].minRank {
			return out[i].minRank < out[j].minRank
		}
		return out[i].hit.ID < out[j].hit.ID
	})

	hits := make([]Hit, len(out))
	for i, f := range out {
		h := f.hit
		h.Score = f.score
		h.HybridScore = f.score
		hits[i] = h
	}
	return hits
}
