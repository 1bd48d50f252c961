package search

import (
	"math"
	"slices"

	"github.com/poiesic/retrievit/core"
)

// rrfConstant dampens the contribution of lower ranks in reciprocal rank
// fusion. 60 is the standard value from the RRF literature.
const rrfConstant = 60

// fuseRanked merges a dense and a sparse ranked list into one ranking using
// weighted reciprocal rank fusion. Dense and sparse scores live on
// incomparable scales, so fusion works on ranks: each candidate scores
// w_list / (rank + rrfConstant) for every list it appears in, and zero for
// lists it is absent from.
//
// Ties are broken by dense rank ascending, then chunk ID ascending, so the
// fused ordering is fully deterministic.
func fuseRanked(dense, sparse []*core.SearchResult, denseWeight, sparseWeight float64, k int) []*core.SearchResult {
	type candidate struct {
		chunk     *core.Chunk
		score     float64
		denseRank int
	}

	candidates := make(map[core.ID]*candidate, len(dense)+len(sparse))

	for rank, result := range dense {
		candidates[result.Chunk.Id] = &candidate{
			chunk:     result.Chunk,
			score:     denseWeight / float64(rank+rrfConstant),
			denseRank: rank,
		}
	}

	for rank, result := range sparse {
		contribution := sparseWeight / float64(rank+rrfConstant)
		if c, ok := candidates[result.Chunk.Id]; ok {
			c.score += contribution
			continue
		}
		candidates[result.Chunk.Id] = &candidate{
			chunk:     result.Chunk,
			score:     contribution,
			denseRank: math.MaxInt,
		}
	}

	ordered := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		ordered = append(ordered, c)
	}

	slices.SortFunc(ordered, func(a, b *candidate) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		if a.denseRank != b.denseRank {
			return a.denseRank - b.denseRank
		}
		if a.chunk.Id < b.chunk.Id {
			return -1
		}
		if a.chunk.Id > b.chunk.Id {
			return 1
		}
		return 0
	})

	if len(ordered) > k {
		ordered = ordered[:k]
	}

	results := make([]*core.SearchResult, len(ordered))
	for i, c := range ordered {
		results[i] = &core.SearchResult{Chunk: c.chunk, Score: c.score}
	}
	return results
}
