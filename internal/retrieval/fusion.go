// Package retrieval fans a query out to the lexical and vector indexes and
// fuses the ranked lists with reciprocal rank fusion.
package retrieval

import (
	"sort"
	"strings"

	"github.com/docchat-ai/rag-platform/internal/model"
)

// DefaultRRFConstant dampens the weight of top ranks in the fused score.
const DefaultRRFConstant = 60

// RankedList is one retrieval method's ordered result list.
type RankedList struct {
	Method string
	Chunks []model.RankedChunk
}

type fusedEntry struct {
	chunk   model.RankedChunk
	score   float64
	rankSum int
	methods []string
}

// FuseRRF merges per-method ranked lists into a single list of at most k
// results. Each appearance of a chunk contributes 1/(K+rank) to its fused
// score, and the fused chunk records which methods surfaced it. Ties break
// toward chunks seen by more methods, then lower combined rank, then lower
// chunk id.
func FuseRRF(lists []RankedList, kConst, k int) []model.RankedChunk {
	if kConst <= 0 {
		kConst = DefaultRRFConstant
	}

	merged := make(map[int64]*fusedEntry)
	for _, list := range lists {
		for _, rc := range list.Chunks {
			e, ok := merged[rc.ChunkID]
			if !ok {
				e = &fusedEntry{chunk: rc}
				merged[rc.ChunkID] = e
			}
			e.score += 1.0 / float64(kConst+rc.Rank)
			e.rankSum += rc.Rank
			e.methods = append(e.methods, list.Method)
		}
	}

	fused := make([]*fusedEntry, 0, len(merged))
	for _, e := range merged {
		fused = append(fused, e)
	}
	sort.Slice(fused, func(i, j int) bool {
		a, b := fused[i], fused[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if len(a.methods) != len(b.methods) {
			return len(a.methods) > len(b.methods)
		}
		if a.rankSum != b.rankSum {
			return a.rankSum < b.rankSum
		}
		return a.chunk.ChunkID < b.chunk.ChunkID
	})

	if k > 0 && len(fused) > k {
		fused = fused[:k]
	}

	out := make([]model.RankedChunk, len(fused))
	for i, e := range fused {
		out[i] = e.chunk
		out[i].Score = e.score
		out[i].Rank = i + 1
		out[i].Methods = strings.Join(e.methods, ",")
	}
	return out
}
