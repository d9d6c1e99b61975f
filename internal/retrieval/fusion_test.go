package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat-ai/rag-platform/internal/model"
)

func ranked(ids ...int64) []model.RankedChunk {
	out := make([]model.RankedChunk, len(ids))
	for i, id := range ids {
		out[i] = model.RankedChunk{ChunkID: id, DocumentID: id, Rank: i + 1}
	}
	return out
}

func twoLists(lex, vec []model.RankedChunk) []RankedList {
	return []RankedList{
		{Method: MethodLexical, Chunks: lex},
		{Method: MethodVector, Chunks: vec},
	}
}

func fusedIDs(chunks []model.RankedChunk) []int64 {
	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ChunkID
	}
	return ids
}

func TestFuseRRFBothMethodsOutranksSingle(t *testing.T) {
	// Chunk 1 tops the lexical list only; chunk 2 appears in both lists.
	lex := ranked(1, 2, 3)
	vec := ranked(4, 2, 5)

	fused := FuseRRF(twoLists(lex, vec), 60, 5)
	require.NotEmpty(t, fused)
	assert.Equal(t, int64(2), fused[0].ChunkID)
}

func TestFuseRRFScores(t *testing.T) {
	lex := ranked(1)
	vec := ranked(1)

	fused := FuseRRF(twoLists(lex, vec), 60, 5)
	require.Len(t, fused, 1)
	assert.InDelta(t, 2.0/61.0, fused[0].Score, 1e-9)
	assert.Equal(t, 1, fused[0].Rank)
}

func TestFuseRRFMethodAttribution(t *testing.T) {
	lex := ranked(1, 2)
	vec := ranked(2, 3)

	fused := FuseRRF(twoLists(lex, vec), 60, 5)
	require.Len(t, fused, 3)

	byID := make(map[int64]model.RankedChunk, len(fused))
	for _, c := range fused {
		byID[c.ChunkID] = c
	}
	assert.Equal(t, "lexical", byID[1].Methods)
	assert.Equal(t, "lexical,vector", byID[2].Methods)
	assert.Equal(t, "vector", byID[3].Methods)
}

func TestFuseRRFTieBreakChunkID(t *testing.T) {
	// Exact score tie: both chunks single-method at rank 1.
	lex := []model.RankedChunk{{ChunkID: 10, Rank: 1}}
	vec := []model.RankedChunk{{ChunkID: 20, Rank: 1}}

	fused := FuseRRF(twoLists(lex, vec), 60, 5)
	require.Len(t, fused, 2)
	// Equal score, equal methods, equal rank sum: lower chunk id wins.
	assert.Equal(t, []int64{10, 20}, fusedIDs(fused))
}

func TestFuseRRFTruncatesToK(t *testing.T) {
	lists := []RankedList{{Method: MethodLexical, Chunks: ranked(1, 2, 3, 4, 5, 6, 7, 8)}}

	fused := FuseRRF(lists, 60, 3)
	assert.Equal(t, []int64{1, 2, 3}, fusedIDs(fused))
	for i, c := range fused {
		assert.Equal(t, i+1, c.Rank)
		assert.Equal(t, "lexical", c.Methods)
	}
}

func TestFuseRRFSingleList(t *testing.T) {
	lists := []RankedList{{Method: MethodVector, Chunks: ranked(7, 8, 9)}}

	fused := FuseRRF(lists, 60, 5)
	assert.Equal(t, []int64{7, 8, 9}, fusedIDs(fused))
	assert.Equal(t, "vector", fused[0].Methods)
}

func TestFuseRRFEmptyInput(t *testing.T) {
	assert.Empty(t, FuseRRF(nil, 60, 5))
	assert.Empty(t, FuseRRF(twoLists(nil, nil), 60, 5))
}
