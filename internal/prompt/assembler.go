package prompt

import (
	"fmt"
	"strings"

	"github.com/docchat-ai/rag-platform/internal/model"
)

// Context is an assembled prompt context with its source attributions.
// Grounded is false when no retrieved text survived assembly.
type Context struct {
	Text     string
	Sources  []model.Source
	Grounded bool
}

// Assembler renders retrieval results into the CONTEXT block. Each chunk is
// tagged [S1], [S2], ... in fused order so the model can cite them.
type Assembler struct {
	perChunkChars int
}

// NewAssembler creates an Assembler. perChunkChars caps how much of each
// chunk's text enters the prompt.
func NewAssembler(perChunkChars int) *Assembler {
	if perChunkChars <= 0 {
		perChunkChars = 2200
	}
	return &Assembler{perChunkChars: perChunkChars}
}

// Assemble builds the context block. Source order matches result order, and
// the source tags in the text match the attribution list one to one.
func (a *Assembler) Assemble(results []model.RankedChunk) *Context {
	if len(results) == 0 {
		return &Context{}
	}

	var b strings.Builder
	sources := make([]model.Source, 0, len(results))
	for i, rc := range results {
		tag := fmt.Sprintf("S%d", i+1)
		text := truncate(rc.Text, a.perChunkChars)

		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] filename=%s chunk=%d\n%s", tag, rc.Filename, rc.ChunkIndex, text)

		sources = append(sources, model.Source{
			SourceID:   tag,
			ChunkID:    rc.ChunkID,
			DocumentID: rc.DocumentID,
			Filename:   rc.Filename,
			ChunkIndex: rc.ChunkIndex,
			Score:      rc.Score,
		})
	}

	return &Context{
		Text:     b.String(),
		Sources:  sources,
		Grounded: true,
	}
}
