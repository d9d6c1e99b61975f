// Package chunker splits extracted document text into overlapping segments.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/docchat-ai/rag-platform/internal/errs"
)

// Config holds chunking tunables. All sizes are in characters.
type Config struct {
	TargetChars  int
	OverlapChars int
	MinChars     int
	Language     string
	UseSentences bool
}

// Chunker produces deterministic, ordered chunk sequences. The same text and
// config always yield the same chunks, which makes re-chunking idempotent.
type Chunker struct {
	cfg      Config
	splitter *regexp.Regexp
}

var sentenceSplitter = regexp.MustCompile(`(?m)(?U)[^.!?\n]+[.!?]`)

// New validates cfg and returns a Chunker.
func New(cfg Config) (*Chunker, error) {
	if cfg.TargetChars <= 0 {
		return nil, errs.InvalidConfiguration("target chunk size must be > 0, got %d", cfg.TargetChars)
	}
	if cfg.OverlapChars < 0 {
		return nil, errs.InvalidConfiguration("overlap must be >= 0, got %d", cfg.OverlapChars)
	}
	if cfg.OverlapChars >= cfg.TargetChars {
		return nil, errs.InvalidConfiguration("overlap %d must be smaller than target chunk size %d", cfg.OverlapChars, cfg.TargetChars)
	}
	if cfg.MinChars < 0 {
		return nil, errs.InvalidConfiguration("minimum chunk size must be >= 0, got %d", cfg.MinChars)
	}
	if cfg.MinChars > cfg.TargetChars {
		return nil, errs.InvalidConfiguration("minimum chunk size %d must not exceed target chunk size %d", cfg.MinChars, cfg.TargetChars)
	}
	return &Chunker{cfg: cfg, splitter: sentenceSplitter}, nil
}

// Split turns text into an ordered chunk sequence. Empty or whitespace-only
// input yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	if c.cfg.UseSentences {
		chunks = c.splitSentences(text)
	} else {
		chunks = splitWindows(text, c.cfg.TargetChars, c.cfg.OverlapChars)
	}

	out := chunks[:0]
	for _, ch := range chunks {
		if s := strings.TrimSpace(ch); s != "" {
			out = append(out, s)
		}
	}
	chunks = out

	// A trailing fragment below the minimum merges into the previous chunk
	// instead of standing alone, unless it is the only chunk.
	if len(chunks) >= 2 && utf8.RuneCountInString(chunks[len(chunks)-1]) < c.cfg.MinChars {
		last := chunks[len(chunks)-1]
		chunks[len(chunks)-2] = strings.TrimSpace(chunks[len(chunks)-2]) + "\n\n" + last
		chunks = chunks[:len(chunks)-1]
	}

	return chunks
}

// splitWindows is pure character windowing: [0:target], then advance by
// (target - overlap). Consecutive windows share exactly overlap characters.
// Windowing happens over runes so a boundary never cuts a UTF-8 sequence.
func splitWindows(text string, target, overlap int) []string {
	runes := []rune(text)
	step := target - overlap
	if step < 1 {
		step = 1
	}
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + target
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// runeTail returns the last n runes of s.
func runeTail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// splitSentences packs sentences into chunks up to the target size. Overlap
// is carried as the last OverlapChars characters of the previous chunk. A
// single sentence longer than the target falls back to character windowing.
func (c *Chunker) splitSentences(text string) []string {
	sentences := c.sentences(text)
	if len(sentences) == 0 {
		return splitWindows(text, c.cfg.TargetChars, c.cfg.OverlapChars)
	}

	var chunks []string
	current := ""

	flush := func() {
		if s := strings.TrimSpace(current); s != "" {
			chunks = append(chunks, s)
		}
		current = ""
	}

	for _, s := range sentences {
		if utf8.RuneCountInString(s) > c.cfg.TargetChars {
			flush()
			chunks = append(chunks, splitWindows(s, c.cfg.TargetChars, c.cfg.OverlapChars)...)
			continue
		}

		if current == "" {
			current = s
			continue
		}

		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(s) > c.cfg.TargetChars {
			prev := strings.TrimSpace(current)
			chunks = append(chunks, prev)
			current = ""
			if c.cfg.OverlapChars > 0 && utf8.RuneCountInString(prev) > c.cfg.OverlapChars {
				current = strings.TrimSpace(runeTail(prev, c.cfg.OverlapChars))
			}
			if current != "" {
				current = current + " " + s
			} else {
				current = s
			}
		} else {
			current = current + " " + s
		}
	}
	flush()

	return chunks
}

// sentences splits text on terminal punctuation, keeping any unterminated
// tail as a final sentence.
func (c *Chunker) sentences(text string) []string {
	locs := c.splitter.FindAllStringIndex(text, -1)
	var out []string
	last := 0
	for _, loc := range locs {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
