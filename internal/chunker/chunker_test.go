package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat-ai/rag-platform/internal/errs"
)

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero target", Config{TargetChars: 0, OverlapChars: 0}},
		{"negative overlap", Config{TargetChars: 100, OverlapChars: -1}},
		{"overlap equals target", Config{TargetChars: 100, OverlapChars: 100}},
		{"overlap exceeds target", Config{TargetChars: 100, OverlapChars: 150}},
		{"min exceeds target", Config{TargetChars: 100, OverlapChars: 10, MinChars: 200}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrInvalidConfiguration))
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	c, err := New(Config{TargetChars: 100, OverlapChars: 10})
	require.NoError(t, err)
	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   \n\t  "))
}

func TestSplitWindowOverlap(t *testing.T) {
	c, err := New(Config{TargetChars: 100, OverlapChars: 20})
	require.NoError(t, err)

	text := strings.Repeat("a", 95) + strings.Repeat("b", 95) + strings.Repeat("c", 95)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	// Each window after the first repeats the previous window's last 20 chars.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-20:]
		assert.True(t, strings.HasPrefix(chunks[i], tail), "chunk %d missing overlap prefix", i)
	}
}

func TestSplitDeterministic(t *testing.T) {
	c, err := New(Config{TargetChars: 120, OverlapChars: 30, MinChars: 40, UseSentences: true})
	require.NoError(t, err)

	text := "The first sentence sets the scene. A second sentence adds detail! " +
		"Does a question change anything? The fourth sentence keeps going. " +
		"Finally a fifth sentence wraps things up."

	first := c.Split(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Split(text))
	}
}

func TestSplitSingleSmallText(t *testing.T) {
	c, err := New(Config{TargetChars: 1000, OverlapChars: 100, MinChars: 350, UseSentences: true})
	require.NoError(t, err)

	chunks := c.Split("A single short document.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A single short document.", chunks[0])
}

func TestSplitMergesSmallTail(t *testing.T) {
	c, err := New(Config{TargetChars: 100, OverlapChars: 0, MinChars: 50})
	require.NoError(t, err)

	// 100 + 100 + 30: the 30-char tail is below MinChars and merges back.
	text := strings.Repeat("x", 230)
	chunks := c.Split(text)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 100)
	assert.Equal(t, 100+2+30, len(chunks[1])) // joined with a blank line
}

func TestSplitKeepsOnlyChunkBelowMin(t *testing.T) {
	c, err := New(Config{TargetChars: 1000, OverlapChars: 100, MinChars: 350})
	require.NoError(t, err)

	chunks := c.Split("tiny")
	require.Len(t, chunks, 1)
}

func TestSplitLongSentenceFallsBack(t *testing.T) {
	c, err := New(Config{TargetChars: 50, OverlapChars: 10, UseSentences: true})
	require.NoError(t, err)

	long := strings.Repeat("word ", 40) + "end."
	chunks := c.Split("Short lead. " + long)
	require.Greater(t, len(chunks), 2)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch), 50+12) // windows plus merged remainder slack
	}
}

func TestSplitWindowsNeverCutMultibyteRunes(t *testing.T) {
	c, err := New(Config{TargetChars: 100, OverlapChars: 20})
	require.NoError(t, err)

	// Alternating one- and two-byte runes puts every other byte offset
	// inside a UTF-8 sequence.
	text := strings.Repeat("aé", 200)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch), "chunk %d is not valid UTF-8", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 100)
	}

	// Window sizes and overlap count characters, not bytes.
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0]))
	tail := string([]rune(chunks[0])[80:])
	assert.True(t, strings.HasPrefix(chunks[1], tail))
}

func TestSplitSentenceOverlapMultibyte(t *testing.T) {
	c, err := New(Config{TargetChars: 60, OverlapChars: 15, UseSentences: true})
	require.NoError(t, err)

	text := "Résumé après été déjà là. " + strings.Repeat("Où ça né gré. ", 10)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch), "chunk %d is not valid UTF-8", i)
	}
}

func TestSentencesKeepUnterminatedTail(t *testing.T) {
	c, err := New(Config{TargetChars: 200, OverlapChars: 0, UseSentences: true})
	require.NoError(t, err)

	chunks := c.Split("A full sentence here. And a trailing fragment without punctuation")
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "trailing fragment")
}
