package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextKeepsShortTextWhole(t *testing.T) {
	chunks := NewTextChunker().ChunkText("  Must know Go.\r\n\r\nNice to have: Kubernetes.  ", 100, 10)
	assert.Equal(t, []string{"Must know Go. Nice to have: Kubernetes."}, chunks)
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, NewTextChunker().ChunkText(" \n\n ", 100, 10))
}

func TestChunkTextRespectsSizeAndOverlap(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 12; i++ {
		paragraphs = append(paragraphs, strings.Repeat("é", 30)+" requirement.")
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := NewTextChunker().ChunkText(text, 100, 20)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100, "chunk %d", i)
		if i > 0 {
			prev := []rune(chunks[i-1])
			tail := string(prev[len(prev)-20:])
			assert.True(t, strings.HasPrefix(c, tail), "chunk %d does not start with the previous tail", i)
		}
	}
}

func TestChunkTextSplitsLongParagraph(t *testing.T) {
	sentence := strings.Repeat("word ", 15) + "end."
	para := strings.Repeat(sentence+" ", 6)

	chunks := NewTextChunker().ChunkText(para, 120, 0)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 120)
		assert.True(t, strings.HasSuffix(c, "end."), c)
	}
}

func TestSplitIntoSentences(t *testing.T) {
	assert.Equal(t,
		[]string{"Ship it.", "Really?", "Yes!", "trailing"},
		splitIntoSentences("Ship it. Really? Yes! trailing"),
	)
}

func TestHardWrap(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, hardWrap("abcdefg", 3))
	assert.Equal(t, []string{"ab"}, hardWrap("ab", 3))
}
