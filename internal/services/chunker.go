package services

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 150
)

// TextChunker splits job rubric text into overlapping chunks for embedding.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker. Sizes are measured in runes.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")

	var units []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= maxChunkSize {
			units = append(units, para)
			continue
		}
		for _, sentence := range splitIntoSentences(para) {
			units = append(units, hardWrap(sentence, maxChunkSize)...)
		}
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
		dirty   bool
	)
	flush := func() {
		if !dirty {
			return
		}
		dirty = false
		chunk := current.String()
		chunks = append(chunks, chunk)
		current.Reset()
		size = 0
		if tail := lastRunes(chunk, overlap); tail != "" {
			current.WriteString(tail)
			size = utf8.RuneCountInString(tail)
		}
	}

	for _, unit := range units {
		n := utf8.RuneCountInString(unit)
		if size > 0 && size+n+1 > maxChunkSize {
			flush()
			// An overlap tail plus this unit may still not fit.
			if size+n+1 > maxChunkSize {
				current.Reset()
				size = 0
			}
		}
		if size > 0 {
			current.WriteString(" ")
			size++
		}
		current.WriteString(unit)
		size += n
		dirty = true
	}
	flush()

	return chunks
}

// splitIntoSentences keeps terminal punctuation attached to each sentence.
func splitIntoSentences(text string) []string {
	var (
		result []string
		start  int
	)
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				result = append(result, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		result = append(result, s)
	}
	return result
}

func hardWrap(s string, size int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}
	var out []string
	for len(runes) > size {
		out = append(out, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
