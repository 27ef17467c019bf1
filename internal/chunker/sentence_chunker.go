package chunker

import (
	"regexp"
	"strings"

	"docqa/internal/domain"
)

// DefaultMaxChunkChars is the soft chunk size budget in characters.
const DefaultMaxChunkChars = 1000

// SentenceChunker splits text into sentence-respecting chunks bounded by a
// soft character budget. Sentences are never split: a single sentence longer
// than the budget becomes a chunk of its own.
type SentenceChunker struct {
	maxChunkChars int
	boundary      *regexp.Regexp
}

func NewSentenceChunker(maxChunkChars int) *SentenceChunker {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	return &SentenceChunker{
		maxChunkChars: maxChunkChars,
		// sentence boundary: terminal punctuation followed by whitespace
		boundary: regexp.MustCompile(`[.!?]+(\s+)`),
	}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences := c.sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []domain.Chunk
	var buf strings.Builder
	idx := 0
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{Index: idx, Text: buf.String()})
		idx++
		buf.Reset()
	}
	for _, sentence := range sentences {
		if buf.Len() > 0 && buf.Len()+1+len(sentence) >= c.maxChunkChars {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(sentence)
	}
	flush()
	return chunks, nil
}

// sentences splits text at terminal punctuation followed by whitespace.
// A non-empty trailing fragment without terminal punctuation is kept as a
// final sentence rather than dropped.
func (c *SentenceChunker) sentences(text string) []string {
	var out []string
	start := 0
	for _, m := range c.boundary.FindAllStringSubmatchIndex(text, -1) {
		// m[2] marks the whitespace after the punctuation run
		s := strings.TrimSpace(text[start:m[2]])
		if s != "" {
			out = append(out, s)
		}
		start = m[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
