package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func doc(text string) domain.Document {
	return domain.Document{Source: "test", Content: text}
}

func TestChunk_EmptyInput(t *testing.T) {
	c := NewSentenceChunker(100)

	chunks, err := c.Chunk(doc(""))
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = c.Chunk(doc("   \n\t  "))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_OneSentencePerChunkWhenBudgetIsSmall(t *testing.T) {
	c := NewSentenceChunker(20)

	chunks, err := c.Chunk(doc("Rates rose. Inflation eased. Markets were mixed."))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Rates rose.", chunks[0].Text)
	assert.Equal(t, "Inflation eased.", chunks[1].Text)
	assert.Equal(t, "Markets were mixed.", chunks[2].Text)
}

func TestChunk_AccumulatesSentencesUnderBudget(t *testing.T) {
	c := NewSentenceChunker(1000)

	chunks, err := c.Chunk(doc("Rates rose. Inflation eased. Markets were mixed."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Rates rose. Inflation eased. Markets were mixed.", chunks[0].Text)
}

func TestChunk_IndicesAreContiguous(t *testing.T) {
	c := NewSentenceChunker(15)

	chunks, err := c.Chunk(doc("One thing happened. Another thing happened. A third thing happened."))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.NotEmpty(t, ch.Text)
	}
}

func TestChunk_SingleOversizedSentenceKeptWhole(t *testing.T) {
	c := NewSentenceChunker(10)
	long := "This sentence is far longer than the ten character budget."

	chunks, err := c.Chunk(doc(long))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0].Text)
}

func TestChunk_BudgetHoldsUnlessSingleSentence(t *testing.T) {
	c := NewSentenceChunker(40)
	text := "Growth slowed in the second quarter. Consumer spending held up well. " +
		"Unemployment stayed near record lows. Energy prices kept falling through June."

	chunks, err := c.Chunk(doc(text))
	require.NoError(t, err)
	for _, ch := range chunks {
		if len(ch.Text) > 40 {
			// a chunk may exceed the budget only when it is one whole sentence
			assert.NotContains(t, strings.TrimSuffix(ch.Text, "."), ". ")
		}
	}
}

func TestChunk_ConcatenationRecoversSentenceSequence(t *testing.T) {
	c := NewSentenceChunker(30)
	text := "First fact here. Second fact there! Third fact everywhere? Final trailing fragment"

	chunks, err := c.Chunk(doc(text))
	require.NoError(t, err)

	var parts []string
	for _, ch := range chunks {
		parts = append(parts, ch.Text)
	}
	joined := strings.Join(parts, " ")
	assert.Equal(t, "First fact here. Second fact there! Third fact everywhere? Final trailing fragment", joined)
}

func TestChunk_AbbreviationWithoutWhitespaceIsNotABoundary(t *testing.T) {
	c := NewSentenceChunker(1000)

	chunks, err := c.Chunk(doc("GDP grew by 3.14 percent. That beat forecasts."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "GDP grew by 3.14 percent. That beat forecasts.", chunks[0].Text)
}

func TestNewSentenceChunker_DefaultBudget(t *testing.T) {
	c := NewSentenceChunker(0)
	assert.Equal(t, DefaultMaxChunkChars, c.maxChunkChars)
}
