package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerShortTextSingleChunk(t *testing.T) {
	c := NewChunker(1000, 200)
	chunks := c.Split("A short note about Barcelona.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short note about Barcelona.", chunks[0])
}

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(1000, 200)
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\n  "))
}

func TestChunkerSplitsOnHeadings(t *testing.T) {
	c := NewChunker(120, 20)

	doc := "# Barcelona\nIntro paragraph about the city and its history.\n" +
		"\n## Food\nTapas, pan con tomate and vermouth hour are the staples here.\n" +
		"\n## Art\nGaudi, Picasso and the Miro foundation anchor the art scene."

	chunks := c.Split(doc)
	require.NotEmpty(t, chunks)

	// Section headings survive at chunk starts rather than being consumed.
	var headingChunks int
	for _, chunk := range chunks {
		if strings.HasPrefix(chunk, "## ") {
			headingChunks++
		}
	}
	assert.GreaterOrEqual(t, headingChunks, 1)
}

func TestChunkerRespectsSizeBound(t *testing.T) {
	c := NewChunker(200, 40)

	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("A sentence about travel planning in a busy city. ")
	}

	chunks := c.Split(sb.String())
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		// Overlap carry-over may pad a chunk slightly past the target size.
		assert.LessOrEqual(t, len(chunk), c.ChunkSize+c.ChunkOverlap)
	}
}

func TestChunkerHardCutOverlap(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("x", 350)

	chunks := c.hardCut(text)
	require.Greater(t, len(chunks), 1)
	// Consecutive hard-cut windows advance by size minus overlap.
	assert.Equal(t, 100, len(chunks[0]))
}

func TestNewChunkerDefaults(t *testing.T) {
	c := NewChunker(0, -1)
	assert.Equal(t, 1000, c.ChunkSize)
	assert.Equal(t, 200, c.ChunkOverlap)
}
