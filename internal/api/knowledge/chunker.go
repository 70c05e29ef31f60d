package knowledge

import "strings"

// Separators tried in order when splitting a document; headings and
// horizontal rules first so chunks stay aligned to document structure.
var separators = []string{"\n## ", "\n### ", "\n---", "\n\n", "\n", " "}

// Chunker splits markdown documents into overlapping windows suitable for
// embedding.
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
}

func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 200
	}
	return &Chunker{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// Split breaks text into chunks of at most ChunkSize characters, preferring
// structural boundaries and carrying ChunkOverlap characters of context
// between adjacent chunks.
func (c *Chunker) Split(text string) []string {
	return c.split(text, separators)
}

func (c *Chunker) split(text string, seps []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= c.ChunkSize {
		return []string{strings.TrimSpace(text)}
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return c.hardCut(text)
	}

	parts := strings.Split(text, sep)
	// Keep the separator attached so heading markers survive in the chunks.
	for i := 1; i < len(parts); i++ {
		parts[i] = sep + parts[i]
	}

	var chunks []string
	var cur string
	flush := func() {
		if s := strings.TrimSpace(cur); s != "" {
			chunks = append(chunks, s)
		}
	}

	for _, part := range parts {
		if len(part) > c.ChunkSize {
			flush()
			cur = ""
			chunks = append(chunks, c.split(part, rest)...)
			continue
		}
		if cur != "" && len(cur)+len(part) > c.ChunkSize {
			flush()
			// Carry a tail of the previous chunk for context continuity.
			if c.ChunkOverlap > 0 && len(cur) > c.ChunkOverlap {
				cur = cur[len(cur)-c.ChunkOverlap:]
			} else {
				cur = ""
			}
		}
		cur += part
	}
	flush()

	return chunks
}

func (c *Chunker) hardCut(text string) []string {
	step := c.ChunkSize - c.ChunkOverlap
	if step <= 0 {
		step = c.ChunkSize
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + c.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			chunks = append(chunks, s)
		}
		if end == len(text) {
			break
		}
	}
	return chunks
}

func pickSeparator(text string, seps []string) (string, []string) {
	for i, s := range seps {
		if strings.Contains(text, s) {
			return s, seps[i+1:]
		}
	}
	return "", nil
}
