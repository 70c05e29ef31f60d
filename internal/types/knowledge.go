package types

import "github.com/google/uuid"

// KnowledgeChunk is one pre-embedded slice of a corpus document.
type KnowledgeChunk struct {
	ID           uuid.UUID `json:"id"`
	DocumentName string    `json:"document_name"`
	ChunkIndex   int       `json:"chunk_index"`
	Content      string    `json:"content"`
}

// KnowledgePassage is a retrieved chunk with its similarity score.
type KnowledgePassage struct {
	DocumentName string  `json:"document_name"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
}
