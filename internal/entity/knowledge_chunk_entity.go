package entity

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeChunk struct {
	Id        uuid.UUID
	Source    string
	Category  string
	Content   string
	CreatedAt time.Time
}

// ScoredKnowledgeChunk pairs a chunk with its cosine similarity
// against a query embedding.
type ScoredKnowledgeChunk struct {
	Chunk *KnowledgeChunk
	Score float64
}
