package dto

import (
	"time"

	"github.com/google/uuid"
)

// ArchiveReadingMessage is the internal bus payload asking the consumer
// to persist a completed reading.
type ArchiveReadingMessage struct {
	SessionId    uuid.UUID      `json:"session_id"`
	UserId       uuid.UUID      `json:"user_id"`
	Question     string         `json:"question"`
	QuestionType string         `json:"question_type"`
	AlgorithmId  string         `json:"algorithm_id"`
	Slots        map[string]any `json:"slots"`
	Result       map[string]any `json:"result"`
	RagContext   []string       `json:"rag_context"`
	Answer       string         `json:"answer"`
	Confidence   float64        `json:"confidence"`
	FallbackUsed bool           `json:"fallback_used"`
	CreatedAt    time.Time      `json:"created_at"`
}
