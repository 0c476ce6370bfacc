package entity

import (
	"time"

	"github.com/google/uuid"
)

// DivinationRecord is the archived outcome of one completed reading:
// the filled slots, the structured algorithm result, the retrieved
// references and the final user-facing answer.
type DivinationRecord struct {
	Id           uuid.UUID
	SessionId    uuid.UUID
	UserId       uuid.UUID
	Question     string
	QuestionType string
	AlgorithmId  string
	Slots        map[string]any
	Result       map[string]any
	RagContext   []string
	Answer       string
	Confidence   float64
	FallbackUsed bool
	Feedback     *string
	CreatedAt    time.Time
}
