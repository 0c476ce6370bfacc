package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type SessionDTO struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatRequest struct {
	SessionId string `json:"session_id" validate:"required,uuid"`
	Message   string `json:"message" validate:"required"`
}

// ChatResponse carries one conversational turn. A clarifying turn fills
// State/Reply/MissingFields only; a completed reading also carries the
// structured result and the final answer.
type ChatResponse struct {
	SessionId     string         `json:"session_id"`
	State         string         `json:"state"`
	Reply         string         `json:"reply"`
	MissingFields []string       `json:"missing_fields,omitempty"`
	FieldErrors   []FieldIssue   `json:"field_errors,omitempty"`
	AlgorithmId   string         `json:"algorithm_id,omitempty"`
	Reading       map[string]any `json:"reading,omitempty"`
	References    []ReferenceDTO `json:"references,omitempty"`
	Confidence    float64        `json:"confidence,omitempty"`
	FallbackUsed  bool           `json:"fallback_used,omitempty"`
}

type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ReferenceDTO struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

type AlgorithmDTO struct {
	Id          string           `json:"id"`
	Name        string           `json:"name"`
	InputSchema []AlgorithmField `json:"input_schema"`
}

type AlgorithmField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Min      *int     `json:"min,omitempty"`
	Max      *int     `json:"max,omitempty"`
	Enum     []string `json:"enum,omitempty"`
}

type HistoryMessageDTO struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Chat      string    `json:"chat"`
	CreatedAt time.Time `json:"created_at"`
}

type RecordDTO struct {
	Id           uuid.UUID      `json:"id"`
	Question     string         `json:"question"`
	QuestionType string         `json:"question_type"`
	AlgorithmId  string         `json:"algorithm_id"`
	Result       map[string]any `json:"result"`
	Answer       string         `json:"answer"`
	Confidence   float64        `json:"confidence"`
	FallbackUsed bool           `json:"fallback_used"`
	Feedback     *string        `json:"feedback,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

type HistoryResponse struct {
	Session  SessionDTO          `json:"session"`
	Messages []HistoryMessageDTO `json:"messages"`
	Records  []RecordDTO         `json:"records"`
}

type FeedbackRequest struct {
	RecordId string `json:"record_id" validate:"required,uuid"`
	Feedback string `json:"feedback" validate:"required,oneof=helpful unhelpful"`
}
