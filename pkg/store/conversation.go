package store

import "time"

// Conversation flow states.
const (
	StateAwaitingInput  = "AWAITING_INPUT"
	StateSlotExtraction = "SLOT_EXTRACTION"
	StateClarifying     = "CLARIFYING"
	StateRouting        = "ROUTING"
	StateExecuting      = "EXECUTING"
	StatePackaging      = "PACKAGING"
	StateDone           = "DONE"
	StateAborted        = "ABORTED"
)

// SlotSet is the partially filled request of one conversation. Pointer
// fields distinguish "missing" from a zero value.
type SlotSet struct {
	Num1          *int       `json:"num1,omitempty"`
	Num2          *int       `json:"num2,omitempty"`
	Gender        string     `json:"gender,omitempty"` // "male" | "female" | "unknown"
	AskTime       *time.Time `json:"ask_time,omitempty"`
	Timezone      string     `json:"timezone,omitempty"` // IANA identifier
	Location      string     `json:"location,omitempty"`
	QuestionType  string     `json:"question_type,omitempty"`
	AlgorithmHint string     `json:"algorithm_hint,omitempty"`
}

// Merge overlays the filled fields of update onto s. Previously
// confirmed slots are never discarded; updates win field by field.
func (s *SlotSet) Merge(update SlotSet) {
	if update.Num1 != nil {
		s.Num1 = update.Num1
	}
	if update.Num2 != nil {
		s.Num2 = update.Num2
	}
	if update.Gender != "" {
		s.Gender = update.Gender
	}
	if update.AskTime != nil {
		s.AskTime = update.AskTime
	}
	if update.Timezone != "" {
		s.Timezone = update.Timezone
	}
	if update.Location != "" {
		s.Location = update.Location
	}
	if update.QuestionType != "" {
		s.QuestionType = update.QuestionType
	}
	if update.AlgorithmHint != "" {
		s.AlgorithmHint = update.AlgorithmHint
	}
}

// Conversation is the externally-keyed per-session flow state, owned by
// the caller between turns so sessions can span instances.
type Conversation struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	State        string    `json:"state"`
	Intent       string    `json:"intent"`
	Question     string    `json:"question"` // the originating divination question
	Slots        SlotSet   `json:"slots"`
	ClarifyCount int       `json:"clarify_count"`
	Terminal     bool      `json:"terminal"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewConversation starts the flow for a session.
func NewConversation(sessionID, userID string) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		UserID:    userID,
		State:     StateAwaitingInput,
		UpdatedAt: time.Now(),
	}
}
