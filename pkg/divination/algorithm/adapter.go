package algorithm

import (
	"context"
	"time"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Inputs is the resolved slot set handed to an adapter. AskTime is
// already localized to the asker's timezone.
type Inputs struct {
	Num1         int       `json:"num1"`
	Num2         int       `json:"num2"`
	Gender       string    `json:"gender"` // "male", "female" or "unknown"
	AskTime      time.Time `json:"ask_time"`
	Location     string    `json:"location,omitempty"`
	QuestionType string    `json:"question_type"`
	Question     string    `json:"question"`
}

// FieldSchema declares one input field of an algorithm.
type FieldSchema struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"` // "int", "enum", "timestamp", "string"
	Required bool     `json:"required"`
	Min      int      `json:"min,omitempty"` // numeric domain, Type == "int"
	Max      int      `json:"max,omitempty"`
	Enum     []string `json:"enum,omitempty"`
}

// Description is the self-declaration of an adapter, consumed by the
// orchestrator's completeness check and by the listing API.
type Description struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	InputSchema  []FieldSchema `json:"input_schema"`
	OutputSchema []string      `json:"output_schema"`
	Examples     []string      `json:"examples,omitempty"`
}

// RequiredFields returns the names of the required input fields.
func (d Description) RequiredFields() []string {
	var out []string
	for _, f := range d.InputSchema {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Field returns the schema entry for a field name, if declared.
func (d Description) Field(name string) (FieldSchema, bool) {
	for _, f := range d.InputSchema {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Result is the outcome of one adapter run. Immutable once built; the
// deterministic part of Result never depends on external calls.
type Result struct {
	Result     any            `json:"result"`
	Features   map[string]any `json:"features"`
	Confidence float64        `json:"confidence"` // [0,1]
	Meta       map[string]any `json:"meta"`
}

// FallbackUsed reports whether any advisory stage degraded to its
// deterministic default.
func (r *Result) FallbackUsed() bool {
	if r == nil || r.Meta == nil {
		return false
	}
	used, _ := r.Meta["fallback_used"].(bool)
	return used
}

// Adapter is the contract every divination algorithm satisfies. Run is
// pure with respect to its inputs apart from the advisory stages, and
// never returns a partially populated Result.
type Adapter interface {
	ID() string
	Describe() Description
	Validate(in Inputs) []FieldError
	Run(ctx context.Context, in Inputs) (*Result, error)
}
