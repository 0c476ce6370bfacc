package liuren

import (
	"context"
	"fmt"
	"time"

	"ai-divination-be/pkg/divination/algorithm"
)

// Outcome is the structured result of one run of the default algorithm.
type Outcome struct {
	Reading        *Reading            `json:"reading"`
	Candidates     *CandidateSelection `json:"candidates"`
	Interpretation string              `json:"interpretation"`
}

// Adapter implements the default 小六壬 algorithm over the six-stage
// chain: four deterministic stages in ComputeReading, then the two
// advisory stages through the Advisor.
type Adapter struct {
	advisor *Advisor
	now     func() time.Time
}

var _ algorithm.Adapter = (*Adapter)(nil)

func NewAdapter(advisor *Advisor) *Adapter {
	return &Adapter{
		advisor: advisor,
		now:     time.Now,
	}
}

func (a *Adapter) ID() string { return AlgorithmID }

func (a *Adapter) Describe() algorithm.Description {
	return algorithm.Description{
		ID:   AlgorithmID,
		Name: "小六壬",
		InputSchema: []algorithm.FieldSchema{
			{Name: "num1", Type: "int", Required: true, Min: 1, Max: 6},
			{Name: "num2", Type: "int", Required: true, Min: 1, Max: 6},
			{Name: "ask_time", Type: "timestamp", Required: true},
			{Name: "question_type", Type: "enum", Required: true, Enum: QuestionTypes()},
			{Name: "gender", Type: "enum", Required: false, Enum: []string{"male", "female", "unknown"}},
			{Name: "timezone", Type: "string", Required: false},
			{Name: "location", Type: "string", Required: false},
		},
		OutputSchema: []string{"reading", "candidates", "interpretation"},
		Examples: []string{
			"报两个1-6的数字，比如 3 和 5，问事业",
		},
	}
}

// Validate returns every violated field, never just the first. It does
// not mutate its input.
func (a *Adapter) Validate(in algorithm.Inputs) []algorithm.FieldError {
	var errs []algorithm.FieldError

	desc := a.Describe()
	for _, field := range []struct {
		name  string
		value int
	}{
		{"num1", in.Num1},
		{"num2", in.Num2},
	} {
		schema, _ := desc.Field(field.name)
		if field.value < schema.Min || field.value > schema.Max {
			errs = append(errs, algorithm.FieldError{
				Field:   field.name,
				Message: fmt.Sprintf("must be between %d and %d", schema.Min, schema.Max),
			})
		}
	}

	if in.AskTime.IsZero() {
		errs = append(errs, algorithm.FieldError{Field: "ask_time", Message: "is required"})
	} else if in.AskTime.After(a.now()) {
		errs = append(errs, algorithm.FieldError{Field: "ask_time", Message: "must not be in the future"})
	}

	if !IsQuestionType(in.QuestionType) {
		errs = append(errs, algorithm.FieldError{Field: "question_type", Message: "is not a supported question type"})
	}

	switch in.Gender {
	case "", "male", "female", "unknown":
	default:
		errs = append(errs, algorithm.FieldError{Field: "gender", Message: "must be male, female or unknown"})
	}

	return errs
}

// Run executes the six stages. Stages 1-4 are always computed and fully
// determined by the inputs; stages 5-6 degrade to deterministic
// defaults and flag meta.fallback_used instead of failing.
func (a *Adapter) Run(ctx context.Context, in algorithm.Inputs) (*algorithm.Result, error) {
	if errs := a.Validate(in); len(errs) > 0 {
		return nil, &algorithm.ExecutionError{
			ID:  AlgorithmID,
			Err: fmt.Errorf("invalid inputs reached run: %v", errs),
		}
	}

	reading, err := ComputeReading(in.Num1, in.Num2, in.AskTime)
	if err != nil {
		return nil, &algorithm.ExecutionError{ID: AlgorithmID, Err: err}
	}

	selection := a.advisor.SelectCandidates(ctx, in.Question, in.QuestionType, in.Gender, reading)
	interpretation := a.advisor.Interpret(ctx, in.Question, reading, selection)

	confidence := 0.9
	var degraded []string
	if selection.FallbackUsed {
		confidence -= 0.15
		degraded = append(degraded, "candidate_selection")
	}
	if interpretation.FallbackUsed {
		confidence -= 0.1
		degraded = append(degraded, "interpretation")
	}

	relatives := make([]string, len(selection.Candidates))
	for i, c := range selection.Candidates {
		relatives[i] = string(c)
	}

	return &algorithm.Result{
		Result: &Outcome{
			Reading:        reading,
			Candidates:     selection,
			Interpretation: interpretation.Text,
		},
		Features: map[string]any{
			"palace":             reading.Palace.Name,
			"favorable":          IsFavorable(reading.Palace.Name),
			"hour_branch":        reading.Hour.Branch,
			"selected_relatives": relatives,
		},
		Confidence: confidence,
		Meta: map[string]any{
			"algorithm":       AlgorithmID,
			"fallback_used":   len(degraded) > 0,
			"degraded_stages": degraded,
		},
	}, nil
}
