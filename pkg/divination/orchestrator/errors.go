package orchestrator

// Field-level validation failures and exhausted clarification budgets
// are conversation outcomes, not errors: they travel on
// Turn.FieldErrors and Turn.MissingFields with a user-facing reply.

// InputRejectedError reports an utterance blocked by the input
// guardrail before extraction. The message is user-facing.
type InputRejectedError struct {
	Reason string
}

func (e *InputRejectedError) Error() string { return e.Reason }
