package orchestrator

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"ai-divination-be/pkg/divination/algorithm"
	"ai-divination-be/pkg/divination/liuren"
	"ai-divination-be/pkg/llm"
	"ai-divination-be/pkg/store"
)

// stubLLM replays canned responses; an empty queue means every call fails,
// which drives the extractor onto its deterministic fallback path.
type stubLLM struct {
	responses []string
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, "")
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	if len(s.responses) == 0 {
		return "", errors.New("stub: provider unavailable")
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

func newTestMachine(t *testing.T, extractorResponses ...string) *Machine {
	t.Helper()

	discard := log.New(io.Discard, "", 0)
	registry := algorithm.NewRegistry()
	advisor := liuren.NewAdvisor(&stubLLM{}, time.Second, discard)
	if err := registry.Register(liuren.NewAdapter(advisor)); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	extractor := NewSlotExtractor(&stubLLM{responses: extractorResponses}, discard)
	return NewMachine(registry, extractor, DefaultConfig(), discard)
}

func TestAdvanceHappyPathSingleUtterance(t *testing.T) {
	machine := newTestMachine(t)
	conv := store.NewConversation("sess-1", "user-1")

	turn, err := machine.Advance(context.Background(), conv, "我想问事业，数字3和5")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}

	if !turn.ReadyToExecute() {
		t.Fatalf("not ready to execute: %+v", turn)
	}
	if turn.State != store.StateExecuting {
		t.Errorf("State = %s, want %s", turn.State, store.StateExecuting)
	}
	if turn.AlgorithmID != "xlr-liuren" {
		t.Errorf("AlgorithmID = %s, want xlr-liuren", turn.AlgorithmID)
	}
	if turn.Inputs.Num1 != 3 || turn.Inputs.Num2 != 5 {
		t.Errorf("numbers = %d/%d, want 3/5", turn.Inputs.Num1, turn.Inputs.Num2)
	}
	if turn.Inputs.QuestionType != "career" {
		t.Errorf("QuestionType = %s, want career", turn.Inputs.QuestionType)
	}
	if turn.Inputs.Gender != "unknown" {
		t.Errorf("Gender = %s, want defaulted unknown", turn.Inputs.Gender)
	}
	if turn.Inputs.AskTime.IsZero() {
		t.Error("AskTime should default to the utterance time")
	}
	if conv.Question != "我想问事业，数字3和5" {
		t.Errorf("Question = %q", conv.Question)
	}
}

func TestAdvanceAskTimeDefaultsToConfiguredTimezone(t *testing.T) {
	machine := newTestMachine(t)
	conv := store.NewConversation("sess-tz", "user-1")

	turn, err := machine.Advance(context.Background(), conv, "问财运，2和4")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if !turn.ReadyToExecute() {
		t.Fatalf("not ready: %+v", turn)
	}
	if zone, _ := turn.Inputs.AskTime.Zone(); zone != "CST" {
		t.Errorf("AskTime zone = %s, want CST (Asia/Shanghai)", zone)
	}
}

func TestAdvanceClarifiesThenAborts(t *testing.T) {
	machine := newTestMachine(t)
	conv := store.NewConversation("sess-2", "user-1")

	// First round: no numbers, no question type.
	turn, err := machine.Advance(context.Background(), conv, "帮我算一卦吧")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if turn.State != store.StateClarifying {
		t.Fatalf("State = %s, want %s", turn.State, store.StateClarifying)
	}
	if len(turn.MissingFields) == 0 || turn.Reply == "" {
		t.Errorf("clarification turn missing fields/reply: %+v", turn)
	}
	if conv.ClarifyCount != 1 {
		t.Errorf("ClarifyCount = %d, want 1", conv.ClarifyCount)
	}

	// Second round still incomplete: the budget of one round is spent.
	turn, err = machine.Advance(context.Background(), conv, "就随便问问")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if turn.State != store.StateAborted {
		t.Fatalf("State = %s, want %s", turn.State, store.StateAborted)
	}
	if !conv.Terminal {
		t.Error("aborted conversation not marked terminal")
	}
}

func TestAdvanceInvalidFieldsDoNotConsumeBudget(t *testing.T) {
	machine := newTestMachine(t)
	conv := store.NewConversation("sess-3", "user-1")

	// 7 is outside the declared 1..6 domain: rejected immediately.
	turn, err := machine.Advance(context.Background(), conv, "问事业，数字7和8")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if turn.ReadyToExecute() {
		t.Fatal("invalid fields should not execute")
	}
	if len(turn.FieldErrors) != 2 {
		t.Errorf("FieldErrors = %v, want num1 and num2", turn.FieldErrors)
	}
	if conv.ClarifyCount != 0 {
		t.Errorf("ClarifyCount = %d, invalid round must not consume the budget", conv.ClarifyCount)
	}

	// Correction merges over the rejected values; question type survives.
	turn, err = machine.Advance(context.Background(), conv, "改成2和6")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if !turn.ReadyToExecute() {
		t.Fatalf("corrected slots should execute: %+v", turn)
	}
	if turn.Inputs.Num1 != 2 || turn.Inputs.Num2 != 6 {
		t.Errorf("numbers = %d/%d, want 2/6", turn.Inputs.Num1, turn.Inputs.Num2)
	}
	if turn.Inputs.QuestionType != "career" {
		t.Errorf("QuestionType = %s, previously confirmed slot was lost", turn.Inputs.QuestionType)
	}
}

func TestAdvanceMergePreservesConfirmedSlots(t *testing.T) {
	machine := newTestMachine(t)
	conv := store.NewConversation("sess-4", "user-1")

	turn, err := machine.Advance(context.Background(), conv, "想问感情的事")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if turn.State != store.StateClarifying {
		t.Fatalf("State = %s, want clarifying", turn.State)
	}

	turn, err = machine.Advance(context.Background(), conv, "1和4")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if !turn.ReadyToExecute() {
		t.Fatalf("slots complete after second round: %+v", turn)
	}
	if turn.Inputs.QuestionType != "love" {
		t.Errorf("QuestionType = %s, want love from the first utterance", turn.Inputs.QuestionType)
	}
	if conv.Question != "想问感情的事" {
		t.Errorf("Question = %q, want the originating utterance", conv.Question)
	}
}

func TestAdvanceChitchatIntent(t *testing.T) {
	// Extractor classifies the utterance as chitchat; the machine replies
	// with guidance instead of entering the clarification loop.
	machine := newTestMachine(t, `{"intent": "CHITCHAT"}`)
	conv := store.NewConversation("sess-5", "user-1")

	turn, err := machine.Advance(context.Background(), conv, "你好呀")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if turn.ReadyToExecute() {
		t.Fatal("chitchat should not execute")
	}
	if turn.State != store.StateAwaitingInput {
		t.Errorf("State = %s, want %s", turn.State, store.StateAwaitingInput)
	}
	if turn.Reply == "" {
		t.Error("chitchat turn should carry a guiding reply")
	}
	if conv.ClarifyCount != 0 {
		t.Errorf("ClarifyCount = %d, chitchat must not consume the budget", conv.ClarifyCount)
	}
}

func TestAdvanceRejectsScreenedUtterance(t *testing.T) {
	machine := newTestMachine(t)
	conv := store.NewConversation("sess-6", "user-1")

	_, err := machine.Advance(context.Background(), conv, "帮我算算股票会不会涨")
	var rejected *InputRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want *InputRejectedError", err)
	}
	if rejected.Reason == "" {
		t.Error("rejection reason should be user-facing")
	}
}

func TestAdvanceUnknownAlgorithmHint(t *testing.T) {
	machine := newTestMachine(t, `{"intent": "DIVINATION", "num1": 3, "num2": 5, "question_type": "career", "algorithm_hint": "meihua"}`)
	conv := store.NewConversation("sess-7", "user-1")

	_, err := machine.Advance(context.Background(), conv, "用梅花易数算，3和5，问事业")
	if !errors.Is(err, algorithm.ErrAdapterNotFound) {
		t.Fatalf("err = %v, want ErrAdapterNotFound", err)
	}
}

func TestAdvanceTerminalConversationStartsOver(t *testing.T) {
	machine := newTestMachine(t)
	conv := store.NewConversation("sess-8", "user-1")
	conv.State = store.StateDone
	conv.Terminal = true
	conv.Question = "上一个问题"
	three, five := 3, 5
	conv.Slots = store.SlotSet{Num1: &three, Num2: &five, QuestionType: "career"}

	turn, err := machine.Advance(context.Background(), conv, "再问财运，1和2")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if !turn.ReadyToExecute() {
		t.Fatalf("restarted flow should execute: %+v", turn)
	}
	if turn.Inputs.Num1 != 1 || turn.Inputs.Num2 != 2 {
		t.Errorf("numbers = %d/%d, stale slots survived the restart", turn.Inputs.Num1, turn.Inputs.Num2)
	}
	if turn.Inputs.QuestionType != "wealth" {
		t.Errorf("QuestionType = %s, want wealth", turn.Inputs.QuestionType)
	}
	if turn.Inputs.Question != "再问财运，1和2" {
		t.Errorf("Question = %q, want the new utterance", turn.Inputs.Question)
	}
}

// coinAdapter requires only a question type; its readings need no
// numbers at all.
type coinAdapter struct{}

func (coinAdapter) ID() string { return "zhouyi-coin" }

func (coinAdapter) Describe() algorithm.Description {
	return algorithm.Description{
		ID:   "zhouyi-coin",
		Name: "金钱卦",
		InputSchema: []algorithm.FieldSchema{
			{Name: "question_type", Type: "enum", Required: true},
		},
		OutputSchema: []string{"hexagram"},
	}
}

func (coinAdapter) Validate(algorithm.Inputs) []algorithm.FieldError { return nil }

func (coinAdapter) Run(ctx context.Context, in algorithm.Inputs) (*algorithm.Result, error) {
	return &algorithm.Result{Result: in.QuestionType, Confidence: 1}, nil
}

func newTestMachineWithCoin(t *testing.T, extractorResponses ...string) *Machine {
	t.Helper()

	discard := log.New(io.Discard, "", 0)
	registry := algorithm.NewRegistry()
	advisor := liuren.NewAdvisor(&stubLLM{}, time.Second, discard)
	if err := registry.Register(liuren.NewAdapter(advisor)); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := registry.Register(coinAdapter{}); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	extractor := NewSlotExtractor(&stubLLM{responses: extractorResponses}, discard)
	return NewMachine(registry, extractor, DefaultConfig(), discard)
}

func TestAdvanceAdapterWithoutNumberFields(t *testing.T) {
	// Completeness is whatever the routed adapter declares: an adapter
	// that never asks for numbers executes without them.
	machine := newTestMachineWithCoin(t,
		`{"intent": "DIVINATION", "question_type": "career", "algorithm_hint": "zhouyi-coin"}`)
	conv := store.NewConversation("sess-9", "user-1")

	turn, err := machine.Advance(context.Background(), conv, "用金钱卦问事业")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if !turn.ReadyToExecute() {
		t.Fatalf("adapter without number fields should execute: %+v", turn)
	}
	if turn.AlgorithmID != "zhouyi-coin" {
		t.Errorf("AlgorithmID = %s, want zhouyi-coin", turn.AlgorithmID)
	}
	if turn.Inputs.Num1 != 0 || turn.Inputs.Num2 != 0 {
		t.Errorf("numbers = %d/%d, want zero for undeclared fields", turn.Inputs.Num1, turn.Inputs.Num2)
	}
	if turn.Inputs.QuestionType != "career" {
		t.Errorf("QuestionType = %s, want career", turn.Inputs.QuestionType)
	}
}

func TestAdvanceUndeclaredNumberGetsBoundaryDomain(t *testing.T) {
	// Numbers the schema never mentions still face the 1..9 boundary
	// domain instead of passing through unchecked.
	machine := newTestMachineWithCoin(t,
		`{"intent": "DIVINATION", "num1": 12, "question_type": "career", "algorithm_hint": "zhouyi-coin"}`)
	conv := store.NewConversation("sess-10", "user-1")

	turn, err := machine.Advance(context.Background(), conv, "用金钱卦问事业，数字12")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if turn.ReadyToExecute() {
		t.Fatal("out-of-domain number should not execute")
	}
	if len(turn.FieldErrors) != 1 || turn.FieldErrors[0].Field != "num1" {
		t.Fatalf("FieldErrors = %v, want num1 rejection", turn.FieldErrors)
	}
	if turn.FieldErrors[0].Message != "must be between 1 and 9" {
		t.Errorf("Message = %q, want the boundary domain", turn.FieldErrors[0].Message)
	}
}

func TestAdvanceNoHintNoDefaultAsksForAlgorithm(t *testing.T) {
	discard := log.New(io.Discard, "", 0)
	registry := algorithm.NewRegistry()
	advisor := liuren.NewAdvisor(&stubLLM{}, time.Second, discard)
	if err := registry.Register(liuren.NewAdapter(advisor)); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	machine := NewMachine(registry, NewSlotExtractor(&stubLLM{}, discard), Config{
		MaxClarifications: 1,
		DefaultTimezone:   "Asia/Shanghai",
	}, discard)
	conv := store.NewConversation("sess-11", "user-1")

	turn, err := machine.Advance(context.Background(), conv, "问事业，3和5")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if turn.State != store.StateClarifying {
		t.Fatalf("State = %s, want %s", turn.State, store.StateClarifying)
	}
	if !strings.Contains(turn.Reply, "xlr-liuren") {
		t.Errorf("Reply = %q, want the registered algorithms listed", turn.Reply)
	}
	if conv.ClarifyCount != 1 {
		t.Errorf("ClarifyCount = %d, choosing consumes a round", conv.ClarifyCount)
	}

	// Still no choice: the budget is spent.
	turn, err = machine.Advance(context.Background(), conv, "你看着办吧")
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if turn.State != store.StateAborted {
		t.Fatalf("State = %s, want %s", turn.State, store.StateAborted)
	}
	if !conv.Terminal {
		t.Error("aborted conversation not marked terminal")
	}
}
