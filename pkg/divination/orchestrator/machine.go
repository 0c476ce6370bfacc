package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-divination-be/pkg/divination/algorithm"
	"ai-divination-be/pkg/store"
)

// Config bounds one conversation flow.
type Config struct {
	MaxClarifications int    // clarification rounds for missing fields
	DefaultAlgorithm  string // adapter id used when no hint maps
	DefaultTimezone   string // IANA name assumed when the user gives none
}

func DefaultConfig() Config {
	return Config{
		MaxClarifications: 1,
		DefaultAlgorithm:  "xlr-liuren",
		DefaultTimezone:   "Asia/Shanghai",
	}
}

// Turn is the outcome of advancing a conversation by one utterance.
// Exactly one of Reply, FieldErrors/MissingFields, or Inputs is the
// caller's next move.
type Turn struct {
	State         string
	Reply         string // clarification question or chat reply; empty when executing
	MissingFields []string
	FieldErrors   []algorithm.FieldError
	AlgorithmID   string
	Inputs        *algorithm.Inputs // non-nil when the slot set is complete and valid
}

// ReadyToExecute reports whether the turn resolved a complete, valid
// slot set.
func (t *Turn) ReadyToExecute() bool { return t.Inputs != nil }

// Machine drives the bounded slot-filling flow:
// AWAITING_INPUT -> SLOT_EXTRACTION -> (CLARIFYING <->) -> ROUTING ->
// EXECUTING -> PACKAGING -> DONE | ABORTED. It mutates only the
// Conversation handed to it; persistence is the caller's concern.
type Machine struct {
	registry  *algorithm.Registry
	extractor *SlotExtractor
	cfg       Config
	logger    *log.Logger
	now       func() time.Time
}

func NewMachine(registry *algorithm.Registry, extractor *SlotExtractor, cfg Config, logger *log.Logger) *Machine {
	if cfg.MaxClarifications < 0 {
		cfg.MaxClarifications = 0
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = DefaultConfig().DefaultTimezone
	}
	return &Machine{
		registry:  registry,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Advance applies one utterance to the conversation. Slot updates are
// merged in arrival order and never discard previously confirmed
// values. Returned errors are user-visible (*InputRejectedError,
// *algorithm.NotFoundError); field errors and missing fields travel
// on the Turn. Internal degradation never surfaces here.
func (m *Machine) Advance(ctx context.Context, conv *store.Conversation, utterance string) (*Turn, error) {
	if err := ScreenUtterance(utterance); err != nil {
		return nil, err
	}

	// A finished flow starts over within the same session.
	if conv.Terminal {
		conv.Slots = store.SlotSet{}
		conv.Intent = ""
		conv.Question = ""
		conv.ClarifyCount = 0
		conv.Terminal = false
	}

	conv.State = store.StateSlotExtraction
	conv.UpdatedAt = m.now()

	intent, partial := m.extractor.ClassifyAndExtract(ctx, utterance, conv.Slots)
	conv.Slots.Merge(partial)
	if conv.Intent == "" || intent == IntentDivination {
		conv.Intent = intent
	}
	if conv.Question == "" && intent == IntentDivination {
		conv.Question = strings.TrimSpace(utterance)
	}

	if conv.Intent == IntentChitchat && conv.Question == "" {
		conv.State = store.StateAwaitingInput
		return &Turn{
			State: conv.State,
			Reply: "您好，我可以为您起一卦。请告诉我您想问的事情，并报两个 1-6 的数字。",
		}, nil
	}

	// Routing: an explicit hint resolves directly; otherwise the
	// default adapter serves the divination intent. With neither, the
	// user picks, which consumes a clarification round.
	adapterID := conv.Slots.AlgorithmHint
	if adapterID == "" {
		adapterID = m.cfg.DefaultAlgorithm
	}
	if adapterID == "" {
		if conv.ClarifyCount >= m.cfg.MaxClarifications {
			conv.State = store.StateAborted
			conv.Terminal = true
			m.logger.Printf("[MACHINE] session=%s aborted, no algorithm chosen", conv.SessionID)
			return &Turn{
				State: conv.State,
				Reply: "未能确定起卦方式，已结束。您可以重新提问。",
			}, nil
		}
		conv.ClarifyCount++
		conv.State = store.StateClarifying
		return &Turn{
			State: conv.State,
			Reply: chooseAlgorithmQuestion(m.registry.List()),
		}, nil
	}
	adapter, err := m.registry.Get(adapterID)
	if err != nil {
		return nil, err
	}
	desc := adapter.Describe()

	// Field-level validation of filled slots happens immediately; an
	// invalid round does not consume the clarification budget.
	if fieldErrs := m.validateFilled(conv.Slots, desc); len(fieldErrs) > 0 {
		m.logger.Printf("[MACHINE] session=%s invalid fields: %v", conv.SessionID, fieldErrs)
		return &Turn{
			State:       conv.State,
			FieldErrors: fieldErrs,
			Reply:       formatFieldErrors(fieldErrs),
		}, nil
	}

	missing := m.missingFields(conv.Slots, desc)
	if len(missing) > 0 {
		if conv.ClarifyCount >= m.cfg.MaxClarifications {
			conv.State = store.StateAborted
			conv.Terminal = true
			m.logger.Printf("[MACHINE] session=%s aborted, still missing %v", conv.SessionID, missing)
			return &Turn{
				State:         conv.State,
				MissingFields: missing,
				Reply:         "本次起卦信息仍不完整，已结束。您可以重新提问。",
			}, nil
		}
		conv.ClarifyCount++
		conv.State = store.StateClarifying
		return &Turn{
			State:         conv.State,
			MissingFields: missing,
			Reply:         clarificationQuestion(missing),
		}, nil
	}

	inputs, err := m.resolveInputs(conv)
	if err != nil {
		// Timezone is validated above, so this is a defect.
		return nil, err
	}

	conv.State = store.StateExecuting
	return &Turn{
		State:       conv.State,
		AlgorithmID: adapterID,
		Inputs:      inputs,
	}, nil
}

// validateFilled checks only the slots that are present. Missing fields
// are the clarification loop's concern, not validation failures.
func (m *Machine) validateFilled(slots store.SlotSet, desc algorithm.Description) []algorithm.FieldError {
	var errs []algorithm.FieldError

	checkNum := func(name string, value *int) {
		if value == nil {
			return
		}
		// Adapters that declare nothing still get the boundary domain.
		min, max := 1, 9
		if schema, ok := desc.Field(name); ok {
			min, max = schema.Min, schema.Max
		}
		if *value < min || *value > max {
			errs = append(errs, algorithm.FieldError{
				Field:   name,
				Message: fmt.Sprintf("must be between %d and %d", min, max),
			})
		}
	}
	checkNum("num1", slots.Num1)
	checkNum("num2", slots.Num2)

	if slots.AskTime != nil && slots.AskTime.After(m.now()) {
		errs = append(errs, algorithm.FieldError{Field: "ask_time", Message: "must not be in the future"})
	}

	if slots.Timezone != "" {
		if _, err := time.LoadLocation(slots.Timezone); err != nil {
			errs = append(errs, algorithm.FieldError{Field: "timezone", Message: "is not a recognized timezone"})
		}
	}

	if slots.QuestionType != "" {
		if schema, ok := desc.Field("question_type"); ok && len(schema.Enum) > 0 {
			found := false
			for _, v := range schema.Enum {
				if v == slots.QuestionType {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, algorithm.FieldError{Field: "question_type", Message: "is not a supported question type"})
			}
		}
	}

	switch slots.Gender {
	case "", "male", "female", "unknown":
	default:
		errs = append(errs, algorithm.FieldError{Field: "gender", Message: "must be male, female or unknown"})
	}

	return errs
}

// missingFields runs the adapter-declared completeness check. ask_time
// defaults to the utterance time, so it never blocks completeness.
func (m *Machine) missingFields(slots store.SlotSet, desc algorithm.Description) []string {
	var missing []string
	for _, name := range desc.RequiredFields() {
		switch name {
		case "num1":
			if slots.Num1 == nil {
				missing = append(missing, name)
			}
		case "num2":
			if slots.Num2 == nil {
				missing = append(missing, name)
			}
		case "question_type":
			if slots.QuestionType == "" {
				missing = append(missing, name)
			}
		case "gender":
			if slots.Gender == "" {
				missing = append(missing, name)
			}
		case "ask_time", "timezone", "location":
			// Defaulted during input resolution.
		}
	}
	return missing
}

// resolveInputs materializes the complete slot set, applying defaults:
// ask_time falls back to now, timezone to the configured default,
// gender to unknown. AskTime is localized before the adapter sees it.
func (m *Machine) resolveInputs(conv *store.Conversation) (*algorithm.Inputs, error) {
	tz := conv.Slots.Timezone
	if tz == "" {
		tz = m.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	askTime := m.now()
	if conv.Slots.AskTime != nil {
		askTime = *conv.Slots.AskTime
	}
	askTime = askTime.In(loc)

	gender := conv.Slots.Gender
	if gender == "" {
		gender = "unknown"
	}

	inputs := &algorithm.Inputs{
		Gender:       gender,
		AskTime:      askTime,
		Location:     conv.Slots.Location,
		QuestionType: conv.Slots.QuestionType,
		Question:     conv.Question,
	}
	// Numbers stay zero for adapters whose schema never asks for them;
	// completeness already guaranteed them for adapters that do.
	if conv.Slots.Num1 != nil {
		inputs.Num1 = *conv.Slots.Num1
	}
	if conv.Slots.Num2 != nil {
		inputs.Num2 = *conv.Slots.Num2
	}
	return inputs, nil
}

// slotPrompts names each field the way a clarification question asks
// for it.
var slotPrompts = map[string]string{
	"num1":          "第一个数字（1-6）",
	"num2":          "第二个数字（1-6）",
	"question_type": "问题类型（如事业、财运、感情）",
	"gender":        "您的性别",
	"ask_time":      "起卦时间",
	"timezone":      "您所在的时区",
}

func chooseAlgorithmQuestion(available []algorithm.Description) string {
	parts := make([]string, len(available))
	for i, d := range available {
		parts[i] = fmt.Sprintf("%s（%s）", d.Name, d.ID)
	}
	return fmt.Sprintf("请先选择起卦方式：%s。", strings.Join(parts, "、"))
}

func clarificationQuestion(missing []string) string {
	parts := make([]string, len(missing))
	for i, name := range missing {
		if p, ok := slotPrompts[name]; ok {
			parts[i] = p
		} else {
			parts[i] = name
		}
	}
	return fmt.Sprintf("还差一点信息就可以起卦了，请告诉我：%s。", strings.Join(parts, "、"))
}

func formatFieldErrors(errs []algorithm.FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		name := e.Field
		if p, ok := slotPrompts[name]; ok {
			name = p
		}
		parts[i] = fmt.Sprintf("%s %s", name, e.Message)
	}
	return fmt.Sprintf("有些信息不太对：%s。请修正后再试。", strings.Join(parts, "；"))
}
