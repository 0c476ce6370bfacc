package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"ai-divination-be/pkg/llm"
	"ai-divination-be/pkg/store"
)

// Intent classifications.
const (
	IntentDivination = "DIVINATION"
	IntentChitchat   = "CHITCHAT"
)

// SlotExtractor performs LLM-based intent classification and slot
// extraction over one utterance, with a deterministic keyword/regex
// fallback when the call or its parse fails.
type SlotExtractor struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
	now         func() time.Time
}

func NewSlotExtractor(llmProvider llm.LLMProvider, logger *log.Logger) *SlotExtractor {
	return &SlotExtractor{
		llmProvider: llmProvider,
		logger:      logger,
		now:         time.Now,
	}
}

type extractionResponse struct {
	Intent        string `json:"intent"`
	Num1          *int   `json:"num1"`
	Num2          *int   `json:"num2"`
	Gender        string `json:"gender"`
	QuestionType  string `json:"question_type"`
	Location      string `json:"location"`
	AlgorithmHint string `json:"algorithm_hint"`
}

// ClassifyAndExtract is a pure function of the utterance plus the prior
// slot state: it returns the intent and a partial SlotSet holding only
// the fields the utterance filled. Merging is the caller's job.
func (e *SlotExtractor) ClassifyAndExtract(ctx context.Context, utterance string, prior store.SlotSet) (string, store.SlotSet) {
	prompt := e.buildPrompt(utterance, prior)

	response, err := e.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		e.logger.Printf("[WARN] Slot extraction call failed, using fallback: %v", err)
		return e.fallbackExtract(utterance)
	}

	intent, slots, err := parseExtraction(response)
	if err != nil {
		e.logger.Printf("[WARN] Slot extraction parse failed, using fallback: %v", err)
		return e.fallbackExtract(utterance)
	}

	e.logger.Printf("[EXTRACT] Intent=%s slots=%+v", intent, slots)
	return intent, slots
}

func (e *SlotExtractor) buildPrompt(utterance string, prior store.SlotSet) string {
	var prompt strings.Builder

	prompt.WriteString("你是占卜请求解析器。你唯一的工作是分类意图并抽取槽位，不回答问题。\n")
	prompt.WriteString("只输出 JSON。\n\n")

	prompt.WriteString("已确认的槽位（不要重复输出，除非用户明确修改）：\n")
	priorJSON, _ := json.Marshal(prior)
	prompt.Write(priorJSON)
	prompt.WriteString("\n\n用户输入：\n")
	prompt.WriteString(utterance)
	prompt.WriteString("\n\n输出格式：\n")
	prompt.WriteString(`{"intent": "DIVINATION|CHITCHAT", "num1": 3, "num2": 5, "gender": "male|female|unknown", "question_type": "career|wealth|love|health|study|travel|lawsuit|lost_item|general", "location": "", "algorithm_hint": ""}` + "\n")
	prompt.WriteString("未提及的字段输出 null 或空字符串。num1/num2 是用户报出的两个数字。\n")

	return prompt.String()
}

func parseExtraction(response string) (string, store.SlotSet, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return "", store.SlotSet{}, fmt.Errorf("no JSON found in response")
	}

	var parsed extractionResponse
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		return "", store.SlotSet{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	intent := strings.ToUpper(strings.TrimSpace(parsed.Intent))
	if intent != IntentDivination && intent != IntentChitchat {
		intent = IntentDivination
	}

	slots := store.SlotSet{
		Num1:          parsed.Num1,
		Num2:          parsed.Num2,
		Location:      strings.TrimSpace(parsed.Location),
		AlgorithmHint: strings.TrimSpace(parsed.AlgorithmHint),
	}
	switch parsed.Gender {
	case "male", "female", "unknown":
		slots.Gender = parsed.Gender
	}
	if parsed.QuestionType != "" {
		slots.QuestionType = strings.ToLower(strings.TrimSpace(parsed.QuestionType))
	}

	return intent, slots, nil
}

var numberPattern = regexp.MustCompile(`\d+`)

// questionTypeKeywords drives the deterministic fallback classifier.
var questionTypeKeywords = []struct {
	keywords []string
	qtype    string
}{
	{[]string{"事业", "工作", "升职", "跳槽", "career", "job"}, "career"},
	{[]string{"财运", "钱", "收入", "投资", "wealth", "money"}, "wealth"},
	{[]string{"感情", "恋爱", "婚姻", "桃花", "love"}, "love"},
	{[]string{"健康", "身体", "health"}, "health"},
	{[]string{"学业", "考试", "考研", "study", "exam"}, "study"},
	{[]string{"出行", "旅行", "旅游", "travel"}, "travel"},
	{[]string{"官司", "诉讼", "lawsuit"}, "lawsuit"},
	{[]string{"寻物", "丢", "找不到", "失物", "lost"}, "lost_item"},
}

// fallbackExtract is the deterministic path: the first two small
// numbers become num1/num2, keywords fix question type and gender.
func (e *SlotExtractor) fallbackExtract(utterance string) (string, store.SlotSet) {
	var slots store.SlotSet

	var numbers []int
	for _, match := range numberPattern.FindAllString(utterance, -1) {
		var n int
		fmt.Sscanf(match, "%d", &n)
		if n >= 1 && n <= 99 {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) >= 1 {
		slots.Num1 = &numbers[0]
	}
	if len(numbers) >= 2 {
		slots.Num2 = &numbers[1]
	}

	for _, entry := range questionTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(strings.ToLower(utterance), kw) {
				slots.QuestionType = entry.qtype
				break
			}
		}
		if slots.QuestionType != "" {
			break
		}
	}

	switch {
	case strings.Contains(utterance, "女"):
		slots.Gender = "female"
	case strings.Contains(utterance, "男"):
		slots.Gender = "male"
	}

	return IntentDivination, slots
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
