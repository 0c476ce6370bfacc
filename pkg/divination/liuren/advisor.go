package liuren

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-divination-be/pkg/llm"
)

// CandidateSelection is the outcome of the advisory narrowing stage:
// which relatives the reading should be interpreted through, and why.
type CandidateSelection struct {
	Candidates     []Relative `json:"candidates"`
	Justifications []string   `json:"justifications"`
	FallbackUsed   bool       `json:"fallback_used"`
}

// Interpretation is the outcome of the advisory synthesis stage.
type Interpretation struct {
	Text         string `json:"text"`
	FallbackUsed bool   `json:"fallback_used"`
}

// Advisor drives the two external-service-assisted stages. Both calls
// are advisory: a timeout or a structurally invalid response degrades
// to a deterministic default and never fails the run.
type Advisor struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
	logger      *log.Logger
}

func NewAdvisor(llmProvider llm.LLMProvider, timeout time.Duration, logger *log.Logger) *Advisor {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Advisor{
		llmProvider: llmProvider,
		timeout:     timeout,
		logger:      logger,
	}
}

type candidateResponse struct {
	Justifications []string `json:"justifications"`
	Candidates     []string `json:"candidates"`
}

// SelectCandidates asks the completion service to narrow the focus
// relatives for the question. The response must carry at least two
// justifications and at least one known relative label; anything else
// falls back to the taiji-palace relative plus the question-type prior.
func (a *Advisor) SelectCandidates(ctx context.Context, question, questionType, gender string, reading *Reading) *CandidateSelection {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := a.buildCandidatePrompt(question, questionType, reading)
	response, err := a.llmProvider.Generate(callCtx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		a.logger.Printf("[WARN] Candidate selection call failed: %v", err)
		return a.fallbackCandidates(questionType, gender, reading)
	}

	selection, err := parseCandidates(response)
	if err != nil {
		a.logger.Printf("[WARN] Candidate selection parse failed: %v", err)
		return a.fallbackCandidates(questionType, gender, reading)
	}

	a.logger.Printf("[ADVISOR] Candidates selected: %v", selection.Candidates)
	return selection
}

func (a *Advisor) buildCandidatePrompt(question, questionType string, reading *Reading) string {
	var prompt strings.Builder

	prompt.WriteString("你是小六壬解卦助手。根据排盘结果，为问题选出最相关的用神（六亲）。\n")
	prompt.WriteString("只输出 JSON，不要输出其他内容。\n\n")

	prompt.WriteString(fmt.Sprintf("问题：%s\n", question))
	prompt.WriteString(fmt.Sprintf("问题类型：%s\n", QuestionTypeLabel(questionType)))
	prompt.WriteString(fmt.Sprintf("落宫：%s（%s）\n", reading.Palace.Name, reading.Palace.Element))
	prompt.WriteString("各宫配置：\n")
	for i := range reading.Relatives {
		prompt.WriteString(fmt.Sprintf("- %s：六亲=%s，六兽=%s，地支=%s\n",
			reading.Relatives[i].Palace,
			reading.Relatives[i].Relative,
			reading.Beasts[i].Beast,
			reading.Beasts[i].Branch,
		))
	}

	prompt.WriteString("\n输出格式：\n")
	prompt.WriteString(`{"justifications": ["理由一", "理由二"], "candidates": ["妻财"]}` + "\n")
	prompt.WriteString("justifications 至少两条；candidates 只能取：父母、兄弟、官鬼、妻财、子孙。\n")

	return prompt.String()
}

func parseCandidates(response string) (*CandidateSelection, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var parsed candidateResponse
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	if len(parsed.Justifications) < 2 {
		return nil, fmt.Errorf("expected at least 2 justifications, got %d", len(parsed.Justifications))
	}

	var candidates []Relative
	for _, c := range parsed.Candidates {
		rel := Relative(strings.TrimSpace(c))
		if RelativeMeanings[rel] == "" {
			continue
		}
		candidates = append(candidates, rel)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no valid relative labels in candidates")
	}

	return &CandidateSelection{
		Candidates:     candidates,
		Justifications: parsed.Justifications,
	}, nil
}

// fallbackCandidates is the deterministic default: the relative at the
// taiji palace, followed by the question-type priors not already listed.
func (a *Advisor) fallbackCandidates(questionType, gender string, reading *Reading) *CandidateSelection {
	candidates := []Relative{reading.TaijiRelative()}
	for _, prior := range PriorRelatives(questionType, gender) {
		seen := false
		for _, c := range candidates {
			if c == prior {
				seen = true
				break
			}
		}
		if !seen {
			candidates = append(candidates, prior)
		}
	}

	return &CandidateSelection{
		Candidates: candidates,
		Justifications: []string{
			fmt.Sprintf("落宫%s由%s主事，以落宫六亲为用神", reading.Palace.Name, reading.TaijiRelative()),
			fmt.Sprintf("结合%s类问题的常规用神取向", QuestionTypeLabel(questionType)),
		},
		FallbackUsed: true,
	}
}

// Interpret asks the completion service for a brief structured reading
// of the computed chart. Failure degrades to a template interpretation
// built from the taiji palace; the caller decides how to surface it.
func (a *Advisor) Interpret(ctx context.Context, question string, reading *Reading, selection *CandidateSelection) *Interpretation {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := a.buildInterpretPrompt(question, reading, selection)
	response, err := a.llmProvider.Generate(callCtx, prompt, llm.WithTemperature(0.4))
	if err != nil || strings.TrimSpace(response) == "" {
		if err != nil {
			a.logger.Printf("[WARN] Interpretation call failed: %v", err)
		}
		return &Interpretation{
			Text:         fallbackInterpretation(reading, selection),
			FallbackUsed: true,
		}
	}

	return &Interpretation{Text: strings.TrimSpace(response)}
}

func (a *Advisor) buildInterpretPrompt(question string, reading *Reading, selection *CandidateSelection) string {
	var prompt strings.Builder

	prompt.WriteString("你是小六壬解卦助手。根据排盘与选定用神，对问题给出简短解读（200字以内）。\n\n")
	prompt.WriteString(fmt.Sprintf("问题：%s\n", question))
	prompt.WriteString(fmt.Sprintf("落宫：%s，%s\n", reading.Palace.Name, reading.Palace.Meaning))
	prompt.WriteString(fmt.Sprintf("时辰：%s时（%s）\n", reading.Hour.Branch, reading.Hour.Sequence))
	prompt.WriteString(fmt.Sprintf("用神：%v\n", selection.Candidates))
	prompt.WriteString("依据：\n")
	for _, j := range selection.Justifications {
		prompt.WriteString("- " + j + "\n")
	}

	return prompt.String()
}

// palaceOutlook gives the one-line template reading per palace, used
// when the synthesis call degrades.
var palaceOutlook = map[string]string{
	"大安": "平安吉利，%s得位，事情顺利发展",
	"留连": "事情拖延，%s受困，需要耐心等待",
	"速喜": "快速喜悦，%s得力，事情进展迅速",
	"赤口": "口舌是非，%s受冲，需要谨慎处理",
	"小吉": "小有收获，%s平稳，适度发展为宜",
	"空亡": "虚空无实，%s失位，事情可能落空",
}

func fallbackInterpretation(reading *Reading, selection *CandidateSelection) string {
	yongshen := string(selection.Candidates[0])
	outlook, ok := palaceOutlook[reading.Palace.Name]
	if !ok {
		outlook = "%s之事需要进一步分析"
	}
	return fmt.Sprintf("此卦落于%s宫。%s。", reading.Palace.Name, fmt.Sprintf(outlook, yongshen))
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
