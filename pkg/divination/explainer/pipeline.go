package explainer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-divination-be/pkg/divination/algorithm"
	"ai-divination-be/pkg/divination/liuren"
	"ai-divination-be/pkg/divination/retrieval"
	"ai-divination-be/pkg/llm"
	"ai-divination-be/pkg/store"
)

// Profile is the optional user context feeding the advanced template.
type Profile struct {
	Gender        string   `json:"gender,omitempty"`
	TotalReadings int      `json:"total_readings"`
	FrequentTypes []string `json:"frequent_types,omitempty"`
}

// Package aggregates everything one explanation needs. Assembled once
// per completed request and consumed exactly once.
type Package struct {
	Question       string
	Intent         string
	Slots          store.SlotSet
	AlgorithmID    string
	Result         *algorithm.Result
	Chunks         []retrieval.Chunk
	Profile        *Profile
	HistorySummary string
}

// Output is the final guarded explanation plus monitoring annotations.
type Output struct {
	Text               string
	Template           string
	FallbackUsed       bool
	RewriteApplied     bool
	GuardrailTriggered bool
	ReplacedTerms      []string
}

// Config bounds the pipeline's external calls.
type Config struct {
	SelfReview bool
	Timeout    time.Duration
}

func DefaultConfig() Config {
	return Config{SelfReview: true, Timeout: 30 * time.Second}
}

// Pipeline turns a Package into guarded user-visible text. It never
// fails: synthesis failure degrades to a deterministic explanation
// built from the structured result, and the guardrail always runs.
type Pipeline struct {
	llmProvider llm.LLMProvider
	cfg         Config
	logger      *log.Logger
}

func NewPipeline(llmProvider llm.LLMProvider, cfg Config, logger *log.Logger) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Pipeline{
		llmProvider: llmProvider,
		cfg:         cfg,
		logger:      logger,
	}
}

// Explain runs assemble -> synthesize -> optional self-review (at most
// one rewrite) -> guardrail.
func (p *Pipeline) Explain(ctx context.Context, pkg *Package) *Output {
	out := &Output{}

	prompt, template := p.assemble(pkg)
	out.Template = template

	draft := p.synthesize(ctx, prompt)
	if draft == "" {
		draft = p.fallbackText(pkg)
		out.FallbackUsed = true
	}

	if p.cfg.SelfReview && !out.FallbackUsed {
		if rewritten, ok := p.review(ctx, draft, pkg); ok {
			draft = rewritten
			out.RewriteApplied = true
		}
	}

	guarded := ApplyGuardrail(draft)
	out.Text = guarded.Text
	out.GuardrailTriggered = guarded.Triggered
	out.ReplacedTerms = guarded.Replaced

	return out
}

// assemble picks basic vs advanced off the presence of optional
// context. Extra context upgrades the template; its absence never
// fails a request.
func (p *Pipeline) assemble(pkg *Package) (prompt, template string) {
	outcome := p.outcome(pkg)

	palace, interpretation, candidates := "未知", "", "未知"
	if outcome != nil {
		palace = outcome.Reading.Palace.Name
		interpretation = outcome.Interpretation
		candidates = joinRelatives(outcome.Candidates.Candidates)
	}

	advanced := len(pkg.Chunks) > 0 || pkg.Profile != nil || pkg.HistorySummary != ""
	if !advanced {
		text := basicTemplate
		text = strings.ReplaceAll(text, "{question}", pkg.Question)
		text = strings.ReplaceAll(text, "{question_type}", liuren.QuestionTypeLabel(pkg.Slots.QuestionType))
		text = strings.ReplaceAll(text, "{palace}", palace)
		text = strings.ReplaceAll(text, "{interpretation}", interpretation)
		text = strings.ReplaceAll(text, "{candidates}", candidates)
		return text, TemplateBasic
	}

	text := advancedTemplate
	text = strings.ReplaceAll(text, "{question}", pkg.Question)
	text = strings.ReplaceAll(text, "{question_type}", liuren.QuestionTypeLabel(pkg.Slots.QuestionType))
	text = strings.ReplaceAll(text, "{palace}", palace)
	text = strings.ReplaceAll(text, "{interpretation}", interpretation)
	text = strings.ReplaceAll(text, "{candidates}", candidates)
	text = strings.ReplaceAll(text, "{references}", formatChunks(pkg.Chunks))
	text = strings.ReplaceAll(text, "{profile}", formatProfile(pkg.Profile))
	text = strings.ReplaceAll(text, "{history_summary}", orNone(pkg.HistorySummary))
	return text, TemplateAdvanced
}

func (p *Pipeline) synthesize(ctx context.Context, prompt string) string {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	response, err := p.llmProvider.Generate(callCtx, prompt, llm.WithTemperature(0.6))
	if err != nil {
		p.logger.Printf("[WARN] Explanation synthesis failed: %v", err)
		return ""
	}
	return strings.TrimSpace(response)
}

type reviewResponse struct {
	NeedsRewrite bool     `json:"needs_rewrite"`
	Issues       []string `json:"issues"`
}

// review runs one critique round and, when flagged, exactly one
// rewrite. Rewrite iterations are capped at 1 regardless of the second
// draft's quality.
func (p *Pipeline) review(ctx context.Context, draft string, pkg *Package) (string, bool) {
	outcome := p.outcome(pkg)
	palace, candidates := "未知", "未知"
	if outcome != nil {
		palace = outcome.Reading.Palace.Name
		candidates = joinRelatives(outcome.Candidates.Candidates)
	}

	prompt := reviewTemplate
	prompt = strings.ReplaceAll(prompt, "{draft}", draft)
	prompt = strings.ReplaceAll(prompt, "{palace}", palace)
	prompt = strings.ReplaceAll(prompt, "{candidates}", candidates)
	prompt = strings.ReplaceAll(prompt, "{has_references}", fmt.Sprintf("%t", len(pkg.Chunks) > 0))

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	response, err := p.llmProvider.Generate(callCtx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		p.logger.Printf("[WARN] Self-review call failed, keeping draft: %v", err)
		return "", false
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return "", false
	}
	var critique reviewResponse
	if err := json.Unmarshal([]byte(jsonContent), &critique); err != nil || !critique.NeedsRewrite {
		return "", false
	}

	p.logger.Printf("[REVIEW] Rewrite requested, issues: %v", critique.Issues)

	rewritePrompt := fmt.Sprintf("修改下面的占卜解读，修正这些问题：%s\n\n原文：\n%s\n\n只输出修改后的解读。",
		strings.Join(critique.Issues, "；"), draft)

	rewriteCtx, cancel2 := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel2()

	rewritten, err := p.llmProvider.Generate(rewriteCtx, rewritePrompt, llm.WithTemperature(0.6))
	if err != nil || strings.TrimSpace(rewritten) == "" {
		return "", false
	}
	return strings.TrimSpace(rewritten), true
}

// fallbackText builds a complete explanation from the structured result
// alone, used when synthesis degrades.
func (p *Pipeline) fallbackText(pkg *Package) string {
	outcome := p.outcome(pkg)
	if outcome == nil {
		return "由于系统繁忙，暂时无法生成详细解读。建议您稍后重试。"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("根据您的占卜结果，此卦落于%s宫，用神为%s。\n\n",
		outcome.Reading.Palace.Name, joinRelatives(outcome.Candidates.Candidates)))
	if outcome.Interpretation != "" {
		b.WriteString(outcome.Interpretation + "\n\n")
	}
	b.WriteString(fmt.Sprintf("由于系统繁忙，我暂时无法生成详细解释。但从卦象来看，您所问的%s问题%s。\n\n建议您稍后重试，或换个时间再起一卦。",
		liuren.QuestionTypeLabel(pkg.Slots.QuestionType), outlookPhrase(outcome)))
	return b.String()
}

func outlookPhrase(outcome *liuren.Outcome) string {
	if liuren.IsFavorable(outcome.Reading.Palace.Name) {
		return "有一定的积极迹象"
	}
	return "需要多一分耐心与谨慎"
}

func (p *Pipeline) outcome(pkg *Package) *liuren.Outcome {
	if pkg.Result == nil {
		return nil
	}
	outcome, ok := pkg.Result.Result.(*liuren.Outcome)
	if !ok || outcome == nil || outcome.Reading == nil || outcome.Candidates == nil {
		return nil
	}
	return outcome
}

func joinRelatives(relatives []liuren.Relative) string {
	if len(relatives) == 0 {
		return "未知"
	}
	parts := make([]string, len(relatives))
	for i, r := range relatives {
		parts[i] = string(r)
	}
	return strings.Join(parts, "、")
}

func formatChunks(chunks []retrieval.Chunk) string {
	if len(chunks) == 0 {
		return "无"
	}
	var parts []string
	for i, c := range chunks {
		parts = append(parts, fmt.Sprintf("%d. 《%s》：%s", i+1, c.Source, c.Text))
	}
	return strings.Join(parts, "\n\n")
}

func formatProfile(profile *Profile) string {
	if profile == nil {
		return "无"
	}
	var lines []string
	if profile.Gender != "" && profile.Gender != "unknown" {
		lines = append(lines, "- 性别："+profile.Gender)
	}
	if profile.TotalReadings > 0 {
		lines = append(lines, fmt.Sprintf("- 历史占卜次数：%d", profile.TotalReadings))
	}
	if len(profile.FrequentTypes) > 0 {
		lines = append(lines, "- 常问问题："+strings.Join(profile.FrequentTypes, "、"))
	}
	if len(lines) == 0 {
		return "无"
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "无"
	}
	return s
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
