package explainer

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
	"ai-divination-be/pkg/divination/retrieval"
	"ai-divination-be/pkg/llm"
	"ai-divination-be/pkg/store"
)

// stubLLM replays canned responses; an empty queue means every call fails.
type stubLLM struct {
	responses []string
	prompts   []string
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, "")
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.responses) == 0 {
		return "", errors.New("stub: provider unavailable")
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

func newTestPipeline(selfReview bool, responses ...string) (*Pipeline, *stubLLM) {
	stub := &stubLLM{responses: responses}
	cfg := Config{SelfReview: selfReview, Timeout: 2 * time.Second}
	return NewPipeline(stub, cfg, log.New(io.Discard, "", 0)), stub
}

func testPackage(t *testing.T) *Package {
	t.Helper()

	askTime := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)
	reading, err := liuren.ComputeReading(3, 5, askTime)
	if err != nil {
		t.Fatalf("ComputeReading error: %v", err)
	}

	outcome := &liuren.Outcome{
		Reading: reading,
		Candidates: &liuren.CandidateSelection{
			Candidates:     []liuren.Relative{liuren.RelativeOfficial},
			Justifications: []string{"落宫主事", "事业以官鬼为用"},
		},
		Interpretation: "事业平稳，宜守不宜进。",
	}

	return &Package{
		Question:    "今年能升职吗",
		Intent:      "DIVINATION",
		Slots:       store.SlotSet{QuestionType: "career"},
		AlgorithmID: liuren.AlgorithmID,
		Result: &algorithm.Result{
			Result:     outcome,
			Confidence: 0.9,
		},
	}
}

func TestExplainSynthesisFailureDegrades(t *testing.T) {
	pipeline, _ := newTestPipeline(true) // empty queue: synthesis fails
	pkg := testPackage(t)

	out := pipeline.Explain(context.Background(), pkg)

	if !out.FallbackUsed {
		t.Error("FallbackUsed not flagged")
	}
	if out.RewriteApplied {
		t.Error("self-review must not run on a fallback draft")
	}
	if !strings.Contains(out.Text, "大安") {
		t.Errorf("fallback text missing palace name: %q", out.Text)
	}
	if !strings.Contains(out.Text, "官鬼") {
		t.Errorf("fallback text missing selected relative: %q", out.Text)
	}
	if !strings.Contains(out.Text, Disclaimer) {
		t.Error("disclaimer missing from degraded output")
	}
}

func TestExplainBasicTemplateWithoutExtraContext(t *testing.T) {
	pipeline, stub := newTestPipeline(false, "从卦象看，事业稳中有升。")
	pkg := testPackage(t)

	out := pipeline.Explain(context.Background(), pkg)

	if out.Template != TemplateBasic {
		t.Errorf("Template = %s, want %s", out.Template, TemplateBasic)
	}
	if out.FallbackUsed {
		t.Error("unexpected fallback")
	}
	if !strings.HasPrefix(out.Text, "从卦象看，事业稳中有升。") {
		t.Errorf("Text = %q", out.Text)
	}
	if len(stub.prompts) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(stub.prompts))
	}
	if !strings.Contains(stub.prompts[0], "大安") || !strings.Contains(stub.prompts[0], "今年能升职吗") {
		t.Error("synthesis prompt missing reading context")
	}
}

func TestExplainAdvancedTemplateWithChunks(t *testing.T) {
	pipeline, stub := newTestPipeline(false, "结合典籍，事业有贵人相助。")
	pkg := testPackage(t)
	pkg.Chunks = []retrieval.Chunk{
		{Text: "大安者，身不动时，属木青龙。", Source: "六宫释义", Score: 0.91},
	}

	out := pipeline.Explain(context.Background(), pkg)

	if out.Template != TemplateAdvanced {
		t.Errorf("Template = %s, want %s", out.Template, TemplateAdvanced)
	}
	if !strings.Contains(stub.prompts[0], "六宫释义") {
		t.Error("advanced prompt missing chunk source")
	}
}

func TestExplainAdvancedTemplateWithProfileOnly(t *testing.T) {
	pipeline, stub := newTestPipeline(false, "结合您的历史，建议稳步推进。")
	pkg := testPackage(t)
	pkg.Profile = &Profile{Gender: "male", TotalReadings: 7, FrequentTypes: []string{"事业"}}
	pkg.HistorySummary = "此前共起卦7次"

	out := pipeline.Explain(context.Background(), pkg)

	if out.Template != TemplateAdvanced {
		t.Errorf("Template = %s, want %s", out.Template, TemplateAdvanced)
	}
	if !strings.Contains(stub.prompts[0], "历史占卜次数：7") {
		t.Error("advanced prompt missing profile")
	}
	if !strings.Contains(stub.prompts[0], "此前共起卦7次") {
		t.Error("advanced prompt missing history summary")
	}
}

func TestExplainSelfReviewRewritesOnce(t *testing.T) {
	pipeline, stub := newTestPipeline(true,
		"初稿：事业还行。",
		`{"needs_rewrite": true, "issues": ["没有提到落宫"]}`,
		"修订稿：此卦落于大安宫，事业稳中有升。",
	)
	pkg := testPackage(t)

	out := pipeline.Explain(context.Background(), pkg)

	if !out.RewriteApplied {
		t.Error("RewriteApplied not flagged")
	}
	if !strings.HasPrefix(out.Text, "修订稿") {
		t.Errorf("Text = %q, want the rewritten draft", out.Text)
	}
	if len(stub.prompts) != 3 {
		t.Errorf("provider calls = %d, want synthesize+review+rewrite", len(stub.prompts))
	}
}

func TestExplainSelfReviewKeepsDraftWhenClean(t *testing.T) {
	pipeline, _ := newTestPipeline(true,
		"此卦落于大安宫，事业稳中有升。",
		`{"needs_rewrite": false, "issues": []}`,
	)
	pkg := testPackage(t)

	out := pipeline.Explain(context.Background(), pkg)

	if out.RewriteApplied {
		t.Error("rewrite applied for a clean draft")
	}
	if !strings.HasPrefix(out.Text, "此卦落于大安宫") {
		t.Errorf("Text = %q", out.Text)
	}
}

func TestExplainSelfReviewFailureKeepsDraft(t *testing.T) {
	// Review call fails after a healthy synthesis: the draft survives.
	pipeline, _ := newTestPipeline(true, "初稿内容。")
	pkg := testPackage(t)

	out := pipeline.Explain(context.Background(), pkg)

	if out.RewriteApplied {
		t.Error("rewrite applied despite review failure")
	}
	if out.FallbackUsed {
		t.Error("fallback flagged despite healthy synthesis")
	}
	if !strings.HasPrefix(out.Text, "初稿内容。") {
		t.Errorf("Text = %q", out.Text)
	}
}

func TestExplainGuardrailRunsOnSynthesizedText(t *testing.T) {
	pipeline, _ := newTestPipeline(false, "你一定会升职，百分之百。")
	pkg := testPackage(t)

	out := pipeline.Explain(context.Background(), pkg)

	if !out.GuardrailTriggered {
		t.Error("guardrail not triggered")
	}
	if strings.Contains(out.Text, "一定会") || strings.Contains(out.Text, "百分之百") {
		t.Errorf("absolute terms survived: %q", out.Text)
	}
	if !strings.Contains(out.Text, Disclaimer) {
		t.Error("disclaimer missing")
	}
}

func TestExplainMissingOutcomeStillProducesText(t *testing.T) {
	pipeline, _ := newTestPipeline(false) // synthesis fails too
	pkg := testPackage(t)
	pkg.Result = nil

	out := pipeline.Explain(context.Background(), pkg)

	if out.Text == "" {
		t.Fatal("empty output")
	}
	if !out.FallbackUsed {
		t.Error("FallbackUsed not flagged")
	}
	if !strings.Contains(out.Text, Disclaimer) {
		t.Error("disclaimer missing")
	}
}
