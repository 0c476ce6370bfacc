package explainer

import (
	"strings"
	"testing"
)

func TestApplyGuardrailReplacesAbsoluteTerms(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantText    string
		wantTrigger bool
	}{
		{
			name:        "clean text passes through",
			text:        "事业运势平稳，宜耐心等待时机。",
			wantText:    "事业运势平稳，宜耐心等待时机。",
			wantTrigger: false,
		},
		{
			name:        "yiding hui softened",
			text:        "你一定会升职。",
			wantText:    "你很可能会升职。",
			wantTrigger: true,
		},
		{
			name:        "longer phrase wins over contained one",
			text:        "此事必然会成功。",
			wantText:    "此事大概率会成功。",
			wantTrigger: true,
		},
		{
			name:        "multiple terms in one text",
			text:        "保证成功，注定发财，百分之百没问题。",
			wantText:    "预示成功，倾向于发财，很大程度上没问题。",
			wantTrigger: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ApplyGuardrail(tt.text)

			if !strings.HasPrefix(result.Text, tt.wantText) {
				t.Errorf("Text = %q, want prefix %q", result.Text, tt.wantText)
			}
			if result.Triggered != tt.wantTrigger {
				t.Errorf("Triggered = %v, want %v", result.Triggered, tt.wantTrigger)
			}
			if tt.wantTrigger && len(result.Replaced) == 0 {
				t.Error("triggered result carries no replacement annotations")
			}
		})
	}
}

func TestApplyGuardrailAlwaysAppendsDisclaimer(t *testing.T) {
	for _, text := range []string{"", "正常解读。", "一定会成功。"} {
		result := ApplyGuardrail(text)
		if !strings.Contains(result.Text, Disclaimer) {
			t.Errorf("disclaimer missing for input %q", text)
		}
		if !strings.HasSuffix(result.Text, "**") {
			t.Errorf("disclaimer not at the end for input %q: %q", text, result.Text)
		}
	}
}

func TestApplyGuardrailAnnotationsNotInText(t *testing.T) {
	result := ApplyGuardrail("你肯定会赢。")
	if !result.Triggered {
		t.Fatal("expected trigger")
	}
	for _, replaced := range result.Replaced {
		if strings.Contains(result.Text, replaced) {
			t.Errorf("annotation %q leaked into user-visible text", replaced)
		}
	}
}
