package explainer

import "strings"

// Disclaimer is unconditionally appended to every user-visible
// explanation.
const Disclaimer = "温馨提示：占卜结果仅供娱乐参考，不构成任何专业建议。重大决策请咨询相关专业人士。"

// wordReplacements maps absolute phrasings to probabilistic
// equivalents. Order matters: longer phrases first so a contained
// shorter phrase does not fire twice.
var wordReplacements = []struct {
	from string
	to   string
}{
	{"一定会", "很可能会"},
	{"必然会", "大概率会"},
	{"绝对会", "比较可能会"},
	{"一定能", "有机会能"},
	{"肯定会", "可能会"},
	{"肯定能", "应该能"},
	{"必定", "多半"},
	{"百分之百", "很大程度上"},
	{"保证", "预示"},
	{"注定", "倾向于"},
}

// GuardrailResult carries the filtered text plus annotations for
// monitoring; the annotations never appear in the user-visible text.
type GuardrailResult struct {
	Text      string
	Triggered bool
	Replaced  []string
}

// ApplyGuardrail rewrites deny-listed absolute phrases and appends the
// disclaimer. It is always applied, independent of self-review.
func ApplyGuardrail(text string) GuardrailResult {
	result := GuardrailResult{Text: text}

	for _, r := range wordReplacements {
		if strings.Contains(result.Text, r.from) {
			result.Text = strings.ReplaceAll(result.Text, r.from, r.to)
			result.Triggered = true
			result.Replaced = append(result.Replaced, r.from+" -> "+r.to)
		}
	}

	result.Text = strings.TrimSpace(result.Text) + "\n\n---\n\n**" + Disclaimer + "**"
	return result
}
