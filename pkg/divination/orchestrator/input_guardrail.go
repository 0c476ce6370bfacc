package orchestrator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Utterance screening applied before any extraction work. Mirrors the
// output guardrail in spirit: cheap checks first, user-facing messages.

const maxUtteranceLength = 1000

var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>`),
	regexp.MustCompile(`(?i)DROP\s+TABLE`),
	regexp.MustCompile(`(?i)DELETE\s+FROM`),
	regexp.MustCompile(`(?i)INSERT\s+INTO`),
	regexp.MustCompile(`(?i)UPDATE\s+.*\s+SET`),
}

var forbiddenTopics = []string{
	"政治", "暴力", "色情", "赌博", "毒品", "自杀", "犯罪",
	"生死", "疾病", "医疗", "股票", "彩票",
}

var digitsPattern = regexp.MustCompile(`\d+`)

// ScreenUtterance validates raw user input. A non-nil error is an
// *InputRejectedError with a user-facing reason.
func ScreenUtterance(utterance string) error {
	if strings.TrimSpace(utterance) == "" {
		return &InputRejectedError{Reason: "请输入您的问题"}
	}

	if len([]rune(utterance)) > maxUtteranceLength {
		return &InputRejectedError{Reason: fmt.Sprintf("问题过长，请精简到 %d 字以内", maxUtteranceLength)}
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(utterance) {
			return &InputRejectedError{Reason: "输入包含非法字符，请使用自然语言提问"}
		}
	}

	for _, topic := range forbiddenTopics {
		if strings.Contains(utterance, topic) {
			return &InputRejectedError{
				Reason: fmt.Sprintf("抱歉，本系统不支持关于「%s」的问题。占卜仅供娱乐参考，请勿用于重大决策。", topic),
			}
		}
	}

	for _, numStr := range digitsPattern.FindAllString(utterance, -1) {
		if num, err := strconv.Atoi(numStr); err == nil && num > 1000000 {
			return &InputRejectedError{Reason: "输入包含异常数字，请检查后重试"}
		}
	}

	return nil
}
