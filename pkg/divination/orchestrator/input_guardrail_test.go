package orchestrator

import (
	"errors"
	"strings"
	"testing"
)

func TestScreenUtterance(t *testing.T) {
	tests := []struct {
		name       string
		utterance  string
		wantReject bool
	}{
		{"normal question", "我想问事业，数字3和5", false},
		{"empty", "", true},
		{"whitespace only", "   \n\t ", true},
		{"over length", strings.Repeat("问", 1001), true},
		{"exactly at length", strings.Repeat("问", 1000), false},
		{"script tag", "帮我算 <script>alert(1)</script>", true},
		{"sql drop", "drop table users", true},
		{"sql insert", "INSERT INTO readings VALUES (1)", true},
		{"forbidden topic stock", "股票明天会涨吗", true},
		{"forbidden topic gamble", "赌博能赢钱吗", true},
		{"forbidden topic medical", "这个疾病能治好吗", true},
		{"absurd number", "数字100000000和5", true},
		{"large but sane number", "数字999和5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ScreenUtterance(tt.utterance)
			if tt.wantReject && err == nil {
				t.Error("expected rejection, got nil")
			}
			if !tt.wantReject && err != nil {
				t.Errorf("unexpected rejection: %v", err)
			}
			if err != nil {
				var rejected *InputRejectedError
				if !errors.As(err, &rejected) {
					t.Fatalf("err type = %T, want *InputRejectedError", err)
				}
				if rejected.Reason == "" {
					t.Error("rejection carries no user-facing reason")
				}
			}
		})
	}
}
