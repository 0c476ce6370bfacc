package liuren

import (
	"testing"
	"time"
)

func TestComputeReadingPalaceMapping(t *testing.T) {
	askTime := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		num1       int
		num2       int
		wantPalace string
		wantIndex  int
	}{
		{"one and two lands on liulian", 1, 2, "留连", 2},
		{"full lap wraps to kongwang", 3, 4, "空亡", 0},
		{"one and six wraps to kongwang", 1, 6, "空亡", 0},
		{"three and five lands on daan", 3, 5, "大安", 1},
		{"six and six lands on xiaoji", 6, 6, "小吉", 5},
		{"large numbers reduce mod six", 66, 66, "小吉", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := ComputeReading(tt.num1, tt.num2, askTime)
			if err != nil {
				t.Fatalf("ComputeReading(%d, %d) error: %v", tt.num1, tt.num2, err)
			}
			if reading.Palace.Name != tt.wantPalace {
				t.Errorf("Palace = %s, want %s", reading.Palace.Name, tt.wantPalace)
			}
			if reading.Palace.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", reading.Palace.Index, tt.wantIndex)
			}
			if reading.Palace.BodyPalace != tt.num1 || reading.Palace.UsePalace != tt.num2 {
				t.Errorf("BodyPalace/UsePalace = %d/%d, want %d/%d",
					reading.Palace.BodyPalace, reading.Palace.UsePalace, tt.num1, tt.num2)
			}
		})
	}
}

func TestComputeReadingRejectsNonPositive(t *testing.T) {
	askTime := time.Now()
	if _, err := ComputeReading(0, 3, askTime); err == nil {
		t.Error("expected error for num1=0")
	}
	if _, err := ComputeReading(3, -1, askTime); err == nil {
		t.Error("expected error for negative num2")
	}
}

func TestComputeReadingDeterministic(t *testing.T) {
	askTime := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)

	first, err := ComputeReading(3, 5, askTime)
	if err != nil {
		t.Fatalf("ComputeReading error: %v", err)
	}
	second, err := ComputeReading(3, 5, askTime)
	if err != nil {
		t.Fatalf("ComputeReading error: %v", err)
	}

	if first.Palace != second.Palace {
		t.Errorf("palace differs across runs: %+v vs %+v", first.Palace, second.Palace)
	}
	if first.Hour != second.Hour {
		t.Errorf("hour sequence differs across runs: %+v vs %+v", first.Hour, second.Hour)
	}
	if first.Beasts != second.Beasts {
		t.Errorf("beasts differ across runs")
	}
	if first.Relatives != second.Relatives {
		t.Errorf("relatives differ across runs")
	}
}

func TestHourSequencePolarity(t *testing.T) {
	// 00:30 is the 子 hour: yang, so the sequence walks forward taking
	// every other branch and stays all-yang.
	yangTime := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)
	reading, err := ComputeReading(1, 2, yangTime)
	if err != nil {
		t.Fatalf("ComputeReading error: %v", err)
	}
	if reading.Hour.Branch != "子" || !reading.Hour.Yang {
		t.Fatalf("Hour = %s yang=%v, want 子 yang=true", reading.Hour.Branch, reading.Hour.Yang)
	}
	wantYang := [6]string{"子", "寅", "辰", "午", "申", "戌"}
	if reading.Hour.Sequence != wantYang {
		t.Errorf("yang sequence = %v, want %v", reading.Hour.Sequence, wantYang)
	}

	// 10:30 is the 巳 hour: yin, so the walk runs backward.
	yinTime := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)
	reading, err = ComputeReading(1, 2, yinTime)
	if err != nil {
		t.Fatalf("ComputeReading error: %v", err)
	}
	if reading.Hour.Branch != "巳" || reading.Hour.Yang {
		t.Fatalf("Hour = %s yang=%v, want 巳 yang=false", reading.Hour.Branch, reading.Hour.Yang)
	}
	wantYin := [6]string{"巳", "卯", "丑", "亥", "酉", "未"}
	if reading.Hour.Sequence != wantYin {
		t.Errorf("yin sequence = %v, want %v", reading.Hour.Sequence, wantYin)
	}
}

func TestBranchForHourBuckets(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{23, "子"},
		{0, "子"},
		{1, "丑"},
		{2, "丑"},
		{3, "寅"},
		{11, "午"},
		{12, "午"},
		{13, "未"},
		{22, "亥"},
	}
	for _, tt := range tests {
		if got := BranchForHour(tt.hour); got.Name != tt.want {
			t.Errorf("BranchForHour(%d) = %s, want %s", tt.hour, got.Name, tt.want)
		}
	}
}

func TestBeastAssignmentAnchoredBySequenceHead(t *testing.T) {
	// 子 hour: the head branch 子 is owned by 玄武, which therefore sits
	// at palace position one; the other beasts follow in fixed order.
	askTime := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)
	reading, err := ComputeReading(1, 2, askTime)
	if err != nil {
		t.Fatalf("ComputeReading error: %v", err)
	}

	wantBeasts := [6]string{"玄武", "青龙", "朱雀", "勾陈", "腾蛇", "白虎"}
	for i, want := range wantBeasts {
		if reading.Beasts[i].Beast != want {
			t.Errorf("Beasts[%d] = %s, want %s", i, reading.Beasts[i].Beast, want)
		}
		if reading.Beasts[i].Position != i+1 {
			t.Errorf("Beasts[%d].Position = %d, want %d", i, reading.Beasts[i].Position, i+1)
		}
	}
}

func TestEveryBranchOwnedByExactlyOneBeast(t *testing.T) {
	for _, branch := range Branches {
		owners := 0
		for _, beast := range Beasts {
			if beast.Anchors[0] == branch.Name || beast.Anchors[1] == branch.Name {
				owners++
			}
		}
		if owners != 1 {
			t.Errorf("branch %s owned by %d beasts, want exactly 1", branch.Name, owners)
		}
	}
}

func TestRelativeAssignmentCoversAllPalaces(t *testing.T) {
	askTime := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	reading, err := ComputeReading(2, 3, askTime)
	if err != nil {
		t.Fatalf("ComputeReading error: %v", err)
	}

	for i, ra := range reading.Relatives {
		if ra.Position != i+1 {
			t.Errorf("Relatives[%d].Position = %d, want %d", i, ra.Position, i+1)
		}
		if RelativeMeanings[ra.Relative] == "" {
			t.Errorf("Relatives[%d] carries unknown relative %q", i, ra.Relative)
		}
		if ra.Relation == "" {
			t.Errorf("Relatives[%d] has empty relation label", i)
		}
	}
}

func TestRelativeForExhaustive(t *testing.T) {
	elements := []Element{Wood, Fire, Earth, Metal, Water}
	for _, base := range elements {
		for _, palace := range elements {
			rel := RelativeFor(base, palace)
			if RelativeMeanings[rel] == "" {
				t.Errorf("RelativeFor(%s, %s) = %q, not a known relative", base, palace, rel)
			}
		}
	}

	// Spot-check the five relations against 木 as base.
	if got := RelativeFor(Wood, Wood); got != RelativeSibling {
		t.Errorf("same element = %s, want 兄弟", got)
	}
	if got := RelativeFor(Wood, Fire); got != RelativeDescendant {
		t.Errorf("base generates = %s, want 子孙", got)
	}
	if got := RelativeFor(Wood, Water); got != RelativeParent {
		t.Errorf("generates base = %s, want 父母", got)
	}
	if got := RelativeFor(Wood, Earth); got != RelativeWealth {
		t.Errorf("base conquers = %s, want 妻财", got)
	}
	if got := RelativeFor(Wood, Metal); got != RelativeOfficial {
		t.Errorf("conquers base = %s, want 官鬼", got)
	}
}

func TestGenerationAndConquestCycles(t *testing.T) {
	elements := []Element{Wood, Fire, Earth, Metal, Water}
	for _, e := range elements {
		generated, conquered := 0, 0
		for _, other := range elements {
			if Generates(e, other) {
				generated++
			}
			if Conquers(e, other) {
				conquered++
			}
		}
		if generated != 1 || conquered != 1 {
			t.Errorf("element %s generates %d and conquers %d, want 1 and 1", e, generated, conquered)
		}
	}
}

func TestPriorRelativesLoveDiffersByGender(t *testing.T) {
	female := PriorRelatives("love", "female")
	male := PriorRelatives("love", "male")

	if len(female) == 0 || female[0] != RelativeOfficial {
		t.Errorf("female love prior = %v, want to lead with 官鬼", female)
	}
	if len(male) == 0 || male[0] != RelativeWealth {
		t.Errorf("male love prior = %v, want to lead with 妻财", male)
	}
	if PriorRelatives("general", "male") != nil {
		t.Error("general question should carry no prior")
	}
}

func TestQuestionTypeTable(t *testing.T) {
	for _, qt := range QuestionTypes() {
		if !IsQuestionType(qt) {
			t.Errorf("QuestionTypes returned %q which IsQuestionType rejects", qt)
		}
	}
	if IsQuestionType("astrology") {
		t.Error("unknown question type accepted")
	}
	if got := QuestionTypeLabel("career"); got != "事业" {
		t.Errorf("QuestionTypeLabel(career) = %s, want 事业", got)
	}
	if got := QuestionTypeLabel("nope"); got != "通用" {
		t.Errorf("unknown label fallback = %s, want 通用", got)
	}
}
