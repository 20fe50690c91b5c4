package slot

import (
	"context"
	"reflect"
	"testing"

	"github.com/tbxark/travelpilot/types"
)

func mustExtractor(t *testing.T, locale string) *RuleExtractor {
	t.Helper()
	e, err := NewRuleExtractor(locale)
	if err != nil {
		t.Fatalf("NewRuleExtractor(%q): %v", locale, err)
	}
	return e
}

func extract(t *testing.T, e Extractor, text string, existing types.TravelSlots) types.TravelSlots {
	t.Helper()
	out, err := e.Extract(context.Background(), text, existing)
	if err != nil {
		t.Fatalf("Extract(%q): %v", text, err)
	}
	return out
}

func strVal(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestRuleExtractor_OneShotEnglish(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "en")
	got := extract(t, e, "I want to go from Hong Kong to Osaka for 5 days, 2 people, budget 8000 CNY", types.NewTravelSlots())

	if strVal(got.Departure) != "Hong Kong" {
		t.Errorf("departure = %q, want Hong Kong", strVal(got.Departure))
	}
	if strVal(got.Destination) != "Osaka" {
		t.Errorf("destination = %q, want Osaka", strVal(got.Destination))
	}
	if got.NumDays == nil || *got.NumDays != 5 {
		t.Errorf("num_days = %v, want 5", got.NumDays)
	}
	if got.NumPeople == nil || *got.NumPeople != 2 {
		t.Errorf("num_people = %v, want 2", got.NumPeople)
	}
	if got.Budget == nil || *got.Budget != 8000 {
		t.Errorf("budget = %v, want 8000", got.Budget)
	}
	if got.Currency != "CNY" {
		t.Errorf("currency = %q, want CNY", got.Currency)
	}
}

func TestRuleExtractor_English(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "en")
	tests := []struct {
		name     string
		text     string
		check    func(types.TravelSlots) bool
		describe string
	}{
		{"destination keyword", "destination: Seoul", func(s types.TravelSlots) bool { return strVal(s.Destination) == "Seoul" }, "destination Seoul"},
		{"visiting", "we are visiting Kyoto next spring", func(s types.TravelSlots) bool { return strVal(s.Destination) == "Kyoto" }, "destination Kyoto"},
		{"skip verb after to", "I'd love to travel to Tokyo", func(s types.TravelSlots) bool { return strVal(s.Destination) == "Tokyo" }, "destination Tokyo"},
		{"dashed days", "a 7-day trip please", func(s types.TravelSlots) bool { return s.NumDays != nil && *s.NumDays == 7 }, "7 days"},
		{"group of", "a group of 4", func(s types.TravelSlots) bool { return s.NumPeople != nil && *s.NumPeople == 4 }, "4 people"},
		{"dollar sign", "around $1,500 total", func(s types.TravelSlots) bool {
			return s.Budget != nil && *s.Budget == 1500 && s.Currency == "USD"
		}, "1500 USD"},
		{"k modifier", "budget 10k HKD", func(s types.TravelSlots) bool {
			return s.Budget != nil && *s.Budget == 10000 && s.Currency == "HKD"
		}, "10000 HKD"},
		{"thousand modifier", "we can spend 8 thousand", func(s types.TravelSlots) bool {
			return s.Budget != nil && *s.Budget == 8000 && s.Currency == "CNY"
		}, "8000 CNY"},
		{"decimal floors", "budget: 999.9", func(s types.TravelSlots) bool { return s.Budget != nil && *s.Budget == 999 }, "999"},
		{"people out of range", "30 people", func(s types.TravelSlots) bool { return s.NumPeople == nil }, "no people"},
		{"budget cap", "budget 20000000", func(s types.TravelSlots) bool { return s.Budget == nil }, "no budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := extract(t, e, tt.text, types.NewTravelSlots())
			if !tt.check(got) {
				t.Errorf("Extract(%q) = %+v, want %s", tt.text, types.SlotRows(got), tt.describe)
			}
		})
	}
}

func TestRuleExtractor_RangeRejection(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "en")
	got := extract(t, e, "I want a 45 day trip", types.TravelSlots{})
	if got.NumDays != nil {
		t.Fatalf("num_days = %d, want unset", *got.NumDays)
	}
}

func TestRuleExtractor_RejectedRangeFallsThrough(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "en")
	got := extract(t, e, "not 45 days, make it 6 days", types.TravelSlots{})
	if got.NumDays == nil || *got.NumDays != 6 {
		t.Fatalf("num_days = %v, want 6", got.NumDays)
	}
}

func TestRuleExtractor_NoOverwrite(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "en")
	existing := types.NewTravelSlots()
	existing.Departure = types.Ptr("Beijing")
	existing.Destination = types.Ptr("Tokyo")
	existing.NumDays = types.Ptr(3)
	existing.NumPeople = types.Ptr(1)
	existing.Budget = types.Ptr(5000.0)

	texts := []string{
		"from Hong Kong to Osaka for 5 days, 2 people, budget 8000 USD",
		"destination: Seoul, 10 days, group of 6, $900",
	}
	for _, text := range texts {
		got := extract(t, e, text, existing)
		if !got.IsEmpty() || got.Currency != "" {
			t.Errorf("Extract(%q) changed set slots: %+v", text, types.SlotRows(got))
		}
		merged := existing.Fill(got)
		if !reflect.DeepEqual(merged, existing.Fill(types.TravelSlots{})) {
			t.Errorf("merge changed existing slots for %q", text)
		}
	}
}

func TestRuleExtractor_Idempotent(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "en")
	texts := []string{
		"I want to go from Hong Kong to Osaka for 5 days, 2 people, budget 8000 CNY",
		"to Tokyo",
		"3 people and $2000",
		"",
	}
	for _, text := range texts {
		once := types.NewTravelSlots().Fill(extract(t, e, text, types.NewTravelSlots()))
		twice := once.Fill(extract(t, e, text, once))
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("second extraction of %q changed slots: %+v -> %+v", text, types.SlotRows(once), types.SlotRows(twice))
		}
	}
}

func TestRuleExtractor_ShortInput(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "en")
	for _, text := range []string{"", " ", "5"} {
		if got := extract(t, e, text, types.TravelSlots{}); !got.IsEmpty() {
			t.Errorf("Extract(%q) = %+v, want nothing", text, types.SlotRows(got))
		}
	}
}

// 测试中文规则表
func TestRuleExtractor_Chinese(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "zh")
	got := extract(t, e, "我想从香港去大阪玩5天，2个人，预算1.5万港币", types.NewTravelSlots())

	if strVal(got.Departure) != "香港" {
		t.Errorf("期望出发地为 香港，实际为 %q", strVal(got.Departure))
	}
	if strVal(got.Destination) != "大阪" {
		t.Errorf("期望目的地为 大阪，实际为 %q", strVal(got.Destination))
	}
	if got.NumDays == nil || *got.NumDays != 5 {
		t.Errorf("期望天数为 5，实际为 %v", got.NumDays)
	}
	if got.NumPeople == nil || *got.NumPeople != 2 {
		t.Errorf("期望人数为 2，实际为 %v", got.NumPeople)
	}
	if got.Budget == nil || *got.Budget != 15000 || got.Currency != "HKD" {
		t.Errorf("期望预算为 15000 HKD，实际为 %v %s", got.Budget, got.Currency)
	}
}

func TestRuleExtractor_ChineseYenIsNotDays(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "zh")
	got := extract(t, e, "预算8000日元", types.TravelSlots{})
	if got.NumDays != nil {
		t.Errorf("期望天数为空，实际为 %d", *got.NumDays)
	}
	if got.Budget == nil || *got.Budget != 8000 || got.Currency != "JPY" {
		t.Errorf("期望预算为 8000 JPY，实际为 %v %s", got.Budget, got.Currency)
	}
}

func TestRuleExtractor_ChineseRenminbiIsNotPeople(t *testing.T) {
	t.Parallel()
	e := mustExtractor(t, "zh")
	got := extract(t, e, "预算15人民币", types.TravelSlots{})
	if got.NumPeople != nil {
		t.Errorf("期望人数为空，实际为 %d", *got.NumPeople)
	}
	if got.Budget == nil || *got.Budget != 15 || got.Currency != "CNY" {
		t.Errorf("期望预算为 15 CNY，实际为 %v %s", got.Budget, got.Currency)
	}

	// 人数写在句末时仍然可以识别
	got = extract(t, e, "预算3000人民币，一共4人", types.TravelSlots{})
	if got.NumPeople == nil || *got.NumPeople != 4 {
		t.Errorf("期望人数为 4，实际为 %v", got.NumPeople)
	}
}

func TestRuleSets_AreDisjoint(t *testing.T) {
	t.Parallel()
	en := mustExtractor(t, "en")
	zh := mustExtractor(t, "zh")
	if got := extract(t, en, "从香港去大阪玩5天", types.TravelSlots{}); got.Departure != nil || got.Destination != nil {
		t.Errorf("english table matched chinese places: %+v", types.SlotRows(got))
	}
	if got := extract(t, zh, "from Hong Kong to Osaka", types.TravelSlots{}); got.Departure != nil || got.Destination != nil {
		t.Errorf("chinese table matched english places: %+v", types.SlotRows(got))
	}
	if _, err := NewRuleExtractor("fr"); err == nil {
		t.Error("expected error for unknown locale")
	}
}
