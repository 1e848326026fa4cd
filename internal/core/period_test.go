package core

import (
	"testing"
	"time"
)

func TestPeriodFor(t *testing.T) {
	// Wednesday 2025-03-19
	now := time.Date(2025, 3, 19, 10, 0, 0, 0, riyadh)
	cases := []struct {
		text     string
		name     string
		from, to string
	}{
		{"كم صرفت هذا الشهر؟", "هذا الشهر", "1/3/2025", "31/3/2025"},
		{"مصاريف الشهر الماضي", "الشهر الماضي", "1/2/2025", "28/2/2025"},
		{"وش صرفت اليوم", "اليوم", "19/3/2025", "19/3/2025"},
		{"how much yesterday", "أمس", "18/3/2025", "18/3/2025"},
		{"هذا الأسبوع", "هذا الأسبوع", "15/3/2025", "19/3/2025"},
		{"الأسبوع الماضي", "الأسبوع الماضي", "8/3/2025", "14/3/2025"},
		{"this year", "هذه السنة", "1/1/2025", "31/12/2025"},
		{"كم صرفت أمسِ؟", "أمس", "18/3/2025", "18/3/2025"},
		{"واليوم كم؟", "اليوم", "19/3/2025", "19/3/2025"},
		{"كم صرفت في الشهر الخامس؟", "الشهر الخامس", "1/5/2024", "31/5/2024"},
		{"مصاريف الشهر الثاني", "الشهر الثاني", "1/2/2025", "28/2/2025"},
		{"الشهر الثاني عشر", "الشهر الثاني عشر", "1/12/2024", "31/12/2024"},
		{"كم صرفت خلال الأسبوعين الماضيين", "آخر أسبوعين", "6/3/2025", "19/3/2025"},
	}
	for _, tc := range cases {
		p := PeriodFor(tc.text, now)
		if p.Name != tc.name || p.Range == nil {
			t.Fatalf("%q: got %+v", tc.text, p)
		}
		if FormatDate(p.Range.From) != tc.from || FormatDate(p.Range.To) != tc.to {
			t.Fatalf("%q: range %s-%s want %s-%s", tc.text,
				FormatDate(p.Range.From), FormatDate(p.Range.To), tc.from, tc.to)
		}
	}

	for _, text := range []string{"كم رصيدي؟", "كم صرفت على الخامسة", "الأسبوعين", "todays list"} {
		if p := PeriodFor(text, now); p.Range != nil {
			t.Fatalf("%q: expected whole ledger, got %+v", text, p)
		}
	}
}
