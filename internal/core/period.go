package core

import (
	"strings"
	"time"
	"unicode"
)

// Period is a named reporting window resolved against a reference time.
type Period struct {
	Name  string // Arabic label used in replies
	Range *DateRange
}

type periodRule struct {
	keywords []string
	resolve  func(now time.Time) Period
}

// monthOrdinals names months by position. Compound ordinals come first so
// "الثاني عشر" is not read as "الثاني".
var monthOrdinals = []struct {
	words []string
	month time.Month
}{
	{[]string{"الحادي عشر"}, time.November},
	{[]string{"الثاني عشر"}, time.December},
	{[]string{"الأول", "الاول"}, time.January},
	{[]string{"الثاني"}, time.February},
	{[]string{"الثالث"}, time.March},
	{[]string{"الرابع"}, time.April},
	{[]string{"الخامس"}, time.May},
	{[]string{"السادس"}, time.June},
	{[]string{"السابع"}, time.July},
	{[]string{"الثامن"}, time.August},
	{[]string{"التاسع"}, time.September},
	{[]string{"العاشر"}, time.October},
}

// Order matters: more specific phrases are checked first.
var periodRules = append(ordinalMonthRules(), []periodRule{
	{
		keywords: []string{"الأسبوعين الماضيين", "الاسبوعين الماضيين", "آخر أسبوعين", "اخر اسبوعين", "last two weeks"},
		resolve: func(now time.Time) Period {
			today := StartOfDay(now)
			return Period{Name: "آخر أسبوعين", Range: &DateRange{From: today.AddDate(0, 0, -13), To: today}}
		},
	},
	{
		keywords: []string{"الشهر الماضي", "الشهر اللي فات", "last month"},
		resolve: func(now time.Time) Period {
			first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			prev := first.AddDate(0, -1, 0)
			return Period{Name: "الشهر الماضي", Range: &DateRange{From: prev, To: first.AddDate(0, 0, -1)}}
		},
	},
	{
		keywords: []string{"الأسبوع الماضي", "الاسبوع الماضي", "last week"},
		resolve: func(now time.Time) Period {
			start := startOfWeek(now).AddDate(0, 0, -7)
			return Period{Name: "الأسبوع الماضي", Range: &DateRange{From: start, To: start.AddDate(0, 0, 6)}}
		},
	},
	{
		keywords: []string{"أمس", "امس", "البارحة", "yesterday"},
		resolve: func(now time.Time) Period {
			d := StartOfDay(now).AddDate(0, 0, -1)
			return Period{Name: "أمس", Range: &DateRange{From: d, To: d}}
		},
	},
	{
		keywords: []string{"اليوم", "today"},
		resolve: func(now time.Time) Period {
			d := StartOfDay(now)
			return Period{Name: "اليوم", Range: &DateRange{From: d, To: d}}
		},
	},
	{
		keywords: []string{"هذا الأسبوع", "هذا الاسبوع", "الأسبوع", "الاسبوع", "this week"},
		resolve: func(now time.Time) Period {
			return Period{Name: "هذا الأسبوع", Range: &DateRange{From: startOfWeek(now), To: StartOfDay(now)}}
		},
	},
	{
		keywords: []string{"هذا الشهر", "هالشهر", "الشهر", "this month"},
		resolve: func(now time.Time) Period {
			first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			return Period{Name: "هذا الشهر", Range: &DateRange{From: first, To: first.AddDate(0, 1, -1)}}
		},
	},
	{
		keywords: []string{"هذه السنة", "هذا العام", "هالسنة", "السنة", "this year"},
		resolve: func(now time.Time) Period {
			first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
			return Period{Name: "هذه السنة", Range: &DateRange{From: first, To: first.AddDate(1, 0, -1)}}
		},
	},
}...)

// ordinalMonthRules resolves "الشهر الخامس" and the like to the most recent
// such month that has started.
func ordinalMonthRules() []periodRule {
	rules := make([]periodRule, 0, len(monthOrdinals))
	for _, o := range monthOrdinals {
		keywords := make([]string, 0, len(o.words))
		for _, w := range o.words {
			keywords = append(keywords, "الشهر "+w)
		}
		month := o.month
		name := "الشهر " + o.words[0]
		rules = append(rules, periodRule{
			keywords: keywords,
			resolve: func(now time.Time) Period {
				year := now.Year()
				if month > now.Month() {
					year--
				}
				first := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
				return Period{Name: name, Range: &DateRange{From: first, To: first.AddDate(0, 1, -1)}}
			},
		})
	}
	return rules
}

// PeriodFor detects the reporting window a question refers to. Questions that
// name no window cover the whole ledger.
//
// Keywords match whole words only, so "امس" does not match inside "الخامس".
func PeriodFor(text string, now time.Time) Period {
	tokens := words(text)
	for _, rule := range periodRules {
		for _, kw := range rule.keywords {
			if containsPhrase(tokens, words(kw)) {
				return rule.resolve(now)
			}
		}
	}
	return Period{Name: "كل الفترات"}
}

// words lowercases text, drops Arabic diacritics and tatweel, and splits on
// anything that is not a letter or digit, which drops punctuation such as
// "؟" and "،".
func words(text string) []string {
	clean := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) || r == '\u0640' {
			return -1
		}
		return r
	}, strings.ToLower(text))
	return strings.FieldsFunc(clean, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsPhrase reports whether phrase occurs as consecutive tokens. The
// first word may carry the conjunction "و", as in "واليوم".
func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		if tokens[i] != phrase[0] && tokens[i] != "و"+phrase[0] {
			continue
		}
		match := true
		for j := 1; j < len(phrase); j++ {
			if tokens[i+j] != phrase[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// startOfWeek returns the most recent Saturday, the first day of the week in
// the Gulf calendar.
func startOfWeek(now time.Time) time.Time {
	d := StartOfDay(now)
	offset := (int(d.Weekday()) - int(time.Saturday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}
