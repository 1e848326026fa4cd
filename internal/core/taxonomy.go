package core

import (
	"fmt"
	"strings"
)

// Default category labels used when no taxonomy is configured.
var (
	DefaultExpenseCategories = []string{
		"المطاعم والكافيهات",
		"البقالة",
		"المواصلات",
		"الفواتير",
		"التسوق",
		"الصحة",
		"الترفيه",
		"السكن",
		"التعليم",
		"مصروفات أخرى",
	}
	DefaultIncomeCategories = []string{
		"الراتب",
		"عمل حر",
		"استثمار",
		"هدية",
		"دخل آخر",
	}
)

// Taxonomy holds the closed category sets for each kind. The two sets are
// disjoint so a label alone identifies its kind.
type Taxonomy struct {
	expense []string
	income  []string
	kindOf  map[string]Kind
}

// NewTaxonomy validates and builds a taxonomy. Labels are trimmed and
// deduplicated preserving first-seen order.
func NewTaxonomy(expense, income []string) (Taxonomy, error) {
	t := Taxonomy{
		expense: dedupe(expense),
		income:  dedupe(income),
		kindOf:  make(map[string]Kind),
	}
	if len(t.expense) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy: no expense categories")
	}
	if len(t.income) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy: no income categories")
	}
	for _, c := range t.expense {
		if c == NeedsClarification {
			return Taxonomy{}, fmt.Errorf("taxonomy: %q is reserved", c)
		}
		t.kindOf[c] = Expense
	}
	for _, c := range t.income {
		if c == NeedsClarification {
			return Taxonomy{}, fmt.Errorf("taxonomy: %q is reserved", c)
		}
		if _, dup := t.kindOf[c]; dup {
			return Taxonomy{}, fmt.Errorf("taxonomy: %q is both an expense and an income category", c)
		}
		t.kindOf[c] = Income
	}
	return t, nil
}

// DefaultTaxonomy returns the built-in taxonomy.
func DefaultTaxonomy() Taxonomy {
	t, err := NewTaxonomy(DefaultExpenseCategories, DefaultIncomeCategories)
	if err != nil {
		panic(err)
	}
	return t
}

// Labels returns a copy of the categories for kind.
func (t Taxonomy) Labels(kind Kind) []string {
	switch kind {
	case Expense:
		return append([]string(nil), t.expense...)
	case Income:
		return append([]string(nil), t.income...)
	}
	return nil
}

// Contains reports whether category belongs to the set for kind.
func (t Taxonomy) Contains(kind Kind, category string) bool {
	k, ok := t.kindOf[strings.TrimSpace(category)]
	return ok && k == kind
}

// KindOf returns the kind a label belongs to.
func (t Taxonomy) KindOf(category string) (Kind, bool) {
	k, ok := t.kindOf[strings.TrimSpace(category)]
	return k, ok
}

// Rows lays out the labels for kind as quick-reply rows of at most perRow.
func (t Taxonomy) Rows(kind Kind, perRow int) [][]string {
	if perRow < 1 {
		perRow = 1
	}
	labels := t.Labels(kind)
	rows := make([][]string, 0, (len(labels)+perRow-1)/perRow)
	for len(labels) > 0 {
		n := min(perRow, len(labels))
		rows = append(rows, labels[:n])
		labels = labels[n:]
	}
	return rows
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
