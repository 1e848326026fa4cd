package core

import "testing"

func TestNewTaxonomyRejectsOverlapAndSentinel(t *testing.T) {
	if _, err := NewTaxonomy([]string{"A", "B"}, []string{"B"}); err == nil {
		t.Fatalf("expected overlap error")
	}
	if _, err := NewTaxonomy([]string{"A", NeedsClarification}, []string{"C"}); err == nil {
		t.Fatalf("expected reserved label error")
	}
	if _, err := NewTaxonomy(nil, []string{"C"}); err == nil {
		t.Fatalf("expected empty expense error")
	}
	if _, err := NewTaxonomy([]string{"A"}, []string{" "}); err == nil {
		t.Fatalf("expected empty income error")
	}
}

func TestTaxonomyMembership(t *testing.T) {
	tx := DefaultTaxonomy()
	if !tx.Contains(Expense, "التسوق") {
		t.Fatalf("expected التسوق in expense set")
	}
	if tx.Contains(Income, "التسوق") {
		t.Fatalf("expense label must not match income")
	}
	if k, ok := tx.KindOf("الراتب"); !ok || k != Income {
		t.Fatalf("KindOf(الراتب)=%v,%v", k, ok)
	}
	if tx.Contains(Expense, NeedsClarification) {
		t.Fatalf("sentinel must never be a member")
	}
}

func TestTaxonomyLabelsAndRows(t *testing.T) {
	tx, err := NewTaxonomy([]string{" a ", "b", "a", "c"}, []string{"x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels := tx.Labels(Expense)
	if len(labels) != 3 || labels[0] != "a" || labels[2] != "c" {
		t.Fatalf("labels=%v", labels)
	}
	labels[0] = "mutated"
	if tx.Labels(Expense)[0] != "a" {
		t.Fatalf("Labels must return a copy")
	}

	rows := tx.Rows(Expense, 2)
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 || rows[1][0] != "c" {
		t.Fatalf("rows=%v", rows)
	}
}
