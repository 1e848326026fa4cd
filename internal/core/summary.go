package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is the income/expense/balance triple of a record set.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// Snapshot is a full ledger read: records in insertion order plus the totals
// the store reports for them.
type Snapshot struct {
	Records []Transaction
	Totals  Totals
}

// CategoryAmount represents an expense amount aggregated by category name.
type CategoryAmount struct {
	Name    string
	Amount  decimal.Decimal
	Count   int
	Percent decimal.Decimal // share of total expense, 0-100
}

// DateAmount is the amount moved on one calendar date, across all kinds.
type DateAmount struct {
	Date    time.Time
	Income  decimal.Decimal
	Expense decimal.Decimal
	Amount  decimal.Decimal
}

// Summary is the result of Aggregate.
type Summary struct {
	Range      DateRange
	Count      int
	Totals     Totals
	ByCategory []CategoryAmount
	ByDate     []DateAmount
}

// Equal compares totals by value.
func (t Totals) Equal(o Totals) bool {
	return t.Income.Equal(o.Income) && t.Expense.Equal(o.Expense) && t.Balance.Equal(o.Balance)
}

// TotalsOf sums records by kind.
func TotalsOf(records []Transaction) Totals {
	var t Totals
	for _, r := range records {
		switch r.Kind {
		case Income:
			t.Income = t.Income.Add(r.Amount)
		case Expense:
			t.Expense = t.Expense.Add(r.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// Aggregate computes totals and breakdowns for the records inside rng (all
// records when rng is nil). It does not modify records.
//
// ByCategory covers expenses only and is ordered by amount, largest first.
// ByDate covers every kind and is ordered by calendar date.
func Aggregate(records []Transaction, rng *DateRange) Summary {
	s := Summary{}
	if rng != nil {
		s.Range = *rng
	}

	selected := make([]Transaction, 0, len(records))
	for _, r := range records {
		if rng != nil && !rng.Contains(r.Date) {
			continue
		}
		selected = append(selected, r)
	}
	s.Count = len(selected)
	s.Totals = TotalsOf(selected)

	byCat := map[string]*CategoryAmount{}
	byDay := map[int]*DateAmount{}
	for _, r := range selected {
		if r.Kind == Expense {
			c, ok := byCat[r.Category]
			if !ok {
				c = &CategoryAmount{Name: r.Category}
				byCat[r.Category] = c
			}
			c.Amount = c.Amount.Add(r.Amount)
			c.Count++
		}

		key := civilDay(r.Date)
		d, ok := byDay[key]
		if !ok {
			d = &DateAmount{Date: StartOfDay(r.Date)}
			byDay[key] = d
		}
		d.Amount = d.Amount.Add(r.Amount)
		if r.Kind == Income {
			d.Income = d.Income.Add(r.Amount)
		} else {
			d.Expense = d.Expense.Add(r.Amount)
		}
	}

	s.ByCategory = make([]CategoryAmount, 0, len(byCat))
	for _, c := range byCat {
		if s.Totals.Expense.IsPositive() {
			c.Percent = c.Amount.Mul(hundred).Div(s.Totals.Expense).Round(1)
		}
		s.ByCategory = append(s.ByCategory, *c)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if cmp := a.Amount.Cmp(b.Amount); cmp != 0 {
			return cmp > 0
		}
		return a.Name < b.Name
	})

	keys := make([]int, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	s.ByDate = make([]DateAmount, 0, len(keys))
	for _, k := range keys {
		s.ByDate = append(s.ByDate, *byDay[k])
	}
	return s
}

// AverageDailyExpense divides total expense by the number of distinct dates
// with activity. It is zero when there is no activity.
func (s Summary) AverageDailyExpense() decimal.Decimal {
	if len(s.ByDate) == 0 {
		return decimal.Zero
	}
	return s.Totals.Expense.Div(decimal.NewFromInt(int64(len(s.ByDate)))).Round(2)
}

// TopCategory returns the largest expense category, if any.
func (s Summary) TopCategory() (CategoryAmount, bool) {
	if len(s.ByCategory) == 0 {
		return CategoryAmount{}, false
	}
	return s.ByCategory[0], true
}
