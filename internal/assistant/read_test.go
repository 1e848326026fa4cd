package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daftar/internal/core"
	"daftar/internal/llm"
)

func seed(t *testing.T, h *harness, day time.Time, kind core.Kind, item, category string, amount int64) {
	t.Helper()
	_, err := h.ledger.Store.Append(context.Background(), core.Transaction{
		Item: item, Amount: decimal.NewFromInt(amount), Currency: "SAR",
		Category: category, Kind: kind, Date: day,
	})
	require.NoError(t, err)
}

func TestReadFiltersByCurrentMonth(t *testing.T) {
	h := newHarness(t, nil)
	question := "كم صرفت هذا الشهر؟"
	h.lu.intents[question] = llm.IntentRead

	seed(t, h, time.Date(2025, 2, 28, 23, 0, 0, 0, riyadh), core.Expense, "عشاء", "المطاعم والكافيهات", 500)
	seed(t, h, time.Date(2025, 3, 1, 9, 0, 0, 0, riyadh), core.Expense, "قهوة", "المطاعم والكافيهات", 15)
	seed(t, h, time.Date(2025, 3, 2, 9, 0, 0, 0, riyadh), core.Income, "راتب", "الراتب", 8000)
	seed(t, h, time.Date(2025, 3, 15, 8, 0, 0, 0, riyadh), core.Expense, "خضار", "البقالة", 25)

	out, err := h.send(t, "c1", question)
	require.NoError(t, err)

	assert.Contains(t, h.lu.facts, "period: هذا الشهر (1/3/2025 - 31/3/2025)")
	assert.Contains(t, h.lu.facts, "transactions: 3")
	assert.Contains(t, h.lu.facts, "total_expense: 40 SAR")
	assert.Contains(t, h.lu.facts, "total_income: 8000 SAR")
	assert.Contains(t, h.lu.facts, "balance: 7960 SAR")
	assert.Contains(t, h.lu.facts, "- البقالة: 25 SAR (62.5%, 1)")
	assert.Contains(t, out.Text, "40 SAR")
	assert.Zero(t, h.ledger.appendCount())
}

func TestReadWithNoRecords(t *testing.T) {
	h := newHarness(t, nil)
	h.lu.intents["كم متوسط صرفي اليومي؟"] = llm.IntentRead

	out, err := h.send(t, "c1", "كم متوسط صرفي اليومي؟")
	require.NoError(t, err)
	assert.Equal(t, msgNoHistory, out.Text)
	assert.Empty(t, h.lu.facts, "nothing to summarize")
}

func TestReadWithEmptyPeriod(t *testing.T) {
	h := newHarness(t, nil)
	h.lu.intents["كم صرفت اليوم؟"] = llm.IntentRead
	seed(t, h, time.Date(2025, 1, 10, 9, 0, 0, 0, riyadh), core.Expense, "قهوة", "المطاعم والكافيهات", 15)

	out, err := h.send(t, "c1", "كم صرفت اليوم؟")
	require.NoError(t, err)
	assert.Contains(t, out.Text, "اليوم")
	assert.Contains(t, out.Text, "لا توجد عمليات")
}

func TestReadQueryFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.lu.intents["رصيدي؟"] = llm.IntentRead
	h.ledger.queryErr = errors.New("timeout")

	out, err := h.send(t, "c1", "رصيدي؟")
	require.ErrorIs(t, err, ErrQuery)
	assert.Equal(t, msgQueryFailed, out.Text)
	assert.Empty(t, h.lu.facts)
}

func TestReadFallsBackToPlainReport(t *testing.T) {
	h := newHarness(t, nil)
	h.lu.intents["ملخص"] = llm.IntentRead
	h.lu.summarizeErr = errors.New("model down")
	seed(t, h, time.Date(2025, 3, 1, 9, 0, 0, 0, riyadh), core.Expense, "قهوة", "المطاعم والكافيهات", 15)
	seed(t, h, time.Date(2025, 3, 2, 9, 0, 0, 0, riyadh), core.Income, "راتب", "الراتب", 100)

	out, err := h.send(t, "c1", "ملخص")
	require.NoError(t, err)
	assert.Contains(t, out.Text, "كل الفترات")
	assert.Contains(t, out.Text, "الرصيد: 85 SAR")
	assert.Contains(t, out.Text, "أعلى تصنيف: المطاعم والكافيهات")
}

func TestFactsWithIncomeOnly(t *testing.T) {
	records := []core.Transaction{{
		Item: "راتب", Amount: decimal.NewFromInt(100), Category: "الراتب", Kind: core.Income,
		Date: time.Date(2025, 3, 2, 9, 0, 0, 0, riyadh),
	}}
	facts := Facts(core.Period{Name: "كل الفترات"}, core.Aggregate(records, nil), "SAR")

	assert.Contains(t, facts, "average_daily_expense: 0 SAR")
	assert.NotContains(t, facts, "expense_by_category")
}
