package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"daftar/internal/core"
	"daftar/internal/log"
)

const maxFactCategories = 5

// read answers a question from a fresh ledger snapshot. The model only
// phrases the answer; every number comes from core.Aggregate.
func (e *Engine) read(ctx context.Context, question string) (Reply, error) {
	logger := log.FromContext(ctx)

	snap, err := e.ledger.Query(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Ledger query failed", log.FieldError, err, log.FieldOperation, log.OpQuery)
		return textReply(msgQueryFailed), fmt.Errorf("%w: %w", ErrQuery, err)
	}
	if len(snap.Records) == 0 {
		return textReply(msgNoHistory), nil
	}

	period := core.PeriodFor(question, e.now().In(e.cfg.Location))
	summary := core.Aggregate(snap.Records, period.Range)
	if summary.Count == 0 {
		return noDataInPeriodReply(period.Name), nil
	}

	facts := Facts(period, summary, e.cfg.DefaultCurrency)
	answer, err := e.lu.Summarize(ctx, question, facts)
	if err != nil {
		logger.WarnContext(ctx, "Summary phrasing failed, sending plain report", log.FieldError, err)
		return textReply(Report(period, summary, e.cfg.DefaultCurrency)), nil
	}
	return textReply(answer), nil
}

// Facts renders a summary as the fact sheet given to the model.
func Facts(period core.Period, s core.Summary, currency string) string {
	money := func(d decimal.Decimal) string { return core.FormatAmount(d) + " " + currency }

	var b strings.Builder
	fmt.Fprintf(&b, "period: %s%s\n", period.Name, rangeSuffix(period))
	fmt.Fprintf(&b, "transactions: %d\n", s.Count)
	fmt.Fprintf(&b, "total_income: %s\n", money(s.Totals.Income))
	fmt.Fprintf(&b, "total_expense: %s\n", money(s.Totals.Expense))
	fmt.Fprintf(&b, "balance: %s\n", money(s.Totals.Balance))
	fmt.Fprintf(&b, "average_daily_expense: %s\n", money(s.AverageDailyExpense()))
	if len(s.ByCategory) > 0 {
		b.WriteString("expense_by_category:\n")
		for i, c := range s.ByCategory {
			if i == maxFactCategories {
				break
			}
			fmt.Fprintf(&b, "- %s: %s (%s%%, %d)\n", c.Name, money(c.Amount), c.Percent.String(), c.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Report is the plain Arabic summary used when the model is unavailable.
func Report(period core.Period, s core.Summary, currency string) string {
	money := func(d decimal.Decimal) string { return core.FormatAmount(d) + " " + currency }

	var b strings.Builder
	fmt.Fprintf(&b, "📊 ملخص %s%s\n", period.Name, rangeSuffix(period))
	fmt.Fprintf(&b, "💵 الدخل: %s\n", money(s.Totals.Income))
	fmt.Fprintf(&b, "💸 المصروفات: %s\n", money(s.Totals.Expense))
	fmt.Fprintf(&b, "⚖️ الرصيد: %s", money(s.Totals.Balance))
	if top, ok := s.TopCategory(); ok {
		fmt.Fprintf(&b, "\n🏆 أعلى تصنيف: %s (%s)", top.Name, money(top.Amount))
	}
	return b.String()
}

func rangeSuffix(p core.Period) string {
	if p.Range == nil {
		return ""
	}
	return fmt.Sprintf(" (%s - %s)", core.FormatDate(p.Range.From), core.FormatDate(p.Range.To))
}
