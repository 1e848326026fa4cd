package sheets

import (
	"fmt"
	"strings"
	"time"

	"daftar/internal/core"
)

// parseRows converts a values matrix (as returned by the Sheets API) into
// transactions. The header row and rows that fail to parse are skipped; the
// second return value counts the latter.
func parseRows(values [][]any, loc *time.Location) ([]core.Transaction, int) {
	out := make([]core.Transaction, 0, len(values))
	skipped := 0
	for i, raw := range values {
		row := toStrings(raw)
		if i == 0 && isHeader(row) {
			continue
		}
		if isBlank(row) {
			continue
		}
		t, err := parseRow(row, loc)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, t)
	}
	return out, skipped
}

func parseRow(row []string, loc *time.Location) (core.Transaction, error) {
	date, err := core.ParseDate(safeGet(row, 0), loc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date: %w", err)
	}
	kind, err := core.ParseKind(safeGet(row, 1))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(safeGet(row, 3))
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Date:     date,
		Kind:     kind,
		Item:     safeGet(row, 2),
		Amount:   amount,
		Currency: safeGet(row, 4),
		Category: safeGet(row, 5),
		RawText:  safeGet(row, 6),
		ID:       safeGet(row, 7),
	}, nil
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(row[0], fmt.Sprint(Header[0]))
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
