package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// NeedsClarification is the category placeholder returned when an item is
// too ambiguous to categorize. It is never a valid ledger category.
const NeedsClarification = "NeedsClarification"

// MaxItemLength caps item labels, in characters.
const MaxItemLength = 200

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

type (
	Kind string

	Transaction struct {
		ID       string
		Item     string
		Amount   decimal.Decimal
		Currency string
		Category string
		Kind     Kind
		RawText  string
		// Date is assigned by the ledger store on write.
		Date time.Time
	}

	// DateRange is an inclusive calendar-date interval. A zero bound is open.
	DateRange struct {
		From time.Time
		To   time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrEmptyItem       = errors.New("empty item")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnresolved      = errors.New("category needs clarification")
	ErrUnknownCategory = errors.New("category not in taxonomy")
	ErrItemTooLong     = errors.New("item too long")
)

// ParseKind maps loose spellings ("Expense", "دخل", ...) onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "expenses", "مصروف", "مصروفات":
		return Expense, nil
	case "income", "دخل":
		return Income, nil
	}
	return "", ErrInvalidKind
}

func (k Kind) IsValid() bool {
	return k == Expense || k == Income
}

func (k Kind) String() string {
	return string(k)
}

// Signed returns the amount with the sign it contributes to the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Validate checks the fields every persisted transaction must satisfy.
func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Item)) == 0 {
		return ErrEmptyItem
	}
	if utf8.RuneCountInString(t.Item) > MaxItemLength {
		return ErrItemTooLong
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Category == NeedsClarification {
		return ErrUnresolved
	}
	return nil
}

// Contains reports whether d falls inside the range. Each value is reduced to
// its calendar date in its own location, so the upper bound is inclusive
// through the end of that day.
func (r DateRange) Contains(d time.Time) bool {
	day := civilDay(d)
	if !r.From.IsZero() && day < civilDay(r.From) {
		return false
	}
	if !r.To.IsZero() && day > civilDay(r.To) {
		return false
	}
	return true
}

func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
