package assistant

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"daftar/internal/core"
	"daftar/internal/llm"
)

// Extracter is the extraction half of the language-understanding port.
type Extracter interface {
	Extract(ctx context.Context, text string) (llm.Extraction, error)
}

// ExtractionResult is a complete transaction, or one that still needs a
// category when NeedsCategory is set.
type ExtractionResult struct {
	Transaction   core.Transaction
	NeedsCategory bool
}

// Extractor turns free text into a transaction and resolves its category
// against the taxonomy.
type Extractor struct {
	lu       Extracter
	taxonomy core.Taxonomy
	currency string
	policy   *bluemonday.Policy
}

func NewExtractor(lu Extracter, taxonomy core.Taxonomy, defaultCurrency string) *Extractor {
	return &Extractor{
		lu:       lu,
		taxonomy: taxonomy,
		currency: strings.ToUpper(defaultCurrency),
		policy:   bluemonday.StrictPolicy(),
	}
}

// Extract never guesses a category: the NeedsClarification sentinel yields a
// result with NeedsCategory set, and a category outside the taxonomy for the
// extracted kind is an ErrExtraction.
func (x *Extractor) Extract(ctx context.Context, text string) (ExtractionResult, error) {
	e, err := x.lu.Extract(ctx, text)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if e.Amount.IsNegative() {
		return ExtractionResult{}, fmt.Errorf("%w: %w", ErrExtraction, core.ErrInvalidAmount)
	}

	item := x.sanitize(e.Item)
	if item == "" {
		return ExtractionResult{}, fmt.Errorf("%w: %w", ErrExtraction, core.ErrEmptyItem)
	}
	currency := strings.ToUpper(strings.TrimSpace(e.Currency))
	if currency == "" {
		currency = x.currency
	}

	tx := core.Transaction{
		ID:       uuid.NewString(),
		Item:     item,
		Amount:   e.Amount,
		Currency: currency,
		Category: e.Category,
		Kind:     e.Kind,
		RawText:  text,
	}

	if e.Category == core.NeedsClarification {
		return ExtractionResult{Transaction: tx, NeedsCategory: true}, nil
	}
	if !x.taxonomy.Contains(e.Kind, e.Category) {
		return ExtractionResult{}, fmt.Errorf("%w: %w: %q for %s", ErrExtraction, core.ErrUnknownCategory, e.Category, e.Kind)
	}
	if err := tx.Validate(); err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return ExtractionResult{Transaction: tx}, nil
}

// sanitize strips markup and control characters, collapses whitespace and
// caps the label length.
func (x *Extractor) sanitize(s string) string {
	s = html.UnescapeString(x.policy.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > core.MaxItemLength {
		s = strings.TrimSpace(string([]rune(s)[:core.MaxItemLength]))
	}
	return s
}
