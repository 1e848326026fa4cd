package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"daftar/internal/core"
)

// DecodeError reports a model response that does not match the expected
// schema. Raw holds the response for logging.
type DecodeError struct {
	Reason string
	Raw    string
}

func (e *DecodeError) Error() string {
	return "decode model response: " + e.Reason
}

func decodeErr(raw, format string, args ...any) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf(format, args...), Raw: raw}
}

// IsDecodeError reports whether err wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// stripFences removes a surrounding Markdown code fence (```json ... ```),
// which models add even when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string, e.g. "json".
		if !strings.ContainsAny(s[:nl], "{[\"") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeIntent accepts a bare label ("write"), a quoted label or
// {"intent":"write"}. Anything outside the three labels is an error.
func decodeIntent(raw string) (Intent, error) {
	body := stripFences(raw)
	if strings.HasPrefix(body, "{") {
		var v struct {
			Intent string `json:"intent"`
		}
		if err := strictUnmarshal(body, &v); err != nil {
			return "", decodeErr(raw, "intent object: %v", err)
		}
		body = v.Intent
	}
	label := Intent(strings.ToLower(strings.Trim(strings.TrimSpace(body), "\"'`.!")))
	switch label {
	case IntentWrite, IntentRead, IntentChat:
		return label, nil
	}
	return "", decodeErr(raw, "unknown intent %q", label)
}

type extractionDTO struct {
	Item     *string         `json:"item"`
	Amount   json.RawMessage `json:"amount"`
	Category *string         `json:"category"`
	Kind     *string         `json:"kind"`
	Currency *string         `json:"currency"`
}

// decodeExtraction parses the extraction object. Every field except currency
// is required, unknown fields are rejected and the amount must be a
// non-negative number or numeric string.
func decodeExtraction(raw string) (Extraction, error) {
	body := stripFences(raw)
	var dto extractionDTO
	if err := strictUnmarshal(body, &dto); err != nil {
		return Extraction{}, decodeErr(raw, "%v", err)
	}

	switch {
	case dto.Item == nil || strings.TrimSpace(*dto.Item) == "":
		return Extraction{}, decodeErr(raw, "missing item")
	case len(dto.Amount) == 0 || string(dto.Amount) == "null":
		return Extraction{}, decodeErr(raw, "missing amount")
	case dto.Category == nil || strings.TrimSpace(*dto.Category) == "":
		return Extraction{}, decodeErr(raw, "missing category")
	case dto.Kind == nil:
		return Extraction{}, decodeErr(raw, "missing kind")
	}

	amount, err := decodeAmount(dto.Amount)
	if err != nil {
		return Extraction{}, decodeErr(raw, "amount %s: %v", dto.Amount, err)
	}
	kind, err := core.ParseKind(*dto.Kind)
	if err != nil {
		return Extraction{}, decodeErr(raw, "kind %q: %v", *dto.Kind, err)
	}

	e := Extraction{
		Item:     strings.TrimSpace(*dto.Item),
		Amount:   amount,
		Category: strings.TrimSpace(*dto.Category),
		Kind:     kind,
	}
	if dto.Currency != nil {
		e.Currency = strings.ToUpper(strings.TrimSpace(*dto.Currency))
	}
	return e, nil
}

func decodeAmount(b json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return decimal.Zero, err
		}
	}
	return core.ParseAmount(s)
}

func strictUnmarshal(body string, v any) error {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// compact collapses whitespace in raw model output for log lines.
func compact(s string) string {
	var b bytes.Buffer
	for i, f := range strings.Fields(s) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f)
	}
	return b.String()
}
