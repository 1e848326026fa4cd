// Package llm adapts a text-completion model into the two capabilities the
// assistant needs: intent classification and transaction extraction. It also
// phrases read-path answers and free chat replies.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"daftar/internal/core"
	"daftar/internal/log"
)

const (
	IntentWrite Intent = "write"
	IntentRead  Intent = "read"
	IntentChat  Intent = "chat"
)

type (
	Intent string

	// Extraction is a decoded extraction result. Category is not yet checked
	// against the taxonomy and may be core.NeedsClarification. Currency is
	// empty when the message named none.
	Extraction struct {
		Item     string
		Amount   decimal.Decimal
		Category string
		Kind     core.Kind
		Currency string
	}

	// Completer is a single-turn text model.
	Completer interface {
		Complete(ctx context.Context, system, user string) (string, error)
	}

	// Transcriber turns a voice clip into text.
	Transcriber interface {
		Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error)
	}
)

var ErrEmptyResponse = errors.New("empty model response")

type Client struct {
	model    Completer
	taxonomy core.Taxonomy
	extract  string
}

func New(model Completer, taxonomy core.Taxonomy) *Client {
	return &Client{
		model:    model,
		taxonomy: taxonomy,
		extract:  extractPrompt(taxonomy),
	}
}

// Classify labels text as write, read or chat. A response outside those
// labels yields a *DecodeError.
func (c *Client) Classify(ctx context.Context, text string) (Intent, error) {
	raw, err := c.complete(ctx, classifyPrompt, text)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	intent, err := decodeIntent(raw)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Unusable classification response",
			"response", compact(raw), log.FieldError, err, log.FieldOperation, log.OpClassify)
		return "", fmt.Errorf("classify: %w", err)
	}
	return intent, nil
}

// Extract asks the model for {item, amount, category, kind, currency} and
// decodes it strictly.
func (c *Client) Extract(ctx context.Context, text string) (Extraction, error) {
	raw, err := c.complete(ctx, c.extract, text)
	if err != nil {
		return Extraction{}, fmt.Errorf("extract: %w", err)
	}
	e, err := decodeExtraction(raw)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Unusable extraction response",
			"response", compact(raw), log.FieldError, err, log.FieldOperation, log.OpExtract)
		return Extraction{}, fmt.Errorf("extract: %w", err)
	}
	return e, nil
}

// Summarize phrases an answer to question from pre-computed facts.
func (c *Client) Summarize(ctx context.Context, question, facts string) (string, error) {
	user := "QUESTION:\n" + question + "\n\nFACTS:\n" + facts
	out, err := c.complete(ctx, summarizePrompt, user)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return out, nil
}

// Chat answers free conversation.
func (c *Client) Chat(ctx context.Context, text string) (string, error) {
	out, err := c.complete(ctx, chatPrompt, text)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return out, nil
}

// Taxonomy returns the taxonomy the extraction prompt was built from.
func (c *Client) Taxonomy() core.Taxonomy {
	return c.taxonomy
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	out, err := c.model.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
