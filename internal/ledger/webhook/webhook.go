// Package webhook talks to a spreadsheet published as a web app (for example a
// Google Apps Script deployment). POST appends one row, GET returns every row
// plus the totals computed by the sheet.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"daftar/internal/core"
	"daftar/internal/ledger"
	"daftar/internal/log"
)

var _ ledger.Store = (*Client)(nil)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

type Client struct {
	url  string
	http *http.Client
	loc  *time.Location
}

type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLocation sets the zone used to interpret dates without an offset.
func WithLocation(loc *time.Location) Option {
	return func(cl *Client) { cl.loc = loc }
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http.Timeout = d }
}

func New(url string, opts ...Option) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("missing webhook url")
	}
	c := &Client{url: url, http: newHTTPClient(), loc: time.UTC}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClient returns a client with connection pooling and bounded timeouts.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

type appendRequest struct {
	ID       string `json:"id"`
	Item     string `json:"item"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Category string `json:"category"`
	Type     string `json:"type"`
	RawText  string `json:"raw_text"`
}

type appendResponse struct {
	Status string `json:"status"`
	Row    int    `json:"row"`
	Error  string `json:"error"`
}

// Append posts the transaction. Web apps that answer with plain text are
// accepted as long as the status code is 2xx.
func (c *Client) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}
	body, err := json.Marshal(appendRequest{
		ID:       id,
		Item:     t.Item,
		Amount:   t.Amount.String(),
		Currency: t.Currency,
		Category: t.Category,
		Type:     t.Kind.String(),
		RawText:  t.RawText,
	})
	if err != nil {
		return "", fmt.Errorf("marshal transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("append: %w", err)
	}

	var resp appendResponse
	if json.Unmarshal(raw, &resp) == nil {
		if strings.EqualFold(resp.Status, "error") {
			return "", fmt.Errorf("append: %w: %s", ledger.ErrStore, resp.Error)
		}
		if resp.Row > 0 {
			return fmt.Sprintf("row:%d", resp.Row), nil
		}
	}
	return "webhook:" + id, nil
}

type queryResponse struct {
	Records []recordDTO `json:"records"`
	Totals  *totalsDTO  `json:"totals"`
	Error   string      `json:"error"`
}

type recordDTO struct {
	ID       string     `json:"id"`
	Date     string     `json:"date"`
	Item     string     `json:"item"`
	Amount   flexAmount `json:"amount"`
	Currency string     `json:"currency"`
	Category string     `json:"category"`
	Type     string     `json:"type"`
	RawText  string     `json:"raw_text"`
}

type totalsDTO struct {
	Income  flexAmount `json:"income"`
	Expense flexAmount `json:"expense"`
	Balance flexAmount `json:"balance"`
}

// Query fetches the whole sheet. Rows that cannot be parsed are skipped and
// logged. Totals are always computed from the returned records; totals the
// sheet reports are only checked against them.
func (c *Client) Query(ctx context.Context) (core.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	raw, err := c.do(req)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("query: %w", err)
	}
	var resp queryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return core.Snapshot{}, fmt.Errorf("query: decode response: %w", err)
	}
	if resp.Error != "" {
		return core.Snapshot{}, fmt.Errorf("query: %w: %s", ledger.ErrStore, resp.Error)
	}

	logger := log.FromContext(ctx)
	snap := core.Snapshot{Records: make([]core.Transaction, 0, len(resp.Records))}
	for i, r := range resp.Records {
		t, err := r.toTransaction(c.loc)
		if err != nil {
			logger.WarnContext(ctx, "Skipping unparseable ledger row", "row", i+1, log.FieldError, err)
			continue
		}
		snap.Records = append(snap.Records, t)
	}
	snap.Totals = core.TotalsOf(snap.Records)
	if resp.Totals != nil {
		reported := core.Totals{
			Income:  resp.Totals.Income.Decimal,
			Expense: resp.Totals.Expense.Decimal,
			Balance: resp.Totals.Balance.Decimal,
		}
		if !reported.Equal(snap.Totals) {
			logger.WarnContext(ctx, "Ledger totals disagree with its records",
				"reported_income", reported.Income.String(),
				"reported_expense", reported.Expense.String(),
				"reported_balance", reported.Balance.String(),
				"computed_income", snap.Totals.Income.String(),
				"computed_expense", snap.Totals.Expense.String(),
				"computed_balance", snap.Totals.Balance.String())
		}
	}
	return snap, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ledger.ErrStore, res.StatusCode, snippet(raw))
	}
	return raw, nil
}

func (r recordDTO) toTransaction(loc *time.Location) (core.Transaction, error) {
	date, err := core.ParseDate(r.Date, loc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", r.Date, err)
	}
	kind := core.Expense
	if strings.TrimSpace(r.Type) != "" {
		if kind, err = core.ParseKind(r.Type); err != nil {
			return core.Transaction{}, fmt.Errorf("type %q: %w", r.Type, err)
		}
	}
	if !r.Amount.set || r.Amount.IsNegative() {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	return core.Transaction{
		ID:       r.ID,
		Item:     strings.TrimSpace(r.Item),
		Amount:   r.Amount.Decimal,
		Currency: strings.TrimSpace(r.Currency),
		Category: strings.TrimSpace(r.Category),
		Kind:     kind,
		RawText:  r.RawText,
		Date:     date,
	}, nil
}

// flexAmount accepts sheet amounts sent either as JSON numbers or strings.
// Unparseable values leave set false so one bad row does not fail the read.
type flexAmount struct {
	decimal.Decimal
	set bool
}

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = str
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		// Sheets may report a negative balance.
		neg, nerr := decimal.NewFromString(strings.TrimSpace(s))
		if nerr != nil {
			return nil
		}
		d = neg
	}
	a.Decimal, a.set = d, true
	return nil
}

func snippet(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
