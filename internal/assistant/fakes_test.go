package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"daftar/internal/core"
	"daftar/internal/ledger/memory"
	"daftar/internal/llm"
	"daftar/internal/log"
)

var riyadh = time.FixedZone("AST", 3*3600)

type fakeLU struct {
	mu            sync.Mutex
	intents       map[string]llm.Intent
	extractions   map[string]llm.Extraction
	summary       string
	summarizeErr  error
	facts         string
	classifyCalls int
	extractCalls  int
}

func newFakeLU() *fakeLU {
	return &fakeLU{
		intents:     map[string]llm.Intent{},
		extractions: map[string]llm.Extraction{},
	}
}

func (f *fakeLU) Classify(_ context.Context, text string) (llm.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifyCalls++
	intent, ok := f.intents[text]
	if !ok {
		return "", &llm.DecodeError{Reason: "unknown intent", Raw: "maybe"}
	}
	return intent, nil
}

func (f *fakeLU) Extract(_ context.Context, text string) (llm.Extraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extractCalls++
	e, ok := f.extractions[text]
	if !ok {
		return llm.Extraction{}, &llm.DecodeError{Reason: "missing amount"}
	}
	return e, nil
}

func (f *fakeLU) Summarize(_ context.Context, _, facts string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facts = facts
	if f.summarizeErr != nil {
		return "", f.summarizeErr
	}
	if f.summary != "" {
		return f.summary, nil
	}
	return "ملخص:\n" + facts, nil
}

func (f *fakeLU) Chat(_ context.Context, text string) (string, error) {
	return "أهلاً! " + text, nil
}

func (f *fakeLU) write(text, item string, amount int64, category string, kind core.Kind) {
	f.intents[text] = llm.IntentWrite
	f.extractions[text] = llm.Extraction{Item: item, Amount: decimal.NewFromInt(amount), Category: category, Kind: kind}
}

// flakyLedger fails the next failures appends.
type flakyLedger struct {
	*memory.Store
	mu       sync.Mutex
	failures int
	appends  int
	queryErr error
}

func (f *flakyLedger) Append(ctx context.Context, tx core.Transaction) (string, error) {
	f.mu.Lock()
	f.appends++
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return "", errors.New("sheet unavailable")
	}
	return f.Store.Append(ctx, tx)
}

func (f *flakyLedger) Query(ctx context.Context) (core.Snapshot, error) {
	if f.queryErr != nil {
		return core.Snapshot{}, f.queryErr
	}
	return f.Store.Query(ctx)
}

func (f *flakyLedger) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appends
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	engine *Engine
	lu     *fakeLU
	ledger *flakyLedger
	clock  *fakeClock
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 15, 10, 0, 0, 0, riyadh)}
	cfg := DefaultConfig()
	cfg.Location = riyadh
	if mutate != nil {
		mutate(&cfg)
	}
	h := &harness{
		lu:     newFakeLU(),
		ledger: &flakyLedger{Store: memory.NewWithClock(clock.Now)},
		clock:  clock,
	}
	h.engine = New(h.lu, h.ledger, cfg, WithClock(clock.Now), WithLogger(log.Discard()))
	return h
}

func (h *harness) send(t *testing.T, conversationID, text string) (Outbound, error) {
	t.Helper()
	return h.engine.Handle(context.Background(), Inbound{ConversationID: conversationID, SenderID: "u1", Text: text})
}

func flatten(rows [][]string) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}
