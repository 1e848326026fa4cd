package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"daftar/internal/core"
	"daftar/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	items []core.Transaction
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock lets tests pin the date assigned on append.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// NewFromFile seeds the store from a pipe-separated file of
// date|kind|item|amount|category lines. Missing files yield an empty store.
func NewFromFile(path string, loc *time.Location) (*Store, error) {
	s := New()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		t, err := parseSeedLine(text, loc)
		if err != nil {
			return nil, fmt.Errorf("seed line %d: %w", line, err)
		}
		t.ID = fmt.Sprintf("mem:%d", len(s.items)+1)
		s.items = append(s.items, t)
	}
	return s, sc.Err()
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Date.IsZero() {
		t.Date = s.now()
	}
	ref := fmt.Sprintf("mem:%d", len(s.items)+1)
	if t.ID == "" {
		t.ID = ref
	}
	s.items = append(s.items, t)
	return ref, nil
}

// Query returns a copy of every record with freshly computed totals.
func (s *Store) Query(_ context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append([]core.Transaction(nil), s.items...)
	return core.Snapshot{Records: records, Totals: core.TotalsOf(records)}, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func parseSeedLine(text string, loc *time.Location) (core.Transaction, error) {
	parts := strings.Split(text, "|")
	if len(parts) != 5 {
		return core.Transaction{}, fmt.Errorf("expected 5 fields, got %d", len(parts))
	}
	date, err := core.ParseDate(parts[0], loc)
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(parts[1])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(parts[3])
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Date:     date,
		Kind:     kind,
		Item:     strings.TrimSpace(parts[2]),
		Amount:   amount,
		Category: strings.TrimSpace(parts[4]),
	}
	return t, t.Validate()
}
