// Package sqlite keeps the ledger in a local SQLite file. Amounts are stored
// as decimal text so nothing is lost to floating point.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"daftar/internal/core"
	"daftar/internal/ledger"
	"daftar/internal/log"

	_ "modernc.org/sqlite"
)

var _ ledger.Store = (*Repository)(nil)

type Repository struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

func NewRepository(dbPath string, loc *time.Location) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}
	return &Repository{db: db, loc: loc, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.Appender.
func (r *Repository) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	date := t.Date
	if date.IsZero() {
		date = r.now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (external_id, occurred_at, kind, item, amount, currency, category, raw_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, date.In(r.loc).Format(time.RFC3339), t.Kind.String(), t.Item,
		t.Amount.String(), t.Currency, t.Category, t.RawText)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	log.FromContext(ctx).InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"external_id", t.ID,
		"kind", t.Kind,
		"amount", t.Amount.String(),
		"category", t.Category)

	return fmt.Sprintf("sqlite:%d", id), nil
}

// Query implements ledger.Querier. Records come back in insertion order.
func (r *Repository) Query(ctx context.Context) (core.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT external_id, occurred_at, kind, item, amount, currency, category, raw_text
		FROM transactions
		ORDER BY id`)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var records []core.Transaction
	for rows.Next() {
		var (
			t                  core.Transaction
			occurred, kind, am string
		)
		if err := rows.Scan(&t.ID, &occurred, &kind, &t.Item, &am, &t.Currency, &t.Category, &t.RawText); err != nil {
			return core.Snapshot{}, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = time.Parse(time.RFC3339, occurred); err != nil {
			return core.Snapshot{}, fmt.Errorf("parse occurred_at %q: %w", occurred, err)
		}
		t.Date = t.Date.In(r.loc)
		t.Kind = core.Kind(kind)
		if t.Amount, err = decimal.NewFromString(am); err != nil {
			return core.Snapshot{}, fmt.Errorf("parse amount %q: %w", am, err)
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, fmt.Errorf("iterate transactions: %w", err)
	}
	return core.Snapshot{Records: records, Totals: core.TotalsOf(records)}, nil
}
