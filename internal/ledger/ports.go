// Package ledger defines the ports of the external ledger store and the
// decorators shared by every backend.
package ledger

import (
	"context"
	"errors"

	"daftar/internal/core"
)

// Ports for outbound adapters.
type (
	Appender interface {
		// Append persists t and returns a store-specific reference.
		Append(ctx context.Context, t core.Transaction) (ref string, err error)
	}

	Querier interface {
		// Query fetches the full record set with the totals the store reports.
		Query(ctx context.Context) (core.Snapshot, error)
	}

	Store interface {
		Appender
		Querier
	}
)

// ErrStore marks failures reported by the store itself, as opposed to
// transport failures reaching it.
var ErrStore = errors.New("ledger store error")
