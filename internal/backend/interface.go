// Package backend builds the ledger store and the language model provider
// selected by configuration.
package backend

import (
	"context"
	"time"

	"daftar/internal/ledger"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the ledger store and an optional cleanup function.
type BackendResult struct {
	Store ledger.Store
	// Publishing reports whether AMQP events are emitted on append.
	Publishing bool
	Cleanup    CleanupFunc
}

// Factory creates ledger stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type     BackendType
	Location *time.Location

	// Webhook specific
	ScriptURL string
	Timeout   time.Duration

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// SQLite specific
	SQLiteDBPath string

	// Memory specific
	SeedFile string

	// Optional AMQP events for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of ledger backend
type BackendType string

const (
	WebhookBackend BackendType = "webhook"
	SheetsBackend  BackendType = "sheets"
	SQLiteBackend  BackendType = "sqlite"
	MemoryBackend  BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case WebhookBackend, SheetsBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
