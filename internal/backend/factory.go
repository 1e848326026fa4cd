package backend

import (
	"context"
	"fmt"
	"io"
	"time"

	"daftar/internal/amqp"
	"daftar/internal/ledger"
	"daftar/internal/ledger/memory"
	"daftar/internal/ledger/sheets"
	"daftar/internal/ledger/sqlite"
	"daftar/internal/ledger/webhook"
	"daftar/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend creates the configured store. When an AMQP URL is set the
// store is wrapped so every append also emits an event; an unreachable broker
// only disables events.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Location == nil {
		config.Location = time.UTC
	}

	var (
		store ledger.Store
		err   error
	)
	switch config.Type {
	case WebhookBackend:
		store, err = f.createWebhookBackend(config)
	case SheetsBackend:
		store, err = f.createSheetsBackend(ctx, config)
	case SQLiteBackend:
		store, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		store, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store, Cleanup: closerFunc(store)}
	if config.AMQPURL == "" {
		return result, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return result, nil
	}
	f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)

	publishing := ledger.NewPublishingStore(store, client)
	return &BackendResult{Store: publishing, Publishing: true, Cleanup: publishing.Close}, nil
}

func (f *DefaultFactory) createWebhookBackend(config Config) (ledger.Store, error) {
	opts := []webhook.Option{webhook.WithLocation(config.Location)}
	if config.Timeout > 0 {
		opts = append(opts, webhook.WithTimeout(config.Timeout))
	}
	client, err := webhook.New(config.ScriptURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize webhook client: %w", err)
	}
	f.logger.Info("Initialized webhook backend")
	return client, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (ledger.Store, error) {
	client, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		Location:        config.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		f.logger.Warn("Could not verify ledger sheet header", log.FieldError, err)
	}
	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
	return client, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (ledger.Store, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath, config.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (ledger.Store, error) {
	if config.SeedFile == "" {
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	}
	store, err := memory.NewFromFile(config.SeedFile, config.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile, "records", store.Len())
	return store, nil
}

func closerFunc(store ledger.Store) CleanupFunc {
	if c, ok := store.(io.Closer); ok {
		return c.Close
	}
	return nil
}
