package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"

	"daftar/internal/amqp"
	"daftar/internal/core"
	"daftar/internal/log"
)

// Publisher announces transactions that reached the store.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecorded) error
}

// PublishingStore saves through the wrapped store and then publishes a
// TransactionRecorded event. Publishing is best effort: a failure is logged
// and the append still succeeds.
type PublishingStore struct {
	store     Store
	publisher Publisher
}

var _ Store = (*PublishingStore)(nil)

func NewPublishingStore(store Store, publisher Publisher) *PublishingStore {
	return &PublishingStore{store: store, publisher: publisher}
}

func (s *PublishingStore) Append(ctx context.Context, t core.Transaction) (string, error) {
	ref, err := s.store.Append(ctx, t)
	if err != nil {
		return "", err
	}

	if s.publisher == nil {
		log.FromContext(ctx).WarnContext(ctx, "AMQP publisher not available, skipping transaction event")
		return ref, nil
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, amqp.NewTransactionRecorded(t, ref)); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldLedgerRef, ref, log.FieldError, err, log.FieldOperation, log.OpPublish)
	}
	return ref, nil
}

func (s *PublishingStore) Query(ctx context.Context) (core.Snapshot, error) {
	return s.store.Query(ctx)
}

// Close closes the wrapped store and the publisher when they hold resources.
func (s *PublishingStore) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
