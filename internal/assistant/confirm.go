package assistant

import (
	"context"
	"fmt"
	"strings"

	"daftar/internal/core"
	"daftar/internal/ledger"
	"daftar/internal/log"
)

// Machine drives the per-conversation confirmation dialogue:
//
//	AwaitingCategory + taxonomy label -> ReadyToConfirm
//	AwaitingCategory + cancel         -> NoPending
//	ReadyToConfirm   + confirm        -> NoPending after a successful append
//	ReadyToConfirm   + cancel         -> NoPending
//	ReadyToConfirm   + change-category -> AwaitingCategory
//
// A failed append keeps the transaction ReadyToConfirm until maxAttempts
// failures, then discards it.
type Machine struct {
	store       PendingStore
	ledger      ledger.Appender
	taxonomy    core.Taxonomy
	maxAttempts int
	logger      *log.Logger
}

// Advance applies text to the pending transaction p. handled is false when
// the input is not one the current state expects; the caller then treats it
// as a fresh message.
func (m *Machine) Advance(ctx context.Context, conversationID string, p Pending, text string) (reply Reply, handled bool, err error) {
	input := parseFixedReply(text)
	logger := log.FromContext(ctx)

	switch p.Status {
	case AwaitingCategory:
		switch input {
		case replyCancel:
			return m.cancel(ctx, conversationID), true, nil
		case replyConfirm, replyChangeCategory:
			// Nothing to confirm before a category is chosen.
			return categoryReply(p.Tx, m.taxonomy), true, nil
		}
		label := strings.TrimSpace(text)
		if !m.taxonomy.Contains(p.Tx.Kind, label) {
			return Reply{}, false, nil
		}
		p.Tx.Category = label
		p.Status = ReadyToConfirm
		m.store.Set(conversationID, p)
		logger.InfoContext(ctx, "Category selected", log.FieldCategory, label)
		return confirmReply(p.Tx), true, nil

	case ReadyToConfirm:
		switch input {
		case replyConfirm:
			reply, err := m.persist(ctx, conversationID, p)
			return reply, true, err
		case replyCancel:
			return m.cancel(ctx, conversationID), true, nil
		case replyChangeCategory:
			p.Tx.Category = core.NeedsClarification
			p.Status = AwaitingCategory
			m.store.Set(conversationID, p)
			return categoryReply(p.Tx, m.taxonomy), true, nil
		}
	}
	return Reply{}, false, nil
}

func (m *Machine) cancel(ctx context.Context, conversationID string) Reply {
	m.store.Delete(conversationID)
	log.FromContext(ctx).InfoContext(ctx, "Pending transaction cancelled")
	return textReply(msgCancelled)
}

func (m *Machine) persist(ctx context.Context, conversationID string, p Pending) (Reply, error) {
	ref, err := persist(ctx, m.ledger, p.Tx)
	if err != nil {
		p.Attempts++
		fields := log.NewFields().WithError(err).WithOperation(log.OpAppend)
		fields[log.FieldAttempts] = p.Attempts
		if p.Attempts >= m.maxAttempts {
			m.store.Delete(conversationID)
			log.FromContext(ctx).ErrorContext(ctx, "Giving up on pending transaction", fields.ToSlice()...)
			return gaveUpReply(p.Attempts), err
		}
		m.store.Set(conversationID, p)
		log.FromContext(ctx).WarnContext(ctx, "Append failed, keeping pending transaction", fields.ToSlice()...)
		return retryReply(p.Tx, p.Attempts, m.maxAttempts), err
	}

	m.store.Delete(conversationID)
	logRecorded(ctx, p.Tx, ref)
	return recordedReply(p.Tx), nil
}

// persist appends a resolved transaction. It refuses the sentinel category.
func persist(ctx context.Context, appender ledger.Appender, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	ref, err := appender.Append(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return ref, nil
}

func logRecorded(ctx context.Context, tx core.Transaction, ref string) {
	fields := log.NewFields().
		WithTransaction(tx.Item, tx.Amount, tx.Currency, tx.Category, tx.Kind.String()).
		WithOperation(log.OpAppend)
	fields[log.FieldLedgerRef] = ref
	log.FromContext(ctx).InfoContext(ctx, "Transaction recorded", fields.ToSlice()...)
}
