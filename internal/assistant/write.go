package assistant

import (
	"context"

	"daftar/internal/log"
)

func (e *Engine) write(ctx context.Context, conversationID, text string) (Reply, error) {
	logger := log.FromContext(ctx)

	res, err := e.extractor.Extract(ctx, text)
	if err != nil {
		logger.WarnContext(ctx, "Extraction failed", log.FieldError, err)
		return textReply(msgExtractFailed), err
	}
	tx := res.Transaction

	if res.NeedsCategory {
		e.pending.Set(conversationID, Pending{Tx: tx, Status: AwaitingCategory, CreatedAt: e.now()})
		logger.InfoContext(ctx, "Awaiting category", log.FieldItem, tx.Item)
		return categoryReply(tx, e.cfg.Taxonomy), nil
	}

	if e.cfg.ConfirmWrites {
		e.pending.Set(conversationID, Pending{Tx: tx, Status: ReadyToConfirm, CreatedAt: e.now()})
		return confirmReply(tx), nil
	}

	ref, err := persist(ctx, e.ledger, tx)
	if err != nil {
		if e.cfg.MaxPersistAttempts > 1 {
			// Keep it so the user can retry with confirm.
			e.pending.Set(conversationID, Pending{Tx: tx, Status: ReadyToConfirm, Attempts: 1, CreatedAt: e.now()})
			logger.WarnContext(ctx, "Append failed, keeping pending transaction", log.FieldError, err)
			return retryReply(tx, 1, e.cfg.MaxPersistAttempts), err
		}
		logger.ErrorContext(ctx, "Append failed", log.FieldError, err)
		return gaveUpReply(1), err
	}
	logRecorded(ctx, tx, ref)
	return recordedReply(tx), nil
}
