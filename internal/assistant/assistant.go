// Package assistant is the message-understanding and confirmation engine. It
// routes each inbound message to the write, read or chat path, keeps one
// pending transaction per conversation and drives the confirm dialogue.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"daftar/internal/cache"
	"daftar/internal/core"
	"daftar/internal/ledger"
	"daftar/internal/llm"
	"daftar/internal/log"
)

var (
	ErrClassification = errors.New("classification failed")
	ErrExtraction     = errors.New("extraction failed")
	ErrPersistence    = errors.New("persistence failed")
	ErrQuery          = errors.New("ledger query failed")
)

type (
	// Inbound is a message from a chat transport. VoiceClipRef is set when the
	// transport could not turn a voice note into Text.
	Inbound struct {
		ConversationID string
		SenderID       string
		Text           string
		VoiceClipRef   string
	}

	// Outbound is the engine's answer. QuickReplies rows map to keyboard rows.
	Outbound struct {
		ConversationID string
		Text           string
		QuickReplies   [][]string
	}

	Reply struct {
		Text         string
		QuickReplies [][]string
	}

	// Understander is the language-understanding port. *llm.Client satisfies it.
	Understander interface {
		Classify(ctx context.Context, text string) (llm.Intent, error)
		Extract(ctx context.Context, text string) (llm.Extraction, error)
		Summarize(ctx context.Context, question, facts string) (string, error)
		Chat(ctx context.Context, text string) (string, error)
	}
)

type Config struct {
	Taxonomy           core.Taxonomy
	DefaultCurrency    string
	ConfirmWrites      bool
	MaxPersistAttempts int
	PendingTTL         time.Duration
	MaxPendingSessions int
	RequestTimeout     time.Duration
	Location           *time.Location
}

func DefaultConfig() Config {
	return Config{
		Taxonomy:           core.DefaultTaxonomy(),
		DefaultCurrency:    "SAR",
		ConfirmWrites:      true,
		MaxPersistAttempts: 3,
		PendingTTL:         24 * time.Hour,
		MaxPendingSessions: 1000,
		RequestTimeout:     30 * time.Second,
		Location:           time.UTC,
	}
}

type Option func(*Engine)

// WithClock replaces time.Now for the engine and its pending store.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

type Engine struct {
	cfg       Config
	lu        Understander
	ledger    ledger.Store
	extractor *Extractor
	machine   *Machine
	pending   *cache.LRUCache[Pending]
	locks     *keyedMutex
	now       func() time.Time
	logger    *log.Logger
}

func New(lu Understander, store ledger.Store, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = def.DefaultCurrency
	}
	if cfg.MaxPersistAttempts < 1 {
		cfg.MaxPersistAttempts = def.MaxPersistAttempts
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = def.PendingTTL
	}
	if cfg.MaxPendingSessions < 1 {
		cfg.MaxPendingSessions = def.MaxPendingSessions
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}

	e := &Engine{
		cfg:    cfg,
		lu:     lu,
		ledger: store,
		locks:  newKeyedMutex(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(log.DefaultConfig())
	}
	e.logger = e.logger.WithComponent(log.ComponentAssistant)

	e.pending = newPendingStore(cfg.MaxPendingSessions, cfg.PendingTTL, e.now, e.logger)
	e.extractor = NewExtractor(lu, cfg.Taxonomy, cfg.DefaultCurrency)
	e.machine = &Machine{
		store:       e.pending,
		ledger:      store,
		taxonomy:    cfg.Taxonomy,
		maxAttempts: cfg.MaxPersistAttempts,
		logger:      e.logger,
	}
	return e
}

// PendingStore exposes the pending cache so it can be swept periodically.
func (e *Engine) PendingStore() cache.Cleaner {
	return e.pending
}

// Pending returns the pending transaction of a conversation, if any.
func (e *Engine) Pending(conversationID string) (Pending, bool) {
	return e.pending.Get(conversationID)
}

// Handle processes one inbound message. The returned Outbound always carries
// a user-facing text; err is non-nil when a failure path was taken and wraps
// one of the package sentinels where one applies.
//
// Messages of the same conversation are handled one at a time.
func (e *Engine) Handle(ctx context.Context, in Inbound) (Outbound, error) {
	out := Outbound{ConversationID: in.ConversationID}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		if in.VoiceClipRef != "" {
			out.Text = msgVoiceNotSupport
		} else {
			out.Text = msgEmpty
		}
		return out, nil
	}

	unlock := e.locks.Lock(in.ConversationID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	ctx = log.WithContext(ctx, e.logger.With(log.FieldConversationID, in.ConversationID))

	reply, err := e.handle(ctx, in.ConversationID, text)
	out.Text = reply.Text
	out.QuickReplies = reply.QuickReplies
	return out, err
}

func (e *Engine) handle(ctx context.Context, conversationID, text string) (Reply, error) {
	logger := log.FromContext(ctx)

	action, err := e.Route(ctx, conversationID, text)
	if err != nil {
		logger.WarnContext(ctx, "Message not classified", log.FieldError, err)
		return textReply(msgNotUnderstood), err
	}

	if action == ActionContinue {
		p, _ := e.pending.Get(conversationID)
		reply, handled, err := e.machine.Advance(ctx, conversationID, p, text)
		if handled {
			return reply, err
		}
		// The pending transaction did not expect this input: classify it as a
		// fresh message and abandon the pending one once that succeeds.
		intent, err := e.classify(ctx, text)
		if err != nil {
			logger.WarnContext(ctx, "Message not classified", log.FieldError, err)
			return textReply(msgNotUnderstood), err
		}
		action = actionFor(intent)
	}

	switch action {
	case ActionNoop:
		return textReply(msgNothingPending), nil
	case ActionWrite, ActionRead, ActionChat:
		abandoned := e.abandon(ctx, conversationID)
		reply, err := e.dispatch(ctx, conversationID, action, text)
		if abandoned {
			reply = withNote(msgAbandoned, reply)
		}
		return reply, err
	}
	return textReply(msgGenericFailure), fmt.Errorf("unexpected action %v", action)
}

func (e *Engine) dispatch(ctx context.Context, conversationID string, action Action, text string) (Reply, error) {
	switch action {
	case ActionWrite:
		return e.write(ctx, conversationID, text)
	case ActionRead:
		return e.read(ctx, text)
	default:
		return e.chat(ctx, text)
	}
}

// abandon drops a pending transaction the user moved on from.
func (e *Engine) abandon(ctx context.Context, conversationID string) bool {
	p, ok := e.pending.Get(conversationID)
	if !ok {
		return false
	}
	e.pending.Delete(conversationID)
	log.FromContext(ctx).InfoContext(ctx, "Pending transaction abandoned",
		log.FieldStatus, p.Status.String(), log.FieldItem, p.Tx.Item)
	return true
}

func (e *Engine) chat(ctx context.Context, text string) (Reply, error) {
	answer, err := e.lu.Chat(ctx, text)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Chat reply failed", log.FieldError, err)
		return textReply(msgGenericFailure), fmt.Errorf("chat: %w", err)
	}
	return textReply(answer), nil
}
