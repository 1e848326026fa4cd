package assistant

import (
	"context"
	"fmt"

	"daftar/internal/llm"
	"daftar/internal/log"
)

// Action is the router's decision for one message.
type Action int

const (
	ActionNoop Action = iota
	ActionContinue
	ActionWrite
	ActionRead
	ActionChat
)

func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionWrite:
		return "write"
	case ActionRead:
		return "read"
	case ActionChat:
		return "chat"
	}
	return "noop"
}

func actionFor(intent llm.Intent) Action {
	switch intent {
	case llm.IntentWrite:
		return ActionWrite
	case llm.IntentRead:
		return ActionRead
	}
	return ActionChat
}

// Route decides how text is handled without changing any state.
//
// A conversation awaiting a category, or any fixed reply while a transaction
// is pending, continues the confirmation dialogue and is never classified. A
// stale keyboard label with nothing pending is a no-op; plain words such as
// "لا" or "yes" are classified like any other message. Everything else is
// classified as write, read or chat; a failed classification wraps
// ErrClassification.
func (e *Engine) Route(ctx context.Context, conversationID, text string) (Action, error) {
	reply := parseFixedReply(text)
	p, pending := e.pending.Get(conversationID)
	switch {
	case pending && (p.Status == AwaitingCategory || reply != replyNone):
		return ActionContinue, nil
	case !pending && isKeyboardLabel(text):
		return ActionNoop, nil
	}

	intent, err := e.classify(ctx, text)
	if err != nil {
		return ActionNoop, err
	}
	return actionFor(intent), nil
}

func (e *Engine) classify(ctx context.Context, text string) (llm.Intent, error) {
	intent, err := e.lu.Classify(ctx, text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrClassification, err)
	}
	log.FromContext(ctx).DebugContext(ctx, "Message classified", log.FieldIntent, string(intent))
	return intent, nil
}
