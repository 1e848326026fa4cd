package log

import "github.com/shopspring/decimal"

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldConversationID = "conversation_id"
	FieldSenderID       = "sender_id"
	FieldIntent         = "intent"
	FieldStatus         = "status"
	FieldItem           = "item"
	FieldAmount         = "amount"
	FieldCurrency       = "currency"
	FieldCategory       = "category"
	FieldKind           = "kind"
	FieldAttempts       = "attempts"
	FieldLedgerRef      = "ledger_ref"
)

// Component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAssistant = "assistant"
	ComponentTelegram  = "telegram"
	ComponentLLM       = "llm"
	ComponentLedger    = "ledger"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operation names
const (
	OpClassify   = "classify"
	OpExtract    = "extract"
	OpAppend     = "append"
	OpQuery      = "query"
	OpSummarize  = "summarize"
	OpTranscribe = "transcribe"
	OpPublish    = "publish"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// LogFields is a builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError is a no-op for a nil error.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithConversation(conversationID string) LogFields {
	f[FieldConversationID] = conversationID
	return f
}

// WithTransaction adds the loggable parts of a transaction. Raw text is left
// out on purpose.
func (f LogFields) WithTransaction(item string, amount decimal.Decimal, currency, category, kind string) LogFields {
	f[FieldItem] = item
	f[FieldAmount] = amount.String()
	f[FieldCurrency] = currency
	f[FieldCategory] = category
	f[FieldKind] = kind
	return f
}

func (f LogFields) WithHTTPRequest(method, path string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to alternating key/value arguments for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
