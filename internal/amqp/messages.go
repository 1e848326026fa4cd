package amqp

import (
	"encoding/json"
	"time"

	"daftar/internal/core"
)

// TransactionRecorded is published after a transaction reaches the ledger, so
// report and dashboard consumers can refresh without polling the store.
type TransactionRecorded struct {
	ID         string    `json:"id"`
	Ref        string    `json:"ref"`
	Kind       string    `json:"kind"`
	Item       string    `json:"item"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Category   string    `json:"category"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewTransactionRecorded builds the event for a stored transaction.
func NewTransactionRecorded(t core.Transaction, ref string) *TransactionRecorded {
	return &TransactionRecorded{
		ID:         t.ID,
		Ref:        ref,
		Kind:       t.Kind.String(),
		Item:       t.Item,
		Amount:     t.Amount.String(),
		Currency:   t.Currency,
		Category:   t.Category,
		RecordedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedFromJSON decodes a message published by this service.
func TransactionRecordedFromJSON(data []byte) (*TransactionRecorded, error) {
	var msg TransactionRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
