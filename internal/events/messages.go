package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
)

const (
	KindBudgetSet    = "budget_set"
	KindExpenseAdded = "expense_added"
)

// LedgerEvent is the message published after every accepted mutation.
// Amounts travel as decimal strings to avoid float drift on consumers.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	UID       string    `json:"uid"`
	ExpenseID string    `json:"expenseId,omitempty"`
	Amount    string    `json:"amount"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBudgetSet builds the event for a successful budget upsert.
func NewBudgetSet(uid core.UserID, amount decimal.Decimal) *LedgerEvent {
	return &LedgerEvent{
		Kind:      KindBudgetSet,
		UID:       string(uid),
		Amount:    amount.String(),
		Timestamp: time.Now(),
	}
}

// NewExpenseAdded builds the event for a successful expense insert.
func NewExpenseAdded(uid core.UserID, expenseID string, amount decimal.Decimal, category string) *LedgerEvent {
	return &LedgerEvent{
		Kind:      KindExpenseAdded,
		UID:       string(uid),
		ExpenseID: expenseID,
		Amount:    amount.String(),
		Category:  category,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON creates an event from JSON bytes
func FromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
