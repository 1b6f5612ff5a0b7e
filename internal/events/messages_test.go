package events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewExpenseAdded(t *testing.T) {
	ev := NewExpenseAdded("u1", "exp-42", decimal.RequireFromString("25.50"), "Autres")

	if ev.Kind != KindExpenseAdded {
		t.Errorf("Kind = %q, want %q", ev.Kind, KindExpenseAdded)
	}
	if ev.UID != "u1" || ev.ExpenseID != "exp-42" {
		t.Errorf("unexpected identifiers: uid=%q expense=%q", ev.UID, ev.ExpenseID)
	}
	if ev.Amount != "25.5" {
		t.Errorf("Amount = %q, want decimal string", ev.Amount)
	}
	if ev.Timestamp.IsZero() || time.Since(ev.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestNewBudgetSet(t *testing.T) {
	ev := NewBudgetSet("u1", decimal.NewFromInt(500))

	if ev.Kind != KindBudgetSet {
		t.Errorf("Kind = %q, want %q", ev.Kind, KindBudgetSet)
	}
	if ev.Amount != "500" {
		t.Errorf("Amount = %q, want %q", ev.Amount, "500")
	}
	if ev.ExpenseID != "" || ev.Category != "" {
		t.Errorf("budget events carry no expense fields: %+v", ev)
	}
}

func TestLedgerEventJSONRoundTrip(t *testing.T) {
	ev := &LedgerEvent{
		Kind:      KindBudgetSet,
		UID:       "u1",
		Amount:    "750.25",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	if parsed.Kind != ev.Kind || parsed.UID != ev.UID || parsed.Amount != ev.Amount {
		t.Errorf("round trip mismatch: got %+v, want %+v", parsed, ev)
	}
	if !parsed.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, ev.Timestamp)
	}
}

func TestFromJSONInvalid(t *testing.T) {
	if _, err := FromJSON([]byte(`{"kind": 12}`)); err == nil {
		t.Error("FromJSON should fail with invalid JSON")
	}
}
