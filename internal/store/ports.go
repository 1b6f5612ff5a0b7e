package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
)

// Ports for outbound document-store adapters. Each subscription yields
// full snapshots, never diffs: a delivered value replaces the previous
// one entirely. Update channels close once the subscription context is
// done, and cancellation guarantees no further delivery.

type (
	// BudgetUpdate carries the latest budget document snapshot, or a
	// stream error when the subscription itself failed.
	BudgetUpdate struct {
		Budget core.BudgetSnapshot
		Err    error
	}

	// ExpenseUpdate carries the complete expense set for the observed
	// user, ordered by date descending, or a stream error.
	ExpenseUpdate struct {
		Expenses []core.Expense
		Err      error
	}

	BudgetObserver interface {
		// ObserveBudget subscribes to the single budget document keyed
		// by uid. The first update reflects current state; absence of a
		// document is delivered as an unset snapshot, not an error.
		ObserveBudget(ctx context.Context, uid core.UserID) (<-chan BudgetUpdate, error)
	}

	ExpenseObserver interface {
		// ObserveExpenses subscribes to the set of expense records
		// owned by uid, most recent first. Order among same-instant
		// records is not guaranteed.
		ObserveExpenses(ctx context.Context, uid core.UserID) (<-chan ExpenseUpdate, error)
	}

	BudgetWriter interface {
		// UpsertBudget creates or merges the budget document for uid.
		UpsertBudget(ctx context.Context, uid core.UserID, amount decimal.Decimal) error
	}

	ExpenseWriter interface {
		// InsertExpense creates a new expense record with a
		// store-assigned id and creation timestamp and returns the id.
		InsertExpense(ctx context.Context, e core.Expense) (string, error)
	}
)

// Store is the unified document-store surface the ledger depends on.
type Store interface {
	BudgetObserver
	ExpenseObserver
	BudgetWriter
	ExpenseWriter
}

// CleanupFunc releases resources held by a store adapter.
type CleanupFunc func() error
