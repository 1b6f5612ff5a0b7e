package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "wisenkap.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUpsertBudgetCreateThenMerge(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertBudget(ctx, "u1", decimal.NewFromInt(500)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.UpsertBudget(ctx, "u1", decimal.RequireFromString("750.25")); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	snap, err := repo.readBudget(ctx, "u1")
	if err != nil {
		t.Fatalf("read budget: %v", err)
	}
	if !snap.Set || !snap.Amount.Equal(decimal.RequireFromString("750.25")) {
		t.Fatalf("expected merged budget 750.25, got %+v", snap)
	}
}

func TestReadBudgetAbsentIsNotAnError(t *testing.T) {
	repo := newTestRepo(t)
	snap, err := repo.readBudget(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("read budget: %v", err)
	}
	if snap.Set {
		t.Fatalf("expected unset snapshot, got %+v", snap)
	}
}

func TestInsertExpenseAssignsIDAndTimestamp(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.InsertExpense(ctx, core.Expense{
		Amount:   decimal.RequireFromString("25.50"),
		Category: core.CategoryOther,
		Label:    "Café",
		UserID:   "u1",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == "" {
		t.Fatalf("expected store-assigned id")
	}

	expenses, err := repo.readExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("read expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	e := expenses[0]
	if e.ID != id || e.Label != "Café" || !e.Amount.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("unexpected expense: %+v", e)
	}
	if e.Date.IsZero() || time.Since(e.Date) > time.Minute {
		t.Fatalf("expected recent server-assigned date, got %v", e.Date)
	}
}

func TestReadExpensesScopedAndOrdered(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, amt := range []string{"10", "20", "30"} {
		if _, err := repo.InsertExpense(ctx, core.Expense{
			Amount:   decimal.RequireFromString(amt),
			Category: "Loyer",
			UserID:   "u1",
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if _, err := repo.InsertExpense(ctx, core.Expense{
		Amount: decimal.NewFromInt(99), Category: "Habit", UserID: "u2",
	}); err != nil {
		t.Fatalf("insert other user: %v", err)
	}

	expenses, err := repo.readExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("read expenses: %v", err)
	}
	if len(expenses) != 3 {
		t.Fatalf("expected 3 expenses for u1, got %d", len(expenses))
	}
	// Same-second inserts fall back to id descending.
	if !expenses[0].Amount.Equal(decimal.NewFromInt(30)) ||
		!expenses[2].Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected most recent first, got %v", expenses)
	}
}

func TestObserveBudgetDeliversOnWrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := repo.ObserveBudget(ctx, "u1")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}

	first := <-ch
	if first.Err != nil || first.Budget.Set {
		t.Fatalf("expected unset initial snapshot, got %+v", first)
	}

	if err := repo.UpsertBudget(ctx, "u1", decimal.NewFromInt(300)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	select {
	case upd := <-ch:
		if upd.Err != nil || !upd.Budget.Set || !upd.Budget.Amount.Equal(decimal.NewFromInt(300)) {
			t.Fatalf("expected budget 300, got %+v", upd)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for budget update")
	}
}
