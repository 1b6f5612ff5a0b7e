package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeWithBudget(t *testing.T) {
	budget := BudgetSnapshot{Set: true, Amount: dec("500")}
	expenses := []Expense{
		{Amount: dec("120"), Category: "Nourriture"},
		{Amount: dec("30"), Category: "Transport"},
	}

	st := Compute(budget, expenses)
	if !st.TotalExpenses.Equal(dec("150")) {
		t.Errorf("TotalExpenses = %s, want 150", st.TotalExpenses)
	}
	if !st.RemainingSet {
		t.Fatal("RemainingSet should be true when a budget exists")
	}
	if !st.Remaining.Equal(dec("350")) {
		t.Errorf("Remaining = %s, want 350", st.Remaining)
	}
}

func TestComputeWithoutBudget(t *testing.T) {
	st := Compute(BudgetSnapshot{}, []Expense{{Amount: dec("75")}})
	if !st.TotalExpenses.Equal(dec("75")) {
		t.Errorf("TotalExpenses = %s, want 75", st.TotalExpenses)
	}
	if st.RemainingSet {
		t.Error("RemainingSet should be false without a budget document")
	}
}

func TestComputeEmpty(t *testing.T) {
	st := Compute(BudgetSnapshot{}, nil)
	if !st.TotalExpenses.Equal(decimal.Zero) {
		t.Errorf("TotalExpenses = %s, want 0", st.TotalExpenses)
	}
	if st.RemainingSet || st.Degraded {
		t.Error("empty state should have no remaining and no degraded flag")
	}
}

func TestComputeOverspend(t *testing.T) {
	st := Compute(BudgetSnapshot{Set: true, Amount: dec("100")}, []Expense{
		{Amount: dec("80")},
		{Amount: dec("45.50")},
	})
	if !st.Remaining.Equal(dec("-25.5")) {
		t.Errorf("Remaining = %s, want -25.5", st.Remaining)
	}
}

func TestComputeExactDecimalSums(t *testing.T) {
	// Sums that drift under binary floating point stay exact here.
	expenses := []Expense{
		{Amount: dec("0.1")},
		{Amount: dec("0.2")},
	}
	st := Compute(BudgetSnapshot{Set: true, Amount: dec("1")}, expenses)
	if !st.TotalExpenses.Equal(dec("0.3")) {
		t.Errorf("TotalExpenses = %s, want exactly 0.3", st.TotalExpenses)
	}
	if !st.Remaining.Equal(dec("0.7")) {
		t.Errorf("Remaining = %s, want exactly 0.7", st.Remaining)
	}
}
