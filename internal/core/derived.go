package core

import "github.com/shopspring/decimal"

// State is the derived budget state for the active identity. It is a
// pure function of the latest budget and expense snapshots and has no
// lifecycle of its own.
type State struct {
	Budget        BudgetSnapshot
	Expenses      []Expense
	TotalExpenses decimal.Decimal

	// RemainingSet is false when no budget document exists; Remaining
	// is meaningless in that case even if expenses exist.
	Remaining    decimal.Decimal
	RemainingSet bool

	// Degraded flags that a subscription reported an error and the
	// snapshots may be stale. Data is retained, not discarded.
	Degraded bool
}

// Compute derives totals from whichever combination of latest budget
// and latest expense snapshots is currently held. Synchronous, pure and
// idempotent: the same inputs always produce the same outputs, and the
// sum does not depend on snapshot delivery order.
func Compute(budget BudgetSnapshot, expenses []Expense) State {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	st := State{
		Budget:        budget,
		Expenses:      expenses,
		TotalExpenses: total,
	}
	if budget.Set {
		st.Remaining = budget.Amount.Sub(total)
		st.RemainingSet = true
	}
	return st
}
