package ledger

import (
	"context"
	"sync"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	applog "github.com/Sophiedev-dev/WiseNkap/internal/log"
	"github.com/Sophiedev-dev/WiseNkap/internal/store"
)

// ledgerSession owns everything scoped to one signed-in identity: the
// two store subscriptions, the latest snapshots, and the derived state.
// All snapshot mutation happens on the pump goroutine; operations only
// write through to the store and wait for the store's own notification
// (write-then-observe).
type ledgerSession struct {
	uid    core.UserID
	logger *applog.Logger
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.RWMutex
	budget   core.BudgetSnapshot
	expenses []core.Expense
	degraded bool
	state    core.State
}

func startSession(parent context.Context, st store.Store, uid core.UserID, logger *applog.Logger) *ledgerSession {
	ctx, cancel := context.WithCancel(parent)
	s := &ledgerSession{
		uid:    uid,
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.state = core.Compute(s.budget, s.expenses)

	budgetCh, err := st.ObserveBudget(ctx, uid)
	if err != nil {
		logger.Error("Budget subscription failed", applog.FieldUID, uid, applog.FieldError, err)
		budgetCh = nil
		s.markDegraded()
	}
	expenseCh, err := st.ObserveExpenses(ctx, uid)
	if err != nil {
		logger.Error("Expense subscription failed", applog.FieldUID, uid, applog.FieldError, err)
		expenseCh = nil
		s.markDegraded()
	}

	go s.pump(ctx, budgetCh, expenseCh)
	return s
}

// pump is the session's single execution context. The two streams stay
// independent: whichever combination of latest budget and latest
// expenses is held feeds the recompute.
func (s *ledgerSession) pump(ctx context.Context, budgetCh <-chan store.BudgetUpdate, expenseCh <-chan store.ExpenseUpdate) {
	defer close(s.done)
	for budgetCh != nil || expenseCh != nil {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-budgetCh:
			if !ok {
				budgetCh = nil
				continue
			}
			if upd.Err != nil {
				s.logger.Error("Budget stream degraded", applog.FieldUID, s.uid, applog.FieldError, upd.Err)
				s.markDegraded()
				continue
			}
			s.setBudget(upd.Budget)
		case upd, ok := <-expenseCh:
			if !ok {
				expenseCh = nil
				continue
			}
			if upd.Err != nil {
				s.logger.Error("Expense stream degraded", applog.FieldUID, s.uid, applog.FieldError, upd.Err)
				s.markDegraded()
				continue
			}
			s.setExpenses(upd.Expenses)
		}
	}
}

// stop synchronously cancels both subscriptions and waits for the pump
// to exit. Once it returns, no further delivery can mutate the session.
func (s *ledgerSession) stop() {
	s.cancel()
	<-s.done
}

func (s *ledgerSession) setBudget(b core.BudgetSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = b
	s.recompute()
}

func (s *ledgerSession) setExpenses(expenses []core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Full-snapshot replace, never an incremental patch.
	s.expenses = expenses
	s.recompute()
}

func (s *ledgerSession) markDegraded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = true
	s.recompute()
}

// recompute must run with s.mu held.
func (s *ledgerSession) recompute() {
	s.state = core.Compute(s.budget, s.expenses)
	s.state.Degraded = s.degraded
}

func (s *ledgerSession) snapshot() core.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Expenses = append([]core.Expense(nil), s.state.Expenses...)
	return st
}
