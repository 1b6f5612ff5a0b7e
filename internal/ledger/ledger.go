// Package ledger maintains the per-user budget and expense state. It
// follows the active identity reported by the session tracker,
// subscribes to that user's documents in the external store, and
// recomputes derived totals on every snapshot. Mutations write through
// to the store and are reflected locally only once the store notifies
// the corresponding subscription.
package ledger

import (
	"context"
	"strings"
	"sync"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	"github.com/Sophiedev-dev/WiseNkap/internal/events"
	applog "github.com/Sophiedev-dev/WiseNkap/internal/log"
	"github.com/Sophiedev-dev/WiseNkap/internal/session"
	"github.com/Sophiedev-dev/WiseNkap/internal/store"
)

type Ledger struct {
	tracker   *session.Tracker
	store     store.Store
	publisher *events.Publisher // optional, nil disables event publishing
	logger    *applog.Logger

	mu      sync.RWMutex
	current *ledgerSession
}

func New(tracker *session.Tracker, st store.Store, publisher *events.Publisher, logger *applog.Logger) *Ledger {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Ledger{
		tracker:   tracker,
		store:     st,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// Run follows identity transitions until ctx ends. On every transition
// the previous session is torn down before anything new is established:
// both subscriptions canceled, local state cleared. Two identities
// never have live subscriptions at the same time.
func (l *Ledger) Run(ctx context.Context) error {
	ids := l.tracker.Subscribe(ctx)
	defer l.teardown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id, ok := <-ids:
			if !ok {
				return nil
			}
			l.switchTo(ctx, id)
		}
	}
}

func (l *Ledger) switchTo(ctx context.Context, id core.Identity) {
	l.teardown()
	if id.None() {
		return
	}
	l.logger.Info("Session started", applog.FieldUID, id.UID)
	s := startSession(ctx, l.store, id.UID, l.logger)
	l.mu.Lock()
	l.current = s
	l.mu.Unlock()
}

// teardown stops the current session, if any, and clears local state.
// Synchronous: when it returns, the old identity's data is gone and no
// late delivery can resurrect it.
func (l *Ledger) teardown() {
	l.mu.Lock()
	s := l.current
	l.current = nil
	l.mu.Unlock()
	if s == nil {
		return
	}
	s.stop()
	l.logger.Info("Session stopped", applog.FieldUID, s.uid)
}

// State returns the derived state for the active identity, or the
// empty state when nobody is signed in.
func (l *Ledger) State() core.State {
	l.mu.RLock()
	s := l.current
	l.mu.RUnlock()
	if s == nil {
		return core.Compute(core.BudgetSnapshot{}, nil)
	}
	return s.snapshot()
}

func (l *Ledger) activeUID() (core.UserID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return "", false
	}
	return l.current.uid, true
}

// SetBudget parses the raw input and upserts the budget document for
// the active identity. Fire-and-acknowledge: the visible update arrives
// via the budget subscription, not from this call.
func (l *Ledger) SetBudget(ctx context.Context, rawInput string) error {
	amount, err := core.ParseAmount("budget", rawInput)
	if err != nil {
		return err
	}
	uid, ok := l.activeUID()
	if !ok {
		return core.ErrMissingIdentity
	}

	if err := l.store.UpsertBudget(ctx, uid, amount); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Budget updated",
		applog.FieldUID, uid,
		applog.FieldBudget, amount.String())
	l.publish(ctx, events.NewBudgetSet(uid, amount))
	return nil
}

// AddExpense validates the input and inserts a new expense record for
// the active identity. The label survives only for the catch-all
// category; the id and date are assigned by the store.
func (l *Ledger) AddExpense(ctx context.Context, rawAmount, category, rawLabel string) (string, error) {
	uid, ok := l.activeUID()
	if !ok {
		return "", core.ErrMissingIdentity
	}
	if strings.TrimSpace(category) == "" {
		return "", &core.ValidationError{Field: "category", Reason: "required"}
	}
	amount, err := core.ParseAmount("amount", rawAmount)
	if err != nil {
		return "", err
	}

	e := core.Expense{
		Amount:   amount,
		Category: category,
		Label:    core.NormalizeLabel(category, rawLabel),
		UserID:   uid,
	}
	id, err := l.store.InsertExpense(ctx, e)
	if err != nil {
		return "", err
	}

	l.logger.InfoContext(ctx, "Expense recorded",
		applog.FieldUID, uid,
		applog.FieldExpenseID, id,
		applog.FieldCategory, category,
		applog.FieldAmount, amount.String())
	l.publish(ctx, events.NewExpenseAdded(uid, id, amount, category))
	return id, nil
}

// publish never fails the mutation: the store write already succeeded.
func (l *Ledger) publish(ctx context.Context, ev *events.LedgerEvent) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, ev); err != nil {
		l.logger.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldOperation, ev.Kind,
			applog.FieldError, err)
	}
}
