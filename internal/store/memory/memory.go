// Package memory provides an in-process document store with push-based
// change notification. It is the default development backend and the
// primary test double for the real Firestore adapter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	"github.com/Sophiedev-dev/WiseNkap/internal/store"
)

type record struct {
	exp core.Expense
	seq int64
}

type subscriber struct {
	uid      core.UserID
	expenses bool
	notify   chan struct{}
}

type Store struct {
	mu      sync.Mutex
	budgets map[core.UserID]decimal.Decimal
	records []record
	seq     int64
	subs    map[*subscriber]struct{}

	now func() time.Time
}

func New() *Store {
	return &Store{
		budgets: make(map[core.UserID]decimal.Decimal),
		subs:    make(map[*subscriber]struct{}),
		now:     time.Now,
	}
}

// UpsertBudget implements store.BudgetWriter.
func (s *Store) UpsertBudget(_ context.Context, uid core.UserID, amount decimal.Decimal) error {
	if uid == "" {
		return &core.StoreError{Op: "upsert budget", Err: fmt.Errorf("empty uid")}
	}
	s.mu.Lock()
	s.budgets[uid] = amount
	s.mu.Unlock()
	s.wake(uid, false)
	return nil
}

// InsertExpense implements store.ExpenseWriter. The id and creation
// timestamp are assigned here, never taken from the caller.
func (s *Store) InsertExpense(_ context.Context, e core.Expense) (string, error) {
	if e.UserID == "" {
		return "", &core.StoreError{Op: "insert expense", Err: fmt.Errorf("empty uid")}
	}
	s.mu.Lock()
	s.seq++
	e.ID = fmt.Sprintf("mem:%d", s.seq)
	e.Date = s.now()
	s.records = append(s.records, record{exp: e, seq: s.seq})
	id := e.ID
	s.mu.Unlock()
	s.wake(e.UserID, true)
	return id, nil
}

// ObserveBudget implements store.BudgetObserver.
func (s *Store) ObserveBudget(ctx context.Context, uid core.UserID) (<-chan store.BudgetUpdate, error) {
	sub := s.subscribe(uid, false)
	out := make(chan store.BudgetUpdate)
	go func() {
		defer close(out)
		defer s.unsubscribe(sub)
		for {
			upd := store.BudgetUpdate{Budget: s.budgetSnapshot(uid)}
			select {
			case out <- upd:
			case <-ctx.Done():
				return
			}
			select {
			case <-sub.notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ObserveExpenses implements store.ExpenseObserver.
func (s *Store) ObserveExpenses(ctx context.Context, uid core.UserID) (<-chan store.ExpenseUpdate, error) {
	sub := s.subscribe(uid, true)
	out := make(chan store.ExpenseUpdate)
	go func() {
		defer close(out)
		defer s.unsubscribe(sub)
		for {
			upd := store.ExpenseUpdate{Expenses: s.expenseSnapshot(uid)}
			select {
			case out <- upd:
			case <-ctx.Done():
				return
			}
			select {
			case <-sub.notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Store) budgetSnapshot(uid core.UserID) core.BudgetSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.budgets[uid]
	if !ok {
		return core.BudgetSnapshot{}
	}
	return core.BudgetSnapshot{Set: true, Amount: v}
}

func (s *Store) expenseSnapshot(uid core.UserID) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recs []record
	for _, r := range s.records {
		if r.exp.UserID == uid {
			recs = append(recs, r)
		}
	}
	// Date descending; insertion order breaks same-instant ties.
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].exp.Date.Equal(recs[j].exp.Date) {
			return recs[i].seq > recs[j].seq
		}
		return recs[i].exp.Date.After(recs[j].exp.Date)
	})
	out := make([]core.Expense, len(recs))
	for i, r := range recs {
		out[i] = r.exp
	}
	return out
}

func (s *Store) subscribe(uid core.UserID, expenses bool) *subscriber {
	sub := &subscriber{uid: uid, expenses: expenses, notify: make(chan struct{}, 1)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *Store) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

// wake signals every subscriber watching uid. The notify channel has a
// one-slot buffer so a signal arriving while the subscriber is busy
// sending is retained, and consecutive writes coalesce into a single
// fresh snapshot.
func (s *Store) wake(uid core.UserID, expenses bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		if sub.uid != uid || sub.expenses != expenses {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}
