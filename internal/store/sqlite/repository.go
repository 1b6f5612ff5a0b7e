// Package sqlite persists budgets and expenses in a local SQLite
// database and emits full-snapshot change notifications to in-process
// subscribers. Useful for development and single-node deployments
// where the hosted document store is not available.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	"github.com/Sophiedev-dev/WiseNkap/internal/store"
)

// timeLayout matches the strftime format the schema assigns to
// created_at. Always UTC.
const timeLayout = "2006-01-02T15:04:05.999Z"

type subscriber struct {
	uid      core.UserID
	expenses bool
	notify   chan struct{}
}

type Repository struct {
	db *sql.DB

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:   db,
		subs: make(map[*subscriber]struct{}),
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertBudget implements store.BudgetWriter.
func (r *Repository) UpsertBudget(ctx context.Context, uid core.UserID, amount decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (uid, budget) VALUES (?, ?)
		 ON CONFLICT (uid) DO UPDATE SET budget = excluded.budget`,
		string(uid), amount.String())
	if err != nil {
		return &core.StoreError{Op: "upsert budget", Err: err}
	}

	slog.InfoContext(ctx, "Budget saved", "uid", uid, "budget", amount.String())
	r.wake(uid, false)
	return nil
}

// InsertExpense implements store.ExpenseWriter. The id and creation
// timestamp are assigned by the database.
func (r *Repository) InsertExpense(ctx context.Context, e core.Expense) (string, error) {
	var (
		id        int64
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (user_id, amount, category, label)
		 VALUES (?, ?, ?, ?)
		 RETURNING id, created_at`,
		string(e.UserID), e.Amount.String(), e.Category, e.Label).
		Scan(&id, &createdAt)
	if err != nil {
		return "", &core.StoreError{Op: "insert expense", Err: err}
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"uid", e.UserID,
		"category", e.Category,
		"amount", e.Amount.String())

	r.wake(e.UserID, true)
	return strconv.FormatInt(id, 10), nil
}

// ObserveBudget implements store.BudgetObserver.
func (r *Repository) ObserveBudget(ctx context.Context, uid core.UserID) (<-chan store.BudgetUpdate, error) {
	sub := r.subscribe(uid, false)
	out := make(chan store.BudgetUpdate)
	go func() {
		defer close(out)
		defer r.unsubscribe(sub)
		for {
			snap, err := r.readBudget(ctx, uid)
			if err != nil && ctx.Err() != nil {
				return
			}
			upd := store.BudgetUpdate{Budget: snap, Err: err}
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
func (r *Repository) ObserveExpenses(ctx context.Context, uid core.UserID) (<-chan store.ExpenseUpdate, error) {
	sub := r.subscribe(uid, true)
	out := make(chan store.ExpenseUpdate)
	go func() {
		defer close(out)
		defer r.unsubscribe(sub)
		for {
			snap, err := r.readExpenses(ctx, uid)
			if err != nil && ctx.Err() != nil {
				return
			}
			upd := store.ExpenseUpdate{Expenses: snap, Err: err}
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

func (r *Repository) readBudget(ctx context.Context, uid core.UserID) (core.BudgetSnapshot, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT budget FROM users WHERE uid = ?`, string(uid)).Scan(&raw)
	if err == sql.ErrNoRows {
		// Absence of a budget document is not an error.
		return core.BudgetSnapshot{}, nil
	}
	if err != nil {
		return core.BudgetSnapshot{}, &core.StoreError{Op: "read budget", Err: err}
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return core.BudgetSnapshot{}, &core.StoreError{Op: "read budget", Err: fmt.Errorf("decode %q: %w", raw, err)}
	}
	return core.BudgetSnapshot{Set: true, Amount: v}, nil
}

func (r *Repository) readExpenses(ctx context.Context, uid core.UserID) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount, category, label, created_at
		 FROM expenses
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`, string(uid))
	if err != nil {
		return nil, &core.StoreError{Op: "read expenses", Err: err}
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			id        int64
			userID    string
			rawAmount string
			e         core.Expense
			createdAt string
		)
		if err := rows.Scan(&id, &userID, &rawAmount, &e.Category, &e.Label, &createdAt); err != nil {
			return nil, &core.StoreError{Op: "read expenses", Err: err}
		}
		e.ID = strconv.FormatInt(id, 10)
		e.UserID = core.UserID(userID)
		if e.Amount, err = decimal.NewFromString(rawAmount); err != nil {
			return nil, &core.StoreError{Op: "read expenses", Err: fmt.Errorf("decode amount %q: %w", rawAmount, err)}
		}
		if e.Date, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, &core.StoreError{Op: "read expenses", Err: fmt.Errorf("decode created_at %q: %w", createdAt, err)}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "read expenses", Err: err}
	}
	return out, nil
}

func (r *Repository) subscribe(uid core.UserID, expenses bool) *subscriber {
	sub := &subscriber{uid: uid, expenses: expenses, notify: make(chan struct{}, 1)}
	r.mu.Lock()
	r.subs[sub] = struct{}{}
	r.mu.Unlock()
	return sub
}

func (r *Repository) unsubscribe(sub *subscriber) {
	r.mu.Lock()
	delete(r.subs, sub)
	r.mu.Unlock()
}

func (r *Repository) wake(uid core.UserID, expenses bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sub := range r.subs {
		if sub.uid != uid || sub.expenses != expenses {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}
