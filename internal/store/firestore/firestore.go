// Package firestore adapts Google Cloud Firestore to the store ports.
// Budgets live in users/{uid}; expenses in the expenses collection,
// filtered by userId and ordered by server-assigned date.
package firestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	"github.com/Sophiedev-dev/WiseNkap/internal/store"
)

const (
	usersCollection    = "users"
	expensesCollection = "expenses"
)

type Client struct {
	fs *firestore.Client
}

// New connects to Firestore for the given project. credentialsFile may
// be empty, in which case application default credentials are used.
func New(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	fs, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Client{fs: fs}, nil
}

func (c *Client) Close() error {
	return c.fs.Close()
}

// UpsertBudget implements store.BudgetWriter with a merge write, so a
// missing user document is created and an existing one keeps its other
// fields.
func (c *Client) UpsertBudget(ctx context.Context, uid core.UserID, amount decimal.Decimal) error {
	_, err := c.fs.Collection(usersCollection).Doc(string(uid)).Set(ctx, map[string]interface{}{
		"budget": amount.InexactFloat64(),
	}, firestore.MergeAll)
	if err != nil {
		return &core.StoreError{Op: "upsert budget", Err: err}
	}
	return nil
}

// InsertExpense implements store.ExpenseWriter. The document id comes
// from Firestore and the date from the server clock, never the client.
func (c *Client) InsertExpense(ctx context.Context, e core.Expense) (string, error) {
	ref, _, err := c.fs.Collection(expensesCollection).Add(ctx, map[string]interface{}{
		"amount":   e.Amount.InexactFloat64(),
		"category": e.Category,
		"label":    e.Label,
		"date":     firestore.ServerTimestamp,
		"userId":   string(e.UserID),
	})
	if err != nil {
		return "", &core.StoreError{Op: "insert expense", Err: err}
	}
	return ref.ID, nil
}

// ObserveBudget implements store.BudgetObserver on top of document
// snapshot listeners.
func (c *Client) ObserveBudget(ctx context.Context, uid core.UserID) (<-chan store.BudgetUpdate, error) {
	it := c.fs.Collection(usersCollection).Doc(string(uid)).Snapshots(ctx)
	out := make(chan store.BudgetUpdate)
	go func() {
		defer close(out)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.ErrorContext(ctx, "Budget snapshot stream failed", "uid", uid, "error", err)
				deliverBudget(ctx, out, store.BudgetUpdate{Err: &core.StoreError{Op: "observe budget", Err: err}})
				return
			}
			deliverBudget(ctx, out, store.BudgetUpdate{Budget: decodeBudget(snap)})
		}
	}()
	return out, nil
}

// ObserveExpenses implements store.ExpenseObserver on top of query
// snapshot listeners. Every notification is a complete result set.
func (c *Client) ObserveExpenses(ctx context.Context, uid core.UserID) (<-chan store.ExpenseUpdate, error) {
	it := c.fs.Collection(expensesCollection).
		Where("userId", "==", string(uid)).
		OrderBy("date", firestore.Desc).
		Snapshots(ctx)
	out := make(chan store.ExpenseUpdate)
	go func() {
		defer close(out)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.ErrorContext(ctx, "Expense snapshot stream failed", "uid", uid, "error", err)
				deliverExpenses(ctx, out, store.ExpenseUpdate{Err: &core.StoreError{Op: "observe expenses", Err: err}})
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				deliverExpenses(ctx, out, store.ExpenseUpdate{Err: &core.StoreError{Op: "observe expenses", Err: err}})
				return
			}
			expenses := make([]core.Expense, 0, len(docs))
			for _, d := range docs {
				expenses = append(expenses, decodeExpense(d))
			}
			deliverExpenses(ctx, out, store.ExpenseUpdate{Expenses: expenses})
		}
	}()
	return out, nil
}

func deliverBudget(ctx context.Context, out chan<- store.BudgetUpdate, upd store.BudgetUpdate) {
	select {
	case out <- upd:
	case <-ctx.Done():
	}
}

func deliverExpenses(ctx context.Context, out chan<- store.ExpenseUpdate, upd store.ExpenseUpdate) {
	select {
	case out <- upd:
	case <-ctx.Done():
	}
}

// decodeBudget treats a missing document and a document without a
// budget field the same way: no budget set.
func decodeBudget(snap *firestore.DocumentSnapshot) core.BudgetSnapshot {
	if !snap.Exists() {
		return core.BudgetSnapshot{}
	}
	v, ok := snap.Data()["budget"]
	if !ok {
		return core.BudgetSnapshot{}
	}
	amount, ok := asDecimal(v)
	if !ok {
		return core.BudgetSnapshot{}
	}
	return core.BudgetSnapshot{Set: true, Amount: amount}
}

func decodeExpense(d *firestore.DocumentSnapshot) core.Expense {
	data := d.Data()
	e := core.Expense{ID: d.Ref.ID}
	if v, ok := asDecimal(data["amount"]); ok {
		e.Amount = v
	}
	if s, ok := data["category"].(string); ok {
		e.Category = s
	}
	if s, ok := data["label"].(string); ok {
		e.Label = s
	}
	// A locally-pending server timestamp reads back as nil until the
	// write is acknowledged; the zero time stands in for it.
	if ts, ok := data["date"].(time.Time); ok {
		e.Date = ts
	}
	if s, ok := data["userId"].(string); ok {
		e.UserID = core.UserID(s)
	}
	return e
}

func asDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		return decimal.Zero, false
	}
}
