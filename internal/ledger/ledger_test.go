package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	"github.com/Sophiedev-dev/WiseNkap/internal/session"
	"github.com/Sophiedev-dev/WiseNkap/internal/store"
	"github.com/Sophiedev-dev/WiseNkap/internal/store/memory"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func newTestLedger(t *testing.T, st store.Store) (*Ledger, *session.Tracker, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tracker := session.NewTracker(nil)
	led := New(tracker, st, nil, nil)
	go func() { _ = led.Run(ctx) }()
	return led, tracker, ctx
}

func signIn(t *testing.T, led *Ledger, tracker *session.Tracker, uid string) {
	t.Helper()
	tracker.Set(core.Identity{UID: core.UserID(uid)})
	require.Eventually(t, func() bool {
		active, ok := led.activeUID()
		return ok && active == core.UserID(uid)
	}, waitFor, tick, "session for %s never became active", uid)
}

func TestDerivedTotalsFollowWrites(t *testing.T) {
	led, tracker, ctx := newTestLedger(t, memory.New())
	signIn(t, led, tracker, "u1")

	require.NoError(t, led.SetBudget(ctx, "500"))
	_, err := led.AddExpense(ctx, "120", "Nourriture", "")
	require.NoError(t, err)
	_, err = led.AddExpense(ctx, "30", "Transport", "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(led.State().Expenses) == 2 && led.State().Budget.Set
	}, waitFor, tick)

	st := led.State()
	assert.True(t, st.Budget.Amount.Equal(decimal.NewFromInt(500)))
	assert.True(t, st.TotalExpenses.Equal(decimal.NewFromInt(150)), "total = %s", st.TotalExpenses)
	assert.True(t, st.RemainingSet)
	assert.True(t, st.Remaining.Equal(decimal.NewFromInt(350)), "remaining = %s", st.Remaining)
	assert.False(t, st.Degraded)
}

func TestRemainingUnsetWithoutBudget(t *testing.T) {
	led, tracker, ctx := newTestLedger(t, memory.New())
	signIn(t, led, tracker, "u1")

	_, err := led.AddExpense(ctx, "75", "Boisson", "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(led.State().Expenses) == 1
	}, waitFor, tick)

	st := led.State()
	assert.False(t, st.Budget.Set)
	assert.False(t, st.RemainingSet)
	assert.True(t, st.TotalExpenses.Equal(decimal.NewFromInt(75)))
}

func TestLabelKeptOnlyForCatchAllCategory(t *testing.T) {
	led, tracker, ctx := newTestLedger(t, memory.New())
	signIn(t, led, tracker, "u1")

	_, err := led.AddExpense(ctx, "25.50", "Autres", "Café")
	require.NoError(t, err)
	_, err = led.AddExpense(ctx, "10", "Loyer", "Café")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(led.State().Expenses) == 2
	}, waitFor, tick)

	labels := map[string]string{}
	for _, e := range led.State().Expenses {
		labels[e.Category] = e.Label
	}
	assert.Equal(t, "Café", labels["Autres"])
	assert.Equal(t, "", labels["Loyer"])
}

func TestValidationFailuresWriteNothing(t *testing.T) {
	led, tracker, ctx := newTestLedger(t, memory.New())
	signIn(t, led, tracker, "u1")

	assert.True(t, core.IsValidation(led.SetBudget(ctx, "abc")))
	assert.True(t, core.IsValidation(led.SetBudget(ctx, "")))

	_, err := led.AddExpense(ctx, "", "Loyer", "")
	assert.True(t, core.IsValidation(err))
	_, err = led.AddExpense(ctx, "12x", "Loyer", "")
	assert.True(t, core.IsValidation(err))
	_, err = led.AddExpense(ctx, "10", "", "")
	assert.True(t, core.IsValidation(err))

	// A sentinel write proves the rejected inputs left no trace.
	_, err = led.AddExpense(ctx, "1", "Loyer", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(led.State().Expenses) == 1
	}, waitFor, tick)

	st := led.State()
	assert.False(t, st.Budget.Set)
	assert.True(t, st.TotalExpenses.Equal(decimal.NewFromInt(1)))
}

func TestMutationsRequireIdentity(t *testing.T) {
	led, _, ctx := newTestLedger(t, memory.New())

	err := led.SetBudget(ctx, "100")
	assert.ErrorIs(t, err, core.ErrMissingIdentity)

	// Budget input is parsed before the identity check.
	assert.True(t, core.IsValidation(led.SetBudget(ctx, "abc")))

	// Expense identity is checked before input validation.
	_, err = led.AddExpense(ctx, "abc", "Loyer", "")
	assert.ErrorIs(t, err, core.ErrMissingIdentity)
}

func TestZeroAndNegativeAmountsAccepted(t *testing.T) {
	led, tracker, ctx := newTestLedger(t, memory.New())
	signIn(t, led, tracker, "u1")

	_, err := led.AddExpense(ctx, "0", "Transport", "")
	require.NoError(t, err)
	_, err = led.AddExpense(ctx, "-20", "Autres", "Remboursement")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(led.State().Expenses) == 2
	}, waitFor, tick)
	assert.True(t, led.State().TotalExpenses.Equal(decimal.NewFromInt(-20)))
}

func TestIdentitySwitchIsolatesState(t *testing.T) {
	led, tracker, ctx := newTestLedger(t, memory.New())
	signIn(t, led, tracker, "u1")

	require.NoError(t, led.SetBudget(ctx, "500"))
	_, err := led.AddExpense(ctx, "100", "Loyer", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(led.State().Expenses) == 1 && led.State().Budget.Set
	}, waitFor, tick)

	signIn(t, led, tracker, "u2")

	require.Eventually(t, func() bool {
		st := led.State()
		return !st.Budget.Set && len(st.Expenses) == 0
	}, waitFor, tick, "u1 data leaked into u2's session")

	_, err = led.AddExpense(ctx, "40", "Habit", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(led.State().Expenses) == 1
	}, waitFor, tick)
	assert.Equal(t, core.UserID("u2"), led.State().Expenses[0].UserID)
}

func TestSignOutTearsDownSession(t *testing.T) {
	led, tracker, ctx := newTestLedger(t, memory.New())
	signIn(t, led, tracker, "u1")

	require.NoError(t, led.SetBudget(ctx, "500"))
	require.Eventually(t, func() bool {
		return led.State().Budget.Set
	}, waitFor, tick)

	tracker.Clear()

	require.Eventually(t, func() bool {
		_, ok := led.activeUID()
		return !ok
	}, waitFor, tick)

	st := led.State()
	assert.False(t, st.Budget.Set)
	assert.Empty(t, st.Expenses)

	err := led.SetBudget(ctx, "100")
	assert.ErrorIs(t, err, core.ErrMissingIdentity)
}

// failingBudgetStore refuses the budget subscription but otherwise
// behaves like the memory store.
type failingBudgetStore struct {
	*memory.Store
}

func (s *failingBudgetStore) ObserveBudget(_ context.Context, _ core.UserID) (<-chan store.BudgetUpdate, error) {
	return nil, errors.New("stream unavailable")
}

func TestSubscriptionFailureDegradesButRetainsData(t *testing.T) {
	led, tracker, ctx := newTestLedger(t, &failingBudgetStore{Store: memory.New()})
	signIn(t, led, tracker, "u1")

	require.Eventually(t, func() bool {
		return led.State().Degraded
	}, waitFor, tick)

	// The expense stream still works while the budget one is down.
	_, err := led.AddExpense(ctx, "15", "Boisson", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(led.State().Expenses) == 1
	}, waitFor, tick)
	assert.True(t, led.State().Degraded)
}

func TestStateEmptyWithoutSession(t *testing.T) {
	led, _, _ := newTestLedger(t, memory.New())

	st := led.State()
	assert.False(t, st.Budget.Set)
	assert.False(t, st.RemainingSet)
	assert.Empty(t, st.Expenses)
	assert.True(t, st.TotalExpenses.Equal(decimal.Zero))
}
