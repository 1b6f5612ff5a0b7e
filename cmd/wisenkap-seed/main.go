package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/Sophiedev-dev/WiseNkap/internal/backend"
	"github.com/Sophiedev-dev/WiseNkap/internal/cli"
	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	applog "github.com/Sophiedev-dev/WiseNkap/internal/log"
)

// Demo data inserted for a user. Labels only survive on the free-form
// category, so most entries leave them empty.
var seedExpenses = []struct {
	amount   string
	category string
	label    string
}{
	{"45000", "Loyer", ""},
	{"12500.50", "Nourriture", ""},
	{"1500", "Boisson", ""},
	{"8000", "Habit", ""},
	{"3200", "Transport", ""},
	{"10000", "Connexion", ""},
	{"2750", "Autres", "Cadeau anniversaire"},
}

func main() {
	var (
		uid    = flag.String("uid", "demo-user", "user id to seed")
		budget = flag.String("budget", "150000", "budget amount to set")
		count  = flag.Int("count", len(seedExpenses), "number of demo expenses to insert")
	)
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(slog.LevelInfo, applog.ComponentSeed)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		fail(logger, "Invalid backend configuration", err)
	}
	if backendCfg.Type == backend.MemoryBackend {
		fail(logger, "Seeding requires a persistent backend", fmt.Errorf("backend %q does not persist", backendCfg.Type))
	}
	storeRes, err := backend.NewFactory(logger.Logger).CreateStore(ctx, backendCfg)
	if err != nil {
		fail(logger, "Failed to initialize document store", err)
	}
	defer func() {
		if storeRes.Cleanup != nil {
			_ = storeRes.Cleanup()
		}
	}()

	userID := core.UserID(*uid)

	amount, err := decimal.NewFromString(*budget)
	if err != nil {
		fail(logger, "Invalid budget amount", err)
	}
	if err := storeRes.Store.UpsertBudget(ctx, userID, amount); err != nil {
		fail(logger, "Failed to set budget", err)
	}
	logger.Info("Budget set", applog.FieldUID, userID, applog.FieldBudget, amount.String())

	n := *count
	if n > len(seedExpenses) {
		n = len(seedExpenses)
	}
	for _, s := range seedExpenses[:n] {
		amt, err := core.ParseAmount("amount", s.amount)
		if err != nil {
			fail(logger, "Invalid seed expense", err)
		}
		id, err := storeRes.Store.InsertExpense(ctx, core.Expense{
			Amount:   amt,
			Category: s.category,
			Label:    core.NormalizeLabel(s.category, s.label),
			UserID:   userID,
		})
		if err != nil {
			fail(logger, "Failed to insert expense", err)
		}
		logger.Info("Expense inserted",
			applog.FieldExpenseID, id,
			applog.FieldCategory, s.category,
			applog.FieldAmount, amt.String())
	}

	logger.Info("Seeding complete", applog.FieldUID, userID, "expenses", n)
}

func fail(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, applog.FieldError, err)
	os.Exit(1)
}
