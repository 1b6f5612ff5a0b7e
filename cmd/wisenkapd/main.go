package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sophiedev-dev/WiseNkap/internal/backend"
	"github.com/Sophiedev-dev/WiseNkap/internal/cli"
	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	"github.com/Sophiedev-dev/WiseNkap/internal/events"
	"github.com/Sophiedev-dev/WiseNkap/internal/identity/firebaseauth"
	"github.com/Sophiedev-dev/WiseNkap/internal/ledger"
	applog "github.com/Sophiedev-dev/WiseNkap/internal/log"
	"github.com/Sophiedev-dev/WiseNkap/internal/session"
)

func main() {
	cli.LoadEnvFile()

	bootLogger := cli.SetupLogger(slog.LevelInfo, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.SlogLevel(), applog.ComponentApp)

	logger.Info("Starting wisenkapd", applog.FieldBackend, cfg.DataBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document store
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	storeRes, err := backend.NewFactory(logger.Logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize document store", applog.FieldError, err)
		os.Exit(1)
	}
	if storeRes.Cleanup != nil {
		defer func() {
			if err := storeRes.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", applog.FieldError, err)
			}
		}()
	}

	// Ledger event publishing (optional)
	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP publisher, continuing without events", applog.FieldError, err)
		} else {
			defer publisher.Close()
			logger.Info("Initialized AMQP publisher",
				applog.FieldExchange, cfg.AMQPExchange,
				applog.FieldQueue, cfg.AMQPQueue)
		}
	}

	tracker := session.NewTracker(logger)
	led := ledger.New(tracker, storeRes.Store, publisher, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return led.Run(gctx)
	})
	g.Go(func() error {
		return reportState(gctx, led, tracker, logger)
	})

	// Establish the identity to follow: a verified Firebase token when
	// one is provided, otherwise a plain uid for development backends.
	if token := os.Getenv("FIREBASE_ID_TOKEN"); token != "" && cfg.FirestoreProjectID != "" {
		provider, err := firebaseauth.New(ctx, cfg.FirestoreProjectID, cfg.CredentialsFile, tracker, logger)
		if err != nil {
			logger.Error("Failed to initialize Firebase auth", applog.FieldError, err)
			os.Exit(1)
		}
		if _, err := provider.SignIn(ctx, token); err != nil {
			logger.Error("Sign-in failed", applog.FieldError, err)
			os.Exit(1)
		}
	} else if uid := os.Getenv("WATCH_UID"); uid != "" {
		tracker.Set(core.Identity{
			UID:         core.UserID(uid),
			DisplayName: os.Getenv("WATCH_DISPLAY_NAME"),
		})
	} else {
		logger.Warn("No identity configured, waiting for sign-in (set WATCH_UID or FIREBASE_ID_TOKEN)")
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Daemon stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Daemon stopped gracefully")
}

// reportState periodically logs the derived state for the identity
// being followed.
func reportState(ctx context.Context, led *ledger.Ledger, tracker *session.Tracker, logger *applog.Logger) error {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			id := tracker.Current()
			if id.None() {
				continue
			}
			st := led.State()
			remaining := "unset"
			if st.RemainingSet {
				remaining = st.Remaining.String()
			}
			logger.Info("Ledger state",
				applog.FieldUID, id.UID,
				"expenses", len(st.Expenses),
				"total_expenses", st.TotalExpenses.String(),
				"remaining", remaining,
				"degraded", st.Degraded)
		}
	}
}
