package backend

import (
	"context"
	"fmt"
	"log/slog"

	fsstore "github.com/Sophiedev-dev/WiseNkap/internal/store/firestore"
	"github.com/Sophiedev-dev/WiseNkap/internal/store/memory"
	"github.com/Sophiedev-dev/WiseNkap/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new store factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryStore()
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case FirestoreBackend:
		return f.createFirestoreStore(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryStore() (*StoreResult, error) {
	f.logger.Info("Initialized memory backend")
	return &StoreResult{
		Store:   memory.New(),
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*StoreResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &StoreResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createFirestoreStore(ctx context.Context, config Config) (*StoreResult, error) {
	cli, err := fsstore.New(ctx, config.FirestoreProjectID, config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore client: %w", err)
	}

	f.logger.Info("Initialized Firestore backend", "project_id", config.FirestoreProjectID)

	return &StoreResult{
		Store:   cli,
		Cleanup: cli.Close,
	}, nil
}
