package backend

import (
	"context"
	"fmt"
	"time"

	"pitaka/internal/log"
	"pitaka/internal/storage"
	"pitaka/internal/store/memory"
	"pitaka/internal/store/mongo"
)

const mongoDisconnectTimeout = 10 * time.Second

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	st, err := mongo.Open(ctx, config.MongoURI, config.MongoDatabase, config.AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend",
		"database", config.MongoDatabase,
		"namespace", config.AppName)

	return &BackendResult{
		Store: st,
		Cleanup: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
			defer cancel()
			return st.Close(ctx)
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Warn("Initialized memory backend, records are lost on restart")

	return &BackendResult{
		Store:   memory.New(),
		Cleanup: nil,
	}, nil
}
