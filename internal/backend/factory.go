package backend

import (
	"context"
	"fmt"
	"log/slog"

	"saldo/internal/amqp"
	"saldo/internal/events"
	"saldo/internal/services"
	"saldo/internal/store"
	"saldo/internal/store/memory"
	"saldo/internal/store/postgres"
	"saldo/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	bus    *events.Bus
}

// NewFactory creates a backend factory. Services it builds announce changes on bus.
func NewFactory(logger *slog.Logger, bus *events.Bus) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, bus: bus}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		s   store.Store
		err error
	)
	switch config.Type {
	case MemoryBackend:
		s = f.createMemoryStore(config)
	case SQLiteBackend:
		s, err = sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case PostgresBackend:
		s, err = postgres.NewStore(ctx, config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without publishing", "error", err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(s, publisher, f.bus)
	return &BackendResult{Service: svc, Cleanup: svc.Close}, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) store.Store {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	s := memory.NewFromFiles(dataDir, config.Registry)
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return s
}
