package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tripledger/internal/ledger/memory"
	"tripledger/internal/ledger/rest"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RESTBackend:
		return f.createRESTBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRESTBackend(config Config) (*BackendResult, error) {
	client, err := rest.New(config.APIURL, config.Timeout, rest.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger REST client: %w", err)
	}

	f.logger.Info("Initialized REST ledger backend",
		"url", config.APIURL,
		"timeout", config.Timeout)

	return &BackendResult{
		Backend: client,
		Cleanup: nil, // Pooled connections close with the process
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory ledger: %w", err)
	}

	entries, _ := store.ListEntries(context.Background())
	f.logger.Info("Initialized memory ledger backend",
		"seed_file", config.SeedFile,
		"entries", len(entries))

	return &BackendResult{
		Backend: store,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
