package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripledger/internal/config"
	"tripledger/internal/ledger/memory"
	"tripledger/internal/ledger/rest"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		LedgerBackend:    "rest",
		LedgerAPIURL:     "https://ledger.example.com/api",
		LedgerAPITimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, Config{Type: RESTBackend, APIURL: "https://ledger.example.com/api", Timeout: 5 * time.Second}, cfg)

	_, err = FromAppConfig(&config.Config{LedgerBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory without seed", Config{Type: MemoryBackend}, false},
		{"rest", Config{Type: RESTBackend, APIURL: "http://localhost:9000", Timeout: time.Second}, false},
		{"rest without url", Config{Type: RESTBackend, Timeout: time.Second}, true},
		{"rest without timeout", Config{Type: RESTBackend, APIURL: "http://localhost:9000"}, true},
		{"unknown type", Config{Type: "sqlite"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	factory := NewFactory(nil)
	ctx := context.Background()

	t.Run("memory seeded from file", func(t *testing.T) {
		seed := filepath.Join(t.TempDir(), "ledger.json")
		require.NoError(t, os.WriteFile(seed, []byte(`[
			{"id": 1, "plate_number": "XYZ 001", "date": "2024-01-05", "account_type": "Hauling Income", "final_total": "1000"},
			{"id": 2, "plate_number": "XYZ001", "date": "2024-01-05", "account_type": {"id": 4, "name": "Driver's Allowance"}, "final_total": 500}
		]`), 0o644))

		res, err := factory.CreateBackend(ctx, Config{Type: MemoryBackend, SeedFile: seed})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, res.Backend)

		entries, err := res.Backend.ListEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("memory with missing seed", func(t *testing.T) {
		_, err := factory.CreateBackend(ctx, Config{Type: MemoryBackend, SeedFile: "/does/not/exist.json"})
		assert.Error(t, err)
	})

	t.Run("rest", func(t *testing.T) {
		res, err := factory.CreateBackend(ctx, Config{Type: RESTBackend, APIURL: "http://localhost:9000/", Timeout: time.Second})
		require.NoError(t, err)
		assert.IsType(t, &rest.Client{}, res.Backend)
		assert.Nil(t, res.Cleanup)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := factory.CreateBackend(ctx, Config{Type: RESTBackend})
		assert.Error(t, err)
	})
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"rest", "memory"}, GetBackendTypeStrings())
}
