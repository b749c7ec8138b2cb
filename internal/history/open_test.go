package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     domain.HistoryConfig
		wantErr bool
	}{
		{
			name: "memory",
			cfg:  domain.HistoryConfig{Backend: domain.BackendMemory},
		},
		{
			name: "sqlite",
			cfg: domain.HistoryConfig{
				Backend:    domain.BackendSQLite,
				SQLitePath: filepath.Join(t.TempDir(), "history.db"),
				MaxEntries: 5,
			},
		},
		{
			name:    "sqlite without path",
			cfg:     domain.HistoryConfig{Backend: domain.BackendSQLite},
			wantErr: true,
		},
		{
			name:    "postgres without url",
			cfg:     domain.HistoryConfig{Backend: domain.BackendPostgres},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			cfg:     domain.HistoryConfig{Backend: "etcd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, tt.cfg, newTestLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()

			store.Add(ctx, result(domain.NoACLF, 6))
			assert.Equal(t, 1, store.Len())
		})
	}
}

func TestOpen_SQLiteMaxEntries(t *testing.T) {
	ctx := context.Background()
	cfg := domain.HistoryConfig{
		Backend:    domain.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "history.db"),
		MaxEntries: 3,
	}

	store, err := Open(ctx, cfg, newTestLogger())
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 5; i++ {
		store.Add(ctx, result(domain.NoACLF, i))
	}
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 3, store.MaxEntries())
}
