package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_ReachesExpectedVersion(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
	assert.Equal(t, len(migrations), ExpectedSchemaVersion)
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	require.NoError(t, store.Migrate(context.Background()))

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrate_CreatesTables(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, table := range []string{
		"categories", "payment_methods", "patterns", "transactions",
		"classification_logs", "manual_override_logs",
	} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}
}

func TestMigrate_NilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // testing nil context handling
	assert.ErrorIs(t, store.Migrate(nil), ErrNilContext)
}
