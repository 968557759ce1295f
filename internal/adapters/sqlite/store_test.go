package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/sqlite"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/ports"
)

func TestSqliteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunSessionStoreContract(t, store)
}

func TestSqliteStore_OpenRejectsEmptyPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestSqliteStore_Reopen(t *testing.T) {
	// Records survive a close/reopen cycle, which is the whole point of
	// the durable store.
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)

	session := domain.NewSession("survivor", domain.ModeSmartAccount, "10", "0xabc", true)
	session.UserOpHash = "0xuserop"
	require.NoError(t, store.Save(ctx, session.ID, session))
	require.NoError(t, store.Close())

	store, err = sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	loaded, err := store.Load(ctx, "survivor")
	require.NoError(t, err)
	assert.Equal(t, "0xuserop", loaded.UserOpHash)
	assert.Equal(t, domain.ModeSmartAccount, loaded.Mode)
}
