package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/file"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunSessionStoreContract(t, store)
}

func TestFileStore_NoTempFileLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	session := domain.NewSession("s1", domain.ModeStandard, "10", "0xabc", false)
	require.NoError(t, store.Save(ctx, "s1", session))
	require.NoError(t, store.Save(ctx, "s1", session), "overwrite goes through the same atomic path")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.json", entries[0].Name())
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewSession("s1", domain.ModeStandard, "10", "0xabc", false)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}
