package validatormanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/keystorefile"
	"github.com/tos-network/tos-signer/log"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/signing"
	"github.com/tos-network/tos-signer/slashing"
)

func newTestManager(t *testing.T) (*Manager, *registry.Registry, *slashing.Store) {
	t.Helper()
	ctx := context.Background()

	reg := registry.New(log.Root())
	reg.Start(ctx)
	t.Cleanup(reg.Stop)

	store, err := slashing.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(reg, store), reg, store
}

func TestAddThenDeleteValidator(t *testing.T) {
	mgr, reg, _ := newTestManager(t)
	ctx := context.Background()
	dir := t.TempDir()

	key, err := bls.Generate()
	require.NoError(t, err)
	s := signing.NewBLSSigner(key)
	triple := keystorefile.ForPublicKey(dir, s.Identifier())

	require.NoError(t, mgr.AddValidator(ctx, s, triple, key.Bytes(), "BLS", "password123", ""))
	_, ok := reg.Get(s.Identifier())
	require.True(t, ok)
	require.FileExists(t, triple.KeystorePath)

	result := mgr.Delete(ctx, s.Identifier(), triple)
	require.Equal(t, StatusDeleted, result.Status)
	require.NotNil(t, result.Export)

	_, ok = reg.Get(s.Identifier())
	require.False(t, ok)
	require.NoFileExists(t, triple.KeystorePath)
}

func TestDeleteUnknownIsNotFound(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	triple := keystorefile.ForPublicKey(t.TempDir(), "deadbeef")
	result := mgr.Delete(context.Background(), "0xdeadbeef", triple)
	require.Equal(t, StatusNotFound, result.Status)
}

func TestDeletePreservesEnabledFlagOnFailure(t *testing.T) {
	mgr, reg, store := newTestManager(t)
	ctx := context.Background()
	dir := t.TempDir()

	key, err := bls.Generate()
	require.NoError(t, err)
	s := signing.NewBLSSigner(key)
	triple := keystorefile.ForPublicKey(dir, s.Identifier())
	require.NoError(t, mgr.AddValidator(ctx, s, triple, key.Bytes(), "BLS", "password123", ""))

	// Point KeystorePath at a non-empty directory instead of a file so
	// os.Remove fails with a real error, forcing the rollback path.
	brokenTriple := triple
	brokenTriple.KeystorePath = filepath.Join(dir, "not-a-file")
	require.NoError(t, os.Mkdir(brokenTriple.KeystorePath, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(brokenTriple.KeystorePath, "child"), []byte("x"), 0o600))

	before, err := store.GetValidator(ctx, s.Identifier())
	require.NoError(t, err)
	require.True(t, before.Enabled)

	result := mgr.Delete(ctx, s.Identifier(), brokenTriple)
	require.Equal(t, StatusError, result.Status)

	after, err := store.GetValidator(ctx, s.Identifier())
	require.NoError(t, err)
	require.Equal(t, before.Enabled, after.Enabled, "enabled flag must be restored on delete failure")

	_, ok := reg.Get(s.Identifier())
	require.False(t, ok, "registry removal is not undone even though the flag is restored")
}
