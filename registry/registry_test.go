package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/log"
	"github.com/tos-network/tos-signer/signing"
)

func newTestSigner(t *testing.T) *signing.BLSSigner {
	t.Helper()
	key, err := bls.Generate()
	require.NoError(t, err)
	return signing.NewBLSSigner(key)
}

func TestRegistryAddGetRemove(t *testing.T) {
	ctx := context.Background()
	r := New(log.Root())
	r.Start(ctx)
	defer r.Stop()

	s := newTestSigner(t)
	require.NoError(t, r.Add(ctx, s))

	got, ok := r.Get(s.Identifier())
	require.True(t, ok)
	require.Equal(t, s.Identifier(), got.Identifier())

	require.NoError(t, r.Remove(ctx, s.Identifier()))
	_, ok = r.Get(s.Identifier())
	require.False(t, ok)
}

func TestRegistryLoadComputesStale(t *testing.T) {
	ctx := context.Background()
	r := New(log.Root())
	r.Start(ctx)
	defer r.Stop()

	first := newTestSigner(t)
	_, _, err := r.Load(ctx, func(ctx context.Context) ([]signing.Signer, int, error) {
		return []signing.Signer{first}, 0, nil
	}, nil)
	require.NoError(t, err)

	second := newTestSigner(t)
	var gotStale []string
	loaded, errCount, err := r.Load(ctx, func(ctx context.Context) ([]signing.Signer, int, error) {
		return []signing.Signer{second}, 1, nil
	}, func(n int, stale []string) { gotStale = stale })
	require.NoError(t, err)
	require.Equal(t, 1, loaded)
	require.Equal(t, 1, errCount)
	require.Equal(t, []string{first.Identifier()}, gotStale)

	_, ok := r.Get(first.Identifier())
	require.False(t, ok)
	_, ok = r.Get(second.Identifier())
	require.True(t, ok)
}

func TestRegistryLoadDeduplicatesKeepsFirst(t *testing.T) {
	ctx := context.Background()
	r := New(log.Root())
	r.Start(ctx)
	defer r.Stop()

	s := newTestSigner(t)
	loaded, _, err := r.Load(ctx, func(ctx context.Context) ([]signing.Signer, int, error) {
		return []signing.Signer{s, s}, 0, nil
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, loaded)
	require.Len(t, r.Available(), 1)
}

func TestRegistryProxies(t *testing.T) {
	ctx := context.Background()
	r := New(log.Root())
	r.Start(ctx)
	defer r.Stop()

	consensus := newTestSigner(t)
	require.NoError(t, r.Add(ctx, consensus))

	proxy := newTestSigner(t)
	require.NoError(t, r.AddProxy(ctx, proxy, consensus.Identifier()))

	got, ok := r.GetProxy(proxy.Identifier())
	require.True(t, ok)
	require.Equal(t, proxy.Identifier(), got.Identifier())

	ids := r.ProxyIDs(consensus.Identifier())
	require.Contains(t, ids[signing.BLS], proxy.Identifier())

	require.NoError(t, r.RemoveConsensus(ctx, consensus.Identifier()))
	_, ok = r.Get(consensus.Identifier())
	require.False(t, ok)
	_, ok = r.GetProxy(proxy.Identifier())
	require.False(t, ok)
}
