package proxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/log"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/signing"
)

func newRegistryWithConsensusKey(t *testing.T) (*registry.Registry, *signing.BLSSigner) {
	t.Helper()
	ctx := context.Background()
	reg := registry.New(log.Root())
	reg.Start(ctx)
	t.Cleanup(reg.Stop)

	key, err := bls.Generate()
	require.NoError(t, err)
	consensus := signing.NewBLSSigner(key)
	require.NoError(t, reg.Add(ctx, consensus))
	return reg, consensus
}

func TestGenerateProxyBLS(t *testing.T) {
	reg, consensus := newRegistryWithConsensusKey(t)
	gen := New(reg, t.TempDir(), "s3cr3t-password", ForkContext{})

	result, err := gen.Generate(context.Background(), consensus.Identifier(), SchemeBLS)
	require.NoError(t, err)
	require.Len(t, result.Signature, 96)
	require.Equal(t, 48, len(result.Message.Proxy))

	ids := reg.ProxyIDs(consensus.Identifier())
	require.Len(t, ids[signing.BLS], 1)
}

func TestGenerateProxyUnknownConsensusFails(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(log.Root())
	reg.Start(ctx)
	t.Cleanup(reg.Stop)

	gen := New(reg, t.TempDir(), "pw", ForkContext{})
	_, err := gen.Generate(ctx, "0xdead", SchemeBLS)
	require.ErrorIs(t, err, ErrConsensusNotFound)
}
