package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/log"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/signing"
	"github.com/tos-network/tos-signer/slashing"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *signing.BLSSigner) {
	t.Helper()
	ctx := context.Background()

	reg := registry.New(log.Root())
	reg.Start(ctx)
	t.Cleanup(reg.Stop)

	key, err := bls.Generate()
	require.NoError(t, err)
	s := signing.NewBLSSigner(key)
	require.NoError(t, reg.Add(ctx, s))

	store, err := slashing.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gvr := make([]byte, 32)
	require.NoError(t, store.SetGenesisValidatorsRoot(ctx, gvr))

	return New(reg, store), s
}

func TestDispatchUnknownIdentifier(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.Sign(context.Background(), Request{Identifier: "0xdead", Domain: DomainOther, Message: []byte("x")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDispatchBlockAcceptThenConflict(t *testing.T) {
	d, s := newTestDispatcher(t)
	gvr := make([]byte, 32)
	root := make([]byte, 32)
	root[0] = 1

	_, err := d.Sign(context.Background(), Request{
		Identifier: s.Identifier(), Domain: DomainBlock, GenesisValidatorsRoot: gvr,
		Block: &BlockPayload{Slot: 10, SigningRoot: root},
	})
	require.NoError(t, err)

	otherRoot := make([]byte, 32)
	otherRoot[0] = 2
	_, err = d.Sign(context.Background(), Request{
		Identifier: s.Identifier(), Domain: DomainBlock, GenesisValidatorsRoot: gvr,
		Block: &BlockPayload{Slot: 10, SigningRoot: otherRoot},
	})
	require.ErrorIs(t, err, ErrSlashingRejected)
}

func TestDispatchOtherDomainSkipsSlashingCheck(t *testing.T) {
	d, s := newTestDispatcher(t)
	artifact, err := d.Sign(context.Background(), Request{Identifier: s.Identifier(), Domain: DomainOther, Message: []byte("randao reveal")})
	require.NoError(t, err)
	require.Len(t, artifact.Bytes, 96)
}
