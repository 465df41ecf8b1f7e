package commitboost

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeDomainIsDeterministic(t *testing.T) {
	fv := [4]byte{1, 2, 3, 4}
	var gvr [32]byte
	for i := range gvr {
		gvr[i] = byte(i)
	}
	d1 := ComputeDomain(DomainTypeProxyDelegation, fv, gvr)
	d2 := ComputeDomain(DomainTypeProxyDelegation, fv, gvr)
	require.Equal(t, d1, d2)
	require.Equal(t, DomainTypeProxyDelegation[:], d1[:4])
}

func TestProxyKeyMessageHashTreeRootDiffersByProxy(t *testing.T) {
	delegator := make([]byte, 48)
	proxyA := make([]byte, 48)
	proxyB := make([]byte, 48)
	proxyB[0] = 0xff

	rootA, err := ProxyKeyMessage{Delegator: delegator, Proxy: proxyA}.HashTreeRoot()
	require.NoError(t, err)
	rootB, err := ProxyKeyMessage{Delegator: delegator, Proxy: proxyB}.HashTreeRoot()
	require.NoError(t, err)
	require.NotEqual(t, rootA, rootB)
}

func TestSigningRootCombinesMessageAndDomain(t *testing.T) {
	var msgRoot, domain [32]byte
	msgRoot[0] = 1
	domain[0] = 2
	root := SigningRoot(msgRoot, domain)
	require.NotEqual(t, msgRoot, root)
	require.NotEqual(t, domain, root)
}
