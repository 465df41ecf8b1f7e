package signing

import (
	"context"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/crypto/secpsign"
)

func TestBLSSignerProducesCompressedSignature(t *testing.T) {
	key, err := bls.GenerateFrom(rand.Reader)
	require.NoError(t, err)

	signer := NewBLSSigner(key)
	require.Equal(t, BLS, signer.KeyType())

	root := make([]byte, 32)
	_, _ = rand.Read(root)

	sig, err := signer.Sign(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, sig.Bytes, bls.SignatureLen)
	require.True(t, bls.Verify(key.PublicKey(), sig.Bytes, root))
}

func TestSecpLocalSignerEthSignFormat(t *testing.T) {
	key, err := secpsign.GenerateKey()
	require.NoError(t, err)

	signer := NewSecpLocalSigner(key, nil)
	require.Equal(t, SECP256K1, signer.KeyType())

	sig, err := signer.Sign(context.Background(), []byte("0xdeadbeaf"))
	require.NoError(t, err)
	require.Len(t, sig.Bytes, 65)
	require.Len(t, sig.Hex(), 132)
}

func TestSecpLocalSignerEthSignWithChainID(t *testing.T) {
	key, err := secpsign.GenerateKey()
	require.NoError(t, err)

	signer := NewSecpLocalSigner(key, big.NewInt(5))
	sig, err := signer.Sign(context.Background(), []byte("hello"))
	require.NoError(t, err)
	v := sig.Bytes[64]
	require.True(t, v >= 27+2*5)
}

func TestK256SignerCanonicalAndNoRecoveryByte(t *testing.T) {
	key, err := secpsign.GenerateKey()
	require.NoError(t, err)

	signer := NewK256Signer(key)
	digest := make([]byte, 32)
	_, _ = rand.Read(digest)

	sig, err := signer.Sign(context.Background(), digest)
	require.NoError(t, err)
	require.Len(t, sig.Bytes, 64)

	s := new(big.Int).SetBytes(sig.Bytes[32:64])
	half := new(big.Int).Rsh(curveOrderForTest(), 1)
	require.True(t, s.Cmp(half) <= 0)
}

func curveOrderForTest() *big.Int {
	// secp256k1 group order, duplicated here only for the canonicality assertion.
	n, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
	return n
}
