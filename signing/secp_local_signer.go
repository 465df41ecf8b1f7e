package signing

import (
	"context"
	"math/big"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/crypto/keccak"
	"github.com/tos-network/tos-signer/crypto/secpsign"
)

// SecpLocalSigner signs with an in-process secp256k1 key. Sign produces
// eth_sign-encoded artifacts (65 bytes R‖S‖V) and SignDigest produces the
// K256 encoding (64 bytes R‖S) — the encoding is selected per call by the
// method used, matching design note §9 (the encoding lives on the
// artifact, not the signer).
type SecpLocalSigner struct {
	identifier string
	key        *secpsign.PrivateKey
	chainID    *big.Int
}

// NewSecpLocalSigner wraps key. chainID is nil for signers that never
// attach EIP-155 replay protection to eth_sign output.
func NewSecpLocalSigner(key *secpsign.PrivateKey, chainID *big.Int) *SecpLocalSigner {
	addr := common.PublicKeyToAddress(key.PublicKeyUncompressedXY())
	return &SecpLocalSigner{identifier: addr.Hex(), key: key, chainID: chainID}
}

func (s *SecpLocalSigner) Identifier() string { return s.identifier }
func (s *SecpLocalSigner) KeyType() KeyType   { return SECP256K1 }

// Sign implements the eth_sign encoding: the message is hashed with the
// personal_sign prefix before signing (spec §4.2).
func (s *SecpLocalSigner) Sign(ctx context.Context, message []byte) (ArtifactSignature, error) {
	digest := keccak.EthSignPrehash(message)
	return s.signDigestEthSign(digest[:])
}

// SignDigest signs a pre-hashed 32-byte digest directly, without the
// eth_sign prefix, and returns the K256 encoding.
func (s *SecpLocalSigner) SignDigest(_ context.Context, digest []byte) (ArtifactSignature, error) {
	r, sigS, _, err := s.key.SignRecoverable(digest)
	if err != nil {
		return ArtifactSignature{}, err
	}
	return ArtifactSignature{Encoding: EncodingK256Compact, Bytes: secpsign.EncodeK256(r, sigS)}, nil
}

func (s *SecpLocalSigner) signDigestEthSign(digest []byte) (ArtifactSignature, error) {
	r, sigS, recID, err := s.key.SignRecoverable(digest)
	if err != nil {
		return ArtifactSignature{}, err
	}
	return ArtifactSignature{
		Encoding: EncodingEthSign,
		Bytes:    secpsign.EncodeEthSignature(r, sigS, recID, s.chainID),
	}, nil
}
