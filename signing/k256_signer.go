package signing

import (
	"context"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/crypto/secpsign"
)

// K256Signer is a Commit-Boost ECDSA proxy key: the same secp256k1
// algorithm as SecpLocalSigner, but every Sign call emits the 64-byte
// canonical R‖S encoding with no recovery byte (spec §4.2), since
// Commit-Boost consumers reconstruct the public key out-of-band from the
// registered proxy identifier rather than recovering it from the
// signature.
type K256Signer struct {
	identifier string
	key        *secpsign.PrivateKey
}

// NewK256Signer wraps key for Commit-Boost proxy use.
func NewK256Signer(key *secpsign.PrivateKey) *K256Signer {
	return &K256Signer{
		identifier: common.EncodeHex(key.PublicKeyCompressed()),
		key:        key,
	}
}

func (s *K256Signer) Identifier() string { return s.identifier }
func (s *K256Signer) KeyType() KeyType   { return SECP256K1 }

func (s *K256Signer) Sign(_ context.Context, message []byte) (ArtifactSignature, error) {
	r, sigS, _, err := s.key.SignRecoverable(message)
	if err != nil {
		return ArtifactSignature{}, err
	}
	return ArtifactSignature{Encoding: EncodingK256Compact, Bytes: secpsign.EncodeK256(r, sigS)}, nil
}
