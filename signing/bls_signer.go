package signing

import (
	"context"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/crypto/bls"
)

// BLSSigner signs consensus artifacts with a locally held BLS12-381 key.
// Used both for validator consensus keys and for Commit-Boost BLS proxy
// keys — the proxy case is the same signer, just registered under the
// consensus identifier's proxy set.
type BLSSigner struct {
	identifier string
	key        *bls.PrivateKey
}

// NewBLSSigner wraps key, deriving its identifier from the public key.
func NewBLSSigner(key *bls.PrivateKey) *BLSSigner {
	return &BLSSigner{
		identifier: common.EncodeHex(key.PublicKey()),
		key:        key,
	}
}

func (s *BLSSigner) Identifier() string { return s.identifier }
func (s *BLSSigner) KeyType() KeyType   { return BLS }

func (s *BLSSigner) Sign(_ context.Context, message []byte) (ArtifactSignature, error) {
	return ArtifactSignature{Encoding: EncodingBLSCompressed, Bytes: s.key.Sign(message)}, nil
}
