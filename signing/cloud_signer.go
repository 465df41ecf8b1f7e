package signing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/crypto/keccak"
	"github.com/tos-network/tos-signer/crypto/secpsign"
)

// SignatureWireFormat identifies how a cloud KMS/vault backend encodes the
// raw (r, s) pair it returns from a digest-signing call.
type SignatureWireFormat int

const (
	WireFormatDER SignatureWireFormat = iota
	WireFormatP1363
)

// DigestSigner is the capability a cloud key-management backend exposes:
// sign a digest by key id. Only this contract crosses into this service —
// the Azure Key Vault / AWS KMS wire protocols themselves are out of scope
// (spec §1) and live behind concrete adapters in metadata/azurevault and
// metadata/awsvault.
type DigestSigner interface {
	SignDigest(ctx context.Context, digest []byte) ([]byte, error)
}

// CloudSecpSigner signs with a secp256k1 key held in Azure Key Vault or AWS
// KMS. Because these backends return a signature without a recovery id,
// every Sign call performs the recId search described in spec §4.2: parse
// (R, S), canonicalize S, then brute-force recId in {0,1,2,3} until the
// recovered public key matches the one on file.
//
// HashLocally controls whether the eth_sign personal-message prefix+Keccak
// is applied before the backend call (true) or the caller already supplies
// a 32-byte digest to be passed through untouched (false) — this is the
// "apply SHA-3 before signing" factory flag from spec §4.2.
type CloudSecpSigner struct {
	identifier       string
	pubkeyCompressed []byte
	backend          DigestSigner
	wireFormat       SignatureWireFormat
	hashLocally      bool
}

// NewCloudSecpSigner builds a signer backed by an Azure Key Vault or AWS
// KMS key. pubkeyCompressed is the 33-byte SEC1-compressed public key
// fetched once at load time and cached for the recovery-id search.
func NewCloudSecpSigner(backend DigestSigner, pubkeyCompressed []byte, pubkeyXY []byte, wireFormat SignatureWireFormat, hashLocally bool) *CloudSecpSigner {
	addr := common.PublicKeyToAddress(pubkeyXY)
	return &CloudSecpSigner{
		identifier:       addr.Hex(),
		pubkeyCompressed: pubkeyCompressed,
		backend:          backend,
		wireFormat:       wireFormat,
		hashLocally:      hashLocally,
	}
}

func (s *CloudSecpSigner) Identifier() string { return s.identifier }
func (s *CloudSecpSigner) KeyType() KeyType   { return SECP256K1 }

func (s *CloudSecpSigner) Sign(ctx context.Context, message []byte) (ArtifactSignature, error) {
	digest := message
	if s.hashLocally {
		d := keccak.EthSignPrehash(message)
		digest = d[:]
	}
	raw, err := s.backend.SignDigest(ctx, digest)
	if err != nil {
		return ArtifactSignature{}, fmt.Errorf("cloud secp signer: backend sign: %w", err)
	}
	r, sBig, err := s.parse(raw)
	if err != nil {
		return ArtifactSignature{}, err
	}
	sCanon := secpsign.Canonicalize(sBig)
	recID, err := secpsign.RecoverRecoveryID(r.Bytes(), sCanon.Bytes(), digest, s.pubkeyCompressed)
	if err != nil {
		return ArtifactSignature{}, fmt.Errorf("cloud secp signer: %w", err)
	}
	return ArtifactSignature{
		Encoding: EncodingEthSign,
		Bytes:    secpsign.EncodeEthSignature(r.Bytes(), sCanon.Bytes(), recID, nil),
	}, nil
}

func (s *CloudSecpSigner) parse(raw []byte) (r, sBig *big.Int, err error) {
	if s.wireFormat == WireFormatP1363 {
		return secpsign.ParseP1363(raw)
	}
	return secpsign.ParseDER(raw)
}
