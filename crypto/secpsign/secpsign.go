// Package secpsign wraps github.com/btcsuite/btcd/btcec/v2 for the three
// secp256k1 artifact encodings this service produces: the 65-byte eth_sign
// signature (R‖S‖V), the 64-byte canonical Commit-Boost K256 signature
// (R‖S, no recovery byte), and recovery-id discovery for cloud signers
// (Azure Key Vault, AWS KMS) that return a bare (R, S) pair.
package secpsign

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

var (
	ErrNoMatchingRecoveryID = errors.New("secpsign: no recovery id recovers the expected public key")
	ErrInvalidSignature     = errors.New("secpsign: invalid signature encoding")
)

var curveOrder = btcec.S256().N
var halfOrder = new(big.Int).Rsh(curveOrder, 1)

// PrivateKey is a local secp256k1 signing key.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// GenerateKey creates a fresh secp256k1 key, used by proxy-key generation
// for the Commit-Boost K256 scheme.
func GenerateKey() (*PrivateKey, error) {
	k, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: k}, nil
}

// PrivateKeyFromBytes parses a 32-byte big-endian scalar.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, ErrInvalidSignature
	}
	k, _ := btcec.PrivKeyFromBytes(b)
	return &PrivateKey{key: k}, nil
}

// Bytes serializes the private scalar.
func (k *PrivateKey) Bytes() []byte { return k.key.Serialize() }

// PublicKeyCompressed returns the 33-byte SEC1-compressed public key.
func (k *PrivateKey) PublicKeyCompressed() []byte {
	return k.key.PubKey().SerializeCompressed()
}

// PublicKeyUncompressedXY returns the 64-byte X‖Y uncompressed public key
// (no 0x04 prefix), the form used to derive an Ethereum address.
func (k *PrivateKey) PublicKeyUncompressedXY() []byte {
	return k.key.PubKey().SerializeUncompressed()[1:]
}

// SignRecoverable signs a 32-byte digest and returns (r, s, recoveryID)
// with s already canonicalized to the lower half of the curve order.
func (k *PrivateKey) SignRecoverable(digest []byte) (r, s []byte, recID byte, err error) {
	compact := ecdsa.SignCompact(k.key, digest, false)
	if len(compact) != 65 {
		return nil, nil, 0, ErrInvalidSignature
	}
	recID = (compact[0] - 27) & 0x03
	r = compact[1:33]
	s = compact[33:65]
	return r, s, recID, nil
}

// EncodeEthSignature builds the 65-byte eth_sign artifact R(32)‖S(32)‖V(1).
// chainID is nil for the plain V = recId+27 form; otherwise
// V = recId + 27 + 2*chainID per spec §4.2.
func EncodeEthSignature(r, s []byte, recID byte, chainID *big.Int) []byte {
	out := make([]byte, 65)
	copy(out[0:32], leftPad32(r))
	copy(out[32:64], leftPad32(s))
	v := uint64(recID) + 27
	if chainID != nil {
		v += 2 * chainID.Uint64()
	}
	out[64] = byte(v)
	return out
}

// EncodeK256 builds the 64-byte Commit-Boost proxy signature R(32)‖S(32),
// canonicalized so that s <= n/2 (spec §4.2); no recovery byte.
func EncodeK256(r, s []byte) []byte {
	sInt := new(big.Int).SetBytes(s)
	if sInt.Cmp(halfOrder) > 0 {
		sInt = new(big.Int).Sub(curveOrder, sInt)
	}
	out := make([]byte, 64)
	copy(out[0:32], leftPad32(r))
	copy(out[32:64], leftPad32Big(sInt))
	return out
}

// Canonicalize flips s to n-s when it exceeds n/2, satisfying property 9
// (K256 canonicality) for every emitted signature regardless of source.
func Canonicalize(s *big.Int) *big.Int {
	if s.Cmp(halfOrder) > 0 {
		return new(big.Int).Sub(curveOrder, s)
	}
	return new(big.Int).Set(s)
}

// RecoverRecoveryID searches recId in {0,1,2,3} for the one that recovers
// expectedPubkeyCompressed from (r, s, digest) — used for AWS KMS / Azure
// Key Vault backends that return a DER/P1363 signature without a recovery
// id attached (spec §4.2).
func RecoverRecoveryID(r, s, digest, expectedPubkeyCompressed []byte) (byte, error) {
	rPad, sPad := leftPad32(r), leftPad32(s)
	for recID := byte(0); recID < 4; recID++ {
		compact := make([]byte, 65)
		compact[0] = 27 + recID
		copy(compact[1:33], rPad)
		copy(compact[33:65], sPad)
		pub, _, err := ecdsa.RecoverCompact(compact, digest)
		if err != nil {
			continue
		}
		if string(pub.SerializeCompressed()) == string(expectedPubkeyCompressed) {
			return recID, nil
		}
	}
	return 0, ErrNoMatchingRecoveryID
}

func leftPad32(b []byte) []byte {
	if len(b) == 32 {
		return b
	}
	out := make([]byte, 32)
	if len(b) > 32 {
		copy(out, b[len(b)-32:])
		return out
	}
	copy(out[32-len(b):], b)
	return out
}

func leftPad32Big(v *big.Int) []byte {
	return leftPad32(v.Bytes())
}

// RandomReader exposes crypto/rand for callers that need an explicit
// io.Reader. Nothing in this package reads it: GenerateKey draws its
// randomness through btcec.
var RandomReader = rand.Reader
