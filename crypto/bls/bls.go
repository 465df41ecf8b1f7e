// Package bls wraps github.com/supranational/blst for BLS12-381 consensus
// signing, using blst.SecretKey, P1Affine.Compress for public keys and
// P2Affine.Sign(...).Compress for signatures.
package bls

import (
	"crypto/rand"
	"errors"
	"io"

	blst "github.com/supranational/blst/bindings/go"
)

const (
	// PrivateKeyLen is the length of a serialized BLS12-381 secret scalar.
	PrivateKeyLen = 32
	// PublicKeyLen is the length of a compressed G1 public key.
	PublicKeyLen = 48
	// SignatureLen is the length of a compressed G2 signature.
	SignatureLen = 96
)

// signDST is the Eth2 consensus domain-separation tag for BLS signatures
// with proof-of-possession (the standard eth2 signing scheme).
var signDST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

var ErrInvalidKey = errors.New("bls: invalid key material")

// PrivateKey is a BLS12-381 secret key usable for consensus and
// Commit-Boost proxy signing.
type PrivateKey struct {
	sk *blst.SecretKey
}

// Generate derives a fresh secret key from a cryptographically strong RNG,
// as required for Commit-Boost proxy-key generation (spec §4.4).
func Generate() (*PrivateKey, error) {
	return GenerateFrom(rand.Reader)
}

// GenerateFrom derives a fresh secret key from r, allowing deterministic
// tests to supply their own entropy source.
func GenerateFrom(r io.Reader) (*PrivateKey, error) {
	ikm := make([]byte, PrivateKeyLen)
	if _, err := io.ReadFull(r, ikm); err != nil {
		return nil, err
	}
	sk := blst.KeyGen(ikm)
	if sk == nil {
		return nil, ErrInvalidKey
	}
	return &PrivateKey{sk: sk}, nil
}

// PrivateKeyFromBytes deserializes a 32-byte secret scalar.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeyLen {
		return nil, ErrInvalidKey
	}
	sk := new(blst.SecretKey).Deserialize(b)
	if sk == nil {
		return nil, ErrInvalidKey
	}
	return &PrivateKey{sk: sk}, nil
}

// Bytes serializes the secret scalar.
func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.sk.Serialize()...)
}

// PublicKey returns the compressed G1 public key.
func (k *PrivateKey) PublicKey() []byte {
	return new(blst.P1Affine).From(k.sk).Compress()
}

// Sign returns the compressed G2 signature over msg (the 32-byte signing
// root for consensus artifacts, or the Commit-Boost delegation root).
func (k *PrivateKey) Sign(msg []byte) []byte {
	return new(blst.P2Affine).Sign(k.sk, msg, signDST).Compress()
}

// Zeroize best-effort wipes the secret scalar from memory.
func (k *PrivateKey) Zeroize() { k.sk.Zeroize() }

// Verify checks a compressed G2 signature against a compressed G1 public key.
func Verify(pubkey, sig, msg []byte) bool {
	if len(pubkey) != PublicKeyLen || len(sig) != SignatureLen {
		return false
	}
	var dummy blst.P2Affine
	return dummy.VerifyCompressed(sig, true, pubkey, true, msg, signDST)
}
