// Package signing defines the Signer capability shared by every key
// backend (local BLS, local secp256k1, Azure Key Vault, AWS KMS, and the
// Commit-Boost K256 proxy encoding) and the ArtifactSignature each of them
// produces. Per design note §9, backends are modeled as a tagged variant
// behind one interface rather than a class hierarchy.
package signing

import (
	"context"

	"github.com/tos-network/tos-signer/common"
)

// KeyType distinguishes the cryptographic scheme of a signer's public key.
type KeyType int

const (
	BLS KeyType = iota
	SECP256K1
)

func (t KeyType) String() string {
	if t == BLS {
		return "BLS"
	}
	return "SECP256K1"
}

// Encoding identifies how a signature is serialized on the wire. The
// Commit-Boost K256 proxy artifact is the same secp256k1 algorithm as
// eth_sign but a different encoding, so the variant lives on the artifact,
// not on the signer (design note §9).
type Encoding int

const (
	EncodingBLSCompressed Encoding = iota
	EncodingEthSign
	EncodingK256Compact
)

// ArtifactSignature is the result of a Signer.Sign call: raw bytes plus
// enough information for the dispatcher to hex-encode it correctly.
type ArtifactSignature struct {
	Encoding Encoding
	Bytes    []byte
}

// Hex renders the artifact as a 0x-prefixed lowercase hex string.
func (a ArtifactSignature) Hex() string {
	return common.EncodeHex(a.Bytes)
}

// Signer produces an ArtifactSignature for a message under one identifier.
// Implementations must be safe for concurrent use: the registry shares one
// Signer instance across all HTTP worker goroutines.
type Signer interface {
	// Identifier is the normalised 0x-prefixed string this signer is
	// registered under: the public key hex for BLS and K256 signers, the
	// Ethereum address for secp256k1 eth1 signers (local and cloud).
	Identifier() string
	// KeyType reports whether this is a BLS or secp256k1-family signer.
	KeyType() KeyType
	// Sign produces a signature over message. Implementations that call
	// out to a network backend (Azure, AWS) must respect ctx cancellation.
	Sign(ctx context.Context, message []byte) (ArtifactSignature, error)
}
