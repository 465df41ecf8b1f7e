// Package commitboost computes the SSZ-style signing root for Commit-Boost
// proxy-key delegation messages (spec §4.4): a domain derived from the
// consensus fork context, and a message root over the ProxyKeyMessage
// container, combined the way Eth2's compute_signing_root does.
package commitboost

import (
	"crypto/sha256"
	"encoding/binary"
)

// DomainTypeProxyDelegation is the Commit-Boost domain mask, the ASCII
// bytes "Comm" read little-endian (spec §4.4: 0x6d6d6f43).
var DomainTypeProxyDelegation = [4]byte{0x43, 0x6f, 0x6d, 0x6d}

// ComputeDomain mirrors Eth2's compute_domain: the domain type concatenated
// with the first 28 bytes of the fork data root.
func ComputeDomain(domainType [4]byte, forkVersion [4]byte, genesisValidatorsRoot [32]byte) [32]byte {
	forkDataRoot := forkDataHashTreeRoot(forkVersion, genesisValidatorsRoot)
	var out [32]byte
	copy(out[:4], domainType[:])
	copy(out[4:], forkDataRoot[:28])
	return out
}

// forkDataHashTreeRoot computes hash_tree_root(ForkData{current_version,
// genesis_validators_root}): a two-field container, each field already
// chunk-sized, merkleized as a single hash of the two leaves.
func forkDataHashTreeRoot(currentVersion [4]byte, genesisValidatorsRoot [32]byte) [32]byte {
	var versionChunk [32]byte
	copy(versionChunk[:4], currentVersion[:])
	return hashTwo(versionChunk, genesisValidatorsRoot)
}

func hashTwo(a, b [32]byte) [32]byte {
	h := sha256.New()
	h.Write(a[:])
	h.Write(b[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// SigningRoot computes compute_signing_root(message_root, domain) =
// hash_tree_root(SigningData{object_root: message_root, domain}).
func SigningRoot(messageRoot [32]byte, domain [32]byte) [32]byte {
	return hashTwo(messageRoot, domain)
}

// forkVersionFromUint32 is a convenience for callers that keep fork
// versions as uint32 rather than raw 4-byte arrays.
func forkVersionFromUint32(v uint32) [4]byte {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], v)
	return out
}
