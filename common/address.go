package common

import (
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address is a 20-byte Ethereum execution-layer address, used by the eth1
// JSON-RPC surface (eth_sign/eth_accounts).
type Address [20]byte

// BytesToAddress right-truncates b to the low 20 bytes, go-ethereum style.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > 20 {
		b = b[len(b)-20:]
	}
	copy(a[20-len(b):], b)
	return a
}

// Hex renders the address with the canonical EIP-55 capitalisation stripped
// down to plain lowercase — the spec mandates lowercase identifiers
// throughout, so no checksum-casing is applied here.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// PublicKeyToAddress derives the 20-byte address from an uncompressed
// secp256k1 public key (64-byte X||Y, no 0x04 prefix) via Keccak-256.
func PublicKeyToAddress(pubkeyXY []byte) Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(pubkeyXY)
	return BytesToAddress(h.Sum(nil)[12:])
}

// SortAddressesHex sorts hex-encoded addresses ascending, as required by
// eth_accounts.
func SortAddressesHex(addrs []string) {
	sort.Slice(addrs, func(i, j int) bool {
		return strings.Compare(addrs[i], addrs[j]) < 0
	})
}
