// Package common holds small shared types and helpers used across the
// signing service: hex identifier normalisation and the Ethereum address
// form used by the eth1 JSON-RPC surface.
package common

import (
	"encoding/hex"
	"strings"
)

// NormalizeIdentifier lowercases a hex public-key identifier, strips an
// optional 0x/0X prefix, and re-adds a lowercase 0x prefix. The registry
// always stores and looks up identifiers in this form (spec §4.1).
func NormalizeIdentifier(id string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X")
	return "0x" + strings.ToLower(trimmed)
}

// StripHexPrefix removes a leading 0x/0X, leaving the caller to validate
// the remaining content.
func StripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// DecodeHex parses a 0x-prefixed or bare hex string into bytes.
func DecodeHex(s string) ([]byte, error) {
	return hex.DecodeString(StripHexPrefix(s))
}

// EncodeHex renders bytes as a lowercase 0x-prefixed hex string.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
