// Package keccak provides the Keccak-256 hash used for Ethereum eth_sign
// prehashing and execution-layer address derivation.
package keccak

import (
	"strconv"

	"golang.org/x/crypto/sha3"
)

// Hash256 returns the Keccak-256 digest of data.
func Hash256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// EthSignPrehash applies the go-ethereum personal_sign prefix
// ("\x19Ethereum Signed Message:\n" + len(msg)) before hashing, per spec §4.2.
func EthSignPrehash(msg []byte) [32]byte {
	prefix := []byte("\x19Ethereum Signed Message:\n")
	lenStr := []byte(strconv.Itoa(len(msg)))
	return Hash256(prefix, lenStr, msg)
}
