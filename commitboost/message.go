package commitboost

import "fmt"

// ProxyKeyMessage is the delegation message signed by the consensus key
// when issuing a fresh Commit-Boost proxy key (spec §4.4): delegator is the
// registered consensus identifier's public key, proxy is the newly
// generated proxy public key. Both are fixed-length byte vectors whose
// length depends on the proxy scheme (48 bytes BLS, 33/64 bytes secp256k1).
type ProxyKeyMessage struct {
	Delegator []byte
	Proxy     []byte
}

// HashTreeRoot computes hash_tree_root(ProxyKeyMessage) the way an SSZ
// container of two byte-vector fields does: the root of each field's own
// chunk merkleization, combined as a two-leaf tree.
func (m ProxyKeyMessage) HashTreeRoot() ([32]byte, error) {
	if len(m.Delegator) == 0 || len(m.Proxy) == 0 {
		return [32]byte{}, fmt.Errorf("commitboost: delegator and proxy must be non-empty")
	}
	delegatorRoot := byteVectorHashTreeRoot(m.Delegator)
	proxyRoot := byteVectorHashTreeRoot(m.Proxy)
	return hashTwo(delegatorRoot, proxyRoot), nil
}

// byteVectorHashTreeRoot implements merkleize(pack(value)) for a
// fixed-length byte vector: split into 32-byte chunks (last one
// zero-padded), then binary-merkleize up to the next power of two,
// padding with zero leaves.
func byteVectorHashTreeRoot(value []byte) [32]byte {
	chunks := packChunks(value)
	return merkleize(chunks)
}

func packChunks(value []byte) [][32]byte {
	n := (len(value) + 31) / 32
	if n == 0 {
		n = 1
	}
	chunks := make([][32]byte, n)
	for i := 0; i < n; i++ {
		start := i * 32
		end := start + 32
		if end > len(value) {
			end = len(value)
		}
		copy(chunks[i][:], value[start:end])
	}
	return chunks
}

func merkleize(chunks [][32]byte) [32]byte {
	width := 1
	for width < len(chunks) {
		width *= 2
	}
	layer := make([][32]byte, width)
	copy(layer, chunks)
	for width > 1 {
		next := make([][32]byte, width/2)
		for i := 0; i < width/2; i++ {
			next[i] = hashTwo(layer[2*i], layer[2*i+1])
		}
		layer = next
		width /= 2
	}
	return layer[0]
}
