package metadata

import "github.com/tos-network/tos-signer/signing"

// MappedResults is the outcome of a bulk load: successfully built signers
// plus a count of entries that failed (spec §2, "Metadata loader").
// Per-entry failures never abort the batch (spec §7).
type MappedResults struct {
	Values     []signing.Signer
	ErrorCount int
}

// Merge combines two result sets, used when a directory load and a cloud
// bulk load both contribute to one registry reload.
func (m *MappedResults) Merge(other MappedResults) {
	m.Values = append(m.Values, other.Values...)
	m.ErrorCount += other.ErrorCount
}
