package secpsign

import (
	"encoding/asn1"
	"math/big"
)

// derSignature is the ASN.1 structure AWS KMS and Azure Key Vault return
// for ECDSA signatures (SEQUENCE { r INTEGER, s INTEGER }).
type derSignature struct {
	R, S *big.Int
}

// ParseDER decodes a DER-encoded ECDSA signature into its (r, s) components.
func ParseDER(der []byte) (r, s *big.Int, err error) {
	var sig derSignature
	if _, err := asn1.Unmarshal(der, &sig); err != nil {
		return nil, nil, err
	}
	return sig.R, sig.S, nil
}

// ParseP1363 decodes a fixed-width IEEE P1363 signature (R‖S, each half the
// slice length) into its (r, s) components; some KMS backends use this
// encoding instead of DER.
func ParseP1363(raw []byte) (r, s *big.Int, err error) {
	if len(raw) == 0 || len(raw)%2 != 0 {
		return nil, nil, ErrInvalidSignature
	}
	half := len(raw) / 2
	return new(big.Int).SetBytes(raw[:half]), new(big.Int).SetBytes(raw[half:]), nil
}
