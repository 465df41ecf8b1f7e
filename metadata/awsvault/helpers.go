package awsvault

import (
	"crypto/ecdsa"
	"crypto/x509"
	"fmt"
)

// secp256k1PointFromDERSubjectPublicKey parses the DER SubjectPublicKeyInfo
// KMS's GetPublicKey call returns and extracts the uncompressed (X‖Y) and
// SEC1-compressed forms needed by signing.NewCloudSecpSigner.
func secp256k1PointFromDERSubjectPublicKey(der []byte) (xy, compressed []byte, err error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, nil, fmt.Errorf("awsvault: parse public key: %w", err)
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("awsvault: public key is not an EC key")
	}
	x := leftPad32(ecPub.X.Bytes())
	y := leftPad32(ecPub.Y.Bytes())
	xy = append(append([]byte{}, x...), y...)

	prefix := byte(0x02)
	if ecPub.Y.Bit(0) == 1 {
		prefix = 0x03
	}
	compressed = append([]byte{prefix}, x...)
	return xy, compressed, nil
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
