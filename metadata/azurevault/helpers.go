package azurevault

import (
	"fmt"
	"math/big"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"

	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/crypto/secpsign"
	"github.com/tos-network/tos-signer/signing"
)

func signerFromRawKey(keyType string, raw []byte) (signing.Signer, error) {
	switch keyType {
	case "BLS":
		key, err := bls.PrivateKeyFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("azurevault: bls key: %w", err)
		}
		return signing.NewBLSSigner(key), nil
	case "SECP256K1":
		key, err := secpsign.PrivateKeyFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("azurevault: secp256k1 key: %w", err)
		}
		return signing.NewSecpLocalSigner(key, nil), nil
	default:
		return nil, fmt.Errorf("azurevault: unsupported key type %q", keyType)
	}
}

// ecPointFromJSONWebKey extracts the uncompressed (X‖Y) and SEC1-compressed
// forms of a secp256k1 public key returned by Azure's GetKey response.
func ecPointFromJSONWebKey(jwk *azkeys.JSONWebKey) (xy, compressed []byte, err error) {
	if jwk == nil || jwk.X == nil || jwk.Y == nil {
		return nil, nil, fmt.Errorf("azurevault: key response missing EC coordinates")
	}
	x := leftPad32(jwk.X)
	y := leftPad32(jwk.Y)
	xy = append(append([]byte{}, x...), y...)

	yInt := new(big.Int).SetBytes(y)
	prefix := byte(0x02)
	if yInt.Bit(0) == 1 {
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
