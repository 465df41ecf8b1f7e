// Package keystorefile implements on-disk encrypted keystore JSON files
// and the lifecycle of the keystore+password+metadata triple per
// validator (spec §4.5). The encrypted JSON shape (CryptoJSON, scrypt KDF,
// AES-CTR cipher, UUID id) follows the go-ethereum accounts/keystore.Key
// encoding.
package keystorefile

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
)

var (
	ErrInvalidMAC        = errors.New("keystorefile: MAC mismatch — wrong password or corrupt file")
	ErrUnsupportedCipher = errors.New("keystorefile: unsupported cipher")
	ErrUnsupportedKDF    = errors.New("keystorefile: unsupported kdf")
)

const (
	cipherAES128CTR = "aes-128-ctr"
	kdfScrypt       = "scrypt"

	scryptN     = 1 << 18
	scryptR     = 8
	scryptP     = 1
	scryptDKLen = 32
)

// CryptoJSON mirrors the encrypted-key envelope of go-ethereum's keystore
// files (accounts/keystore.CryptoJSON).
type CryptoJSON struct {
	Cipher       string                 `json:"cipher"`
	CipherText   string                 `json:"ciphertext"`
	CipherParams cipherParamsJSON       `json:"cipherparams"`
	KDF          string                 `json:"kdf"`
	KDFParams    map[string]interface{} `json:"kdfparams"`
	MAC          string                 `json:"mac"`
}

type cipherParamsJSON struct {
	IV string `json:"iv"`
}

// EncryptedKeystoreJSON is the on-disk file shape, one per validator key.
type EncryptedKeystoreJSON struct {
	PublicKey string     `json:"pubkey"`
	KeyType   string     `json:"keyType"`
	Crypto    CryptoJSON `json:"crypto"`
	ID        string     `json:"uuid"`
	Version   int        `json:"version"`
}

// Encrypt encrypts privateKey with password into the on-disk JSON shape.
func Encrypt(privateKey []byte, pubkeyHex, keyType, password string) (*EncryptedKeystoreJSON, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	derivedKey, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, fmt.Errorf("keystorefile: derive key: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return nil, err
	}
	cipherText := make([]byte, len(privateKey))
	cipher.NewCTR(block, iv).XORKeyStream(cipherText, privateKey)

	mac := sha256.Sum256(append(append([]byte{}, derivedKey[16:32]...), cipherText...))

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	return &EncryptedKeystoreJSON{
		PublicKey: pubkeyHex,
		KeyType:   keyType,
		ID:        id.String(),
		Version:   3,
		Crypto: CryptoJSON{
			Cipher:     cipherAES128CTR,
			CipherText: hex.EncodeToString(cipherText),
			CipherParams: cipherParamsJSON{
				IV: hex.EncodeToString(iv),
			},
			KDF: kdfScrypt,
			KDFParams: map[string]interface{}{
				"n":     scryptN,
				"r":     scryptR,
				"p":     scryptP,
				"dklen": scryptDKLen,
				"salt":  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac[:]),
		},
	}, nil
}

// Decrypt reverses Encrypt, returning the plaintext private key.
func Decrypt(ks *EncryptedKeystoreJSON, password string) ([]byte, error) {
	if ks.Crypto.KDF != kdfScrypt {
		return nil, ErrUnsupportedKDF
	}
	if ks.Crypto.Cipher != cipherAES128CTR {
		return nil, ErrUnsupportedCipher
	}

	n, _ := ks.Crypto.KDFParams["n"].(int)
	r, _ := ks.Crypto.KDFParams["r"].(int)
	p, _ := ks.Crypto.KDFParams["p"].(int)
	dkLen, _ := ks.Crypto.KDFParams["dklen"].(int)
	saltHex, _ := ks.Crypto.KDFParams["salt"].(string)
	if n == 0 {
		n, r, p, dkLen = scryptN, scryptR, scryptP, scryptDKLen
		if f, ok := ks.Crypto.KDFParams["n"].(float64); ok {
			n = int(f)
		}
		if f, ok := ks.Crypto.KDFParams["r"].(float64); ok {
			r = int(f)
		}
		if f, ok := ks.Crypto.KDFParams["p"].(float64); ok {
			p = int(f)
		}
		if f, ok := ks.Crypto.KDFParams["dklen"].(float64); ok {
			dkLen = int(f)
		}
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, err
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, n, r, p, dkLen)
	if err != nil {
		return nil, err
	}

	cipherText, err := hex.DecodeString(ks.Crypto.CipherText)
	if err != nil {
		return nil, err
	}
	wantMAC, err := hex.DecodeString(ks.Crypto.MAC)
	if err != nil {
		return nil, err
	}
	gotMAC := sha256.Sum256(append(append([]byte{}, derivedKey[16:32]...), cipherText...))
	if subtle.ConstantTimeCompare(gotMAC[:], wantMAC) != 1 {
		return nil, ErrInvalidMAC
	}

	iv, err := hex.DecodeString(ks.Crypto.CipherParams.IV)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return nil, err
	}
	plainText := make([]byte, len(cipherText))
	cipher.NewCTR(block, iv).XORKeyStream(plainText, cipherText)
	return plainText, nil
}

// MarshalFile serializes ks for writing to disk.
func MarshalFile(ks *EncryptedKeystoreJSON) ([]byte, error) {
	return json.MarshalIndent(ks, "", "  ")
}

// UnmarshalFile parses a keystore JSON file's contents.
func UnmarshalFile(data []byte) (*EncryptedKeystoreJSON, error) {
	var ks EncryptedKeystoreJSON
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, err
	}
	return &ks, nil
}
