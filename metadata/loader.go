package metadata

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/crypto/secpsign"
	"github.com/tos-network/tos-signer/keystorefile"
	"github.com/tos-network/tos-signer/metadata/awsvault"
	"github.com/tos-network/tos-signer/metadata/azurevault"
	"github.com/tos-network/tos-signer/metadata/hashivault"
	"github.com/tos-network/tos-signer/signing"
)

// LoadFile parses one YAML metadata file and builds the Signer it
// describes (spec §4.1, §6). Passwords for file-keystore entries are read
// from the referenced password file.
func LoadFile(ctx context.Context, path string) (signing.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	switch raw.Type {
	case TypeFileRaw:
		return loadFileRaw(raw)
	case TypeFileKeystore:
		return loadFileKeystore(raw)
	case TypeHashicorp:
		return hashivault.LoadKey(hashivault.Config{
			ServerHost:         raw.ServerHost,
			ServerPort:         raw.ServerPort,
			Timeout:            time.Duration(raw.Timeout) * time.Second,
			KeyPath:            raw.KeyPath,
			KeyName:            raw.KeyName,
			Token:              raw.Token,
			TLSEnabled:         raw.TLSEnabled,
			TLSKnownServerFile: raw.TLSKnownServerFile,
			KeyType:            string(raw.KeyType),
		})
	case TypeAzureSecret:
		return azurevault.LoadSecret(ctx, azurevault.Config{
			ClientID: raw.ClientID, ClientSecret: raw.ClientSecret, TenantID: raw.TenantID,
			VaultName: raw.VaultName, SecretName: raw.SecretName, KeyType: string(raw.KeyType),
		})
	case TypeAzureKey:
		return azurevault.LoadKey(ctx, azurevault.Config{
			ClientID: raw.ClientID, ClientSecret: raw.ClientSecret, TenantID: raw.TenantID,
			VaultName: raw.VaultName, KeyName: raw.KeyName, KeyType: string(raw.KeyType),
		})
	case TypeAWSSecret:
		return awsvault.LoadSecret(ctx, awsvault.Config{
			AuthenticationMode: raw.AuthenticationMode, Region: raw.Region,
			AccessKeyID: raw.AccessKeyID, SecretAccessKey: raw.SecretAccessKey,
			SecretName: raw.SecretName, KeyType: string(raw.KeyType),
		})
	case TypeAWSKMS:
		return awsvault.LoadKMS(ctx, awsvault.Config{
			AuthenticationMode: raw.AuthenticationMode, Region: raw.Region,
			AccessKeyID: raw.AccessKeyID, SecretAccessKey: raw.SecretAccessKey,
			KMSKeyID: raw.KMSKeyID, EndpointOverride: raw.EndpointOverride, KeyType: string(raw.KeyType),
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
}

func loadFileRaw(raw rawFile) (signing.Signer, error) {
	if raw.PrivateKey == "" {
		return nil, fmt.Errorf("%w: privateKey", ErrMissingField)
	}
	keyBytes, err := decodeHexField(raw.PrivateKey)
	if err != nil {
		return nil, err
	}
	switch raw.KeyType {
	case KeyTypeBLS:
		key, err := bls.PrivateKeyFromBytes(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}
		return signing.NewBLSSigner(key), nil
	case KeyTypeSECP256K1:
		key, err := secpsign.PrivateKeyFromBytes(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}
		return signing.NewSecpLocalSigner(key, nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKey, raw.KeyType)
	}
}

func loadFileKeystore(raw rawFile) (signing.Signer, error) {
	if raw.KeystoreFile == "" || raw.KeystorePasswordFile == "" {
		return nil, fmt.Errorf("%w: keystoreFile/keystorePasswordFile", ErrMissingField)
	}
	ksData, err := os.ReadFile(raw.KeystoreFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	pwData, err := os.ReadFile(raw.KeystorePasswordFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	ks, err := keystorefile.UnmarshalFile(ksData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	plain, err := keystorefile.Decrypt(ks, string(trimNewline(pwData)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeystoreDecrypt, err)
	}
	switch raw.KeyType {
	case KeyTypeBLS:
		key, err := bls.PrivateKeyFromBytes(plain)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}
		return signing.NewBLSSigner(key), nil
	case KeyTypeSECP256K1:
		key, err := secpsign.PrivateKeyFromBytes(plain)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}
		return signing.NewSecpLocalSigner(key, nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKey, raw.KeyType)
	}
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func decodeHexField(s string) ([]byte, error) {
	b, err := common.DecodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return b, nil
}
