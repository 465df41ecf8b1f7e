// Package azurevault loads signers from Azure, either as raw BLS or
// secp256k1 private keys stored in an Azure Key Vault secret
// ("azure-secret") or as secp256k1 keys held inside the vault's HSM and
// signed remotely ("azure-key").
// Only the two capabilities spec §1 calls out — "fetch a secret by name"
// and "sign a digest by key id" — cross into this service; the rest of
// the Azure SDK surface stays behind azidentity/azsecrets/azkeys.
package azurevault

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/signing"
)

// Config carries the azure-secret / azure-key metadata fields (spec §6).
type Config struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	VaultName    string
	SecretName   string
	KeyName      string // azure-key only
	KeyType      string // "BLS" or "SECP256K1"
}

func (c Config) vaultURL() string {
	return fmt.Sprintf("https://%s.vault.azure.net/", c.VaultName)
}

func (c Config) credential() (azcore.TokenCredential, error) {
	return azidentity.NewClientSecretCredential(c.TenantID, c.ClientID, c.ClientSecret, nil)
}

// LoadSecret fetches a raw hex-encoded private key from an Azure Key Vault
// secret (azure-secret) and builds a local BLS or secp256k1 signer from it.
func LoadSecret(ctx context.Context, cfg Config) (signing.Signer, error) {
	cred, err := cfg.credential()
	if err != nil {
		return nil, fmt.Errorf("azurevault: credential: %w", err)
	}
	client, err := azsecrets.NewClient(cfg.vaultURL(), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azurevault: client: %w", err)
	}
	resp, err := client.GetSecret(ctx, cfg.SecretName, "", nil)
	if err != nil {
		return nil, fmt.Errorf("azurevault: get secret %q: %w", cfg.SecretName, err)
	}
	if resp.Value == nil {
		return nil, fmt.Errorf("azurevault: secret %q has no value", cfg.SecretName)
	}
	raw, err := common.DecodeHex(*resp.Value)
	if err != nil {
		return nil, fmt.Errorf("azurevault: decode secret hex: %w", err)
	}
	return signerFromRawKey(cfg.KeyType, raw)
}

// digestSignerAdapter implements signing.DigestSigner over an azkeys client.
type digestSignerAdapter struct {
	client  *azkeys.Client
	keyName string
}

func (a *digestSignerAdapter) SignDigest(ctx context.Context, digest []byte) ([]byte, error) {
	alg := azkeys.SignatureAlgorithmES256K
	resp, err := a.client.Sign(ctx, a.keyName, "", azkeys.SignParameters{
		Algorithm: &alg,
		Value:     digest,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("azurevault: sign: %w", err)
	}
	return resp.Result, nil
}

// LoadKey builds a secp256k1 signer backed by a key held inside the vault
// (azure-key). The vault's Sign operation returns an IEEE P1363 (R‖S)
// signature without a recovery id, which signing.CloudSecpSigner resolves
// by recId search (spec §4.2).
func LoadKey(ctx context.Context, cfg Config) (signing.Signer, error) {
	cred, err := cfg.credential()
	if err != nil {
		return nil, fmt.Errorf("azurevault: credential: %w", err)
	}
	client, err := azkeys.NewClient(cfg.vaultURL(), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azurevault: client: %w", err)
	}
	keyResp, err := client.GetKey(ctx, cfg.KeyName, "", nil)
	if err != nil {
		return nil, fmt.Errorf("azurevault: get key %q: %w", cfg.KeyName, err)
	}
	pubkeyXY, pubkeyCompressed, err := ecPointFromJSONWebKey(keyResp.Key)
	if err != nil {
		return nil, err
	}
	adapter := &digestSignerAdapter{client: client, keyName: cfg.KeyName}
	return signing.NewCloudSecpSigner(adapter, pubkeyCompressed, pubkeyXY, signing.WireFormatP1363, true), nil
}

// BulkLoad enumerates every enabled secret in the vault under the
// azure-secret convention, returning the built signers and a count of
// entries that failed to parse (per-entry errors never abort the batch).
func BulkLoad(ctx context.Context, cfg Config) ([]signing.Signer, int, error) {
	cred, err := cfg.credential()
	if err != nil {
		return nil, 0, fmt.Errorf("azurevault: credential: %w", err)
	}
	client, err := azsecrets.NewClient(cfg.vaultURL(), cred, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("azurevault: client: %w", err)
	}

	var signers []signing.Signer
	errCount := 0
	pager := client.NewListSecretPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return signers, errCount, fmt.Errorf("azurevault: list secrets: %w", err)
		}
		for _, item := range page.Value {
			if item.ID == nil || item.Attributes == nil || item.Attributes.Enabled == nil || !*item.Attributes.Enabled {
				continue
			}
			name := item.ID.Name()
			resp, err := client.GetSecret(ctx, name, "", nil)
			if err != nil || resp.Value == nil {
				errCount++
				continue
			}
			raw, err := common.DecodeHex(*resp.Value)
			if err != nil {
				errCount++
				continue
			}
			s, err := signerFromRawKey(cfg.KeyType, raw)
			if err != nil {
				errCount++
				continue
			}
			signers = append(signers, s)
		}
	}
	return signers, errCount, nil
}
