// Package gcpvault bulk-loads secp256k1/BLS private keys stored as GCP
// Secret Manager secret versions, one of the three cloud bulk loaders
// spec §2 calls out alongside azurevault and awsvault.
package gcpvault

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/crypto/secpsign"
	"github.com/tos-network/tos-signer/signing"
)

// Config carries the GCP project to enumerate secrets from.
type Config struct {
	ProjectID string
	KeyType   string
}

// BulkLoad lists every secret under the project and attempts to
// parse its latest version as a hex-encoded private key. Per-entry parse
// failures are counted, never fatal (spec §7).
func BulkLoad(ctx context.Context, cfg Config) ([]signing.Signer, int, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("gcpvault: client: %w", err)
	}
	defer client.Close()

	var signers []signing.Signer
	errCount := 0

	it := client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent: fmt.Sprintf("projects/%s", cfg.ProjectID),
	})
	for {
		secret, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return signers, errCount, fmt.Errorf("gcpvault: list secrets: %w", err)
		}
		versionName := secret.Name + "/versions/latest"
		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: versionName})
		if err != nil {
			errCount++
			continue
		}
		raw, err := common.DecodeHex(strings.TrimSpace(string(resp.Payload.Data)))
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
	return signers, errCount, nil
}

func signerFromRawKey(keyType string, raw []byte) (signing.Signer, error) {
	switch keyType {
	case "BLS":
		key, err := bls.PrivateKeyFromBytes(raw)
		if err != nil {
			return nil, err
		}
		return signing.NewBLSSigner(key), nil
	case "SECP256K1":
		key, err := secpsign.PrivateKeyFromBytes(raw)
		if err != nil {
			return nil, err
		}
		return signing.NewSecpLocalSigner(key, nil), nil
	default:
		return nil, fmt.Errorf("gcpvault: unsupported key type %q", keyType)
	}
}
