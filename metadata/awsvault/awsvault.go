// Package awsvault loads signers from AWS: raw BLS or secp256k1 private
// keys held in Secrets Manager ("aws-secret") or secp256k1 keys held
// inside KMS and signed remotely ("aws-kms"). As with azurevault, only "fetch a secret by name"
// and "sign a digest by key id" cross into this service.
package awsvault

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/crypto/secpsign"
	"github.com/tos-network/tos-signer/signing"
)

// Config carries the aws-secret / aws-kms metadata fields (spec §6).
type Config struct {
	AuthenticationMode string // "SPECIFIED" or "ENVIRONMENT"
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	SecretName         string // aws-secret
	KMSKeyID           string // aws-kms
	EndpointOverride   string
	KeyType            string
}

// LoadSecret fetches a raw hex-encoded private key from Secrets Manager and
// builds a local BLS or secp256k1 signer from it.
func LoadSecret(ctx context.Context, cfg Config) (signing.Signer, error) {
	awsCfg, err := newLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := secretsmanager.NewFromConfig(awsCfg.cfg)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &cfg.SecretName})
	if err != nil {
		return nil, fmt.Errorf("awsvault: get secret %q: %w", cfg.SecretName, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("awsvault: secret %q has no string value", cfg.SecretName)
	}
	raw, err := common.DecodeHex(*out.SecretString)
	if err != nil {
		return nil, fmt.Errorf("awsvault: decode secret hex: %w", err)
	}
	return signerFromRawKey(cfg.KeyType, raw)
}

// BulkLoad enumerates every secret in the configured region's Secrets
// Manager and parses each latest value as a hex-encoded private key,
// mirroring azurevault.BulkLoad and gcpvault.BulkLoad (spec §2's "bulk
// loaders (Azure/AWS/GCP)"). Per-entry failures are counted, never fatal
// (spec §7).
func BulkLoad(ctx context.Context, cfg Config) ([]signing.Signer, int, error) {
	awsCfg, err := newLoader(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	client := secretsmanager.NewFromConfig(awsCfg.cfg)

	var signers []signing.Signer
	errCount := 0

	var nextToken *string
	for {
		page, err := client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{NextToken: nextToken})
		if err != nil {
			return signers, errCount, fmt.Errorf("awsvault: list secrets: %w", err)
		}
		for _, entry := range page.SecretList {
			if entry.Name == nil {
				continue
			}
			out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: entry.Name})
			if err != nil || out.SecretString == nil {
				errCount++
				continue
			}
			raw, err := common.DecodeHex(*out.SecretString)
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
		if page.NextToken == nil {
			break
		}
		nextToken = page.NextToken
	}
	return signers, errCount, nil
}

func signerFromRawKey(keyType string, raw []byte) (signing.Signer, error) {
	switch keyType {
	case "BLS":
		key, err := bls.PrivateKeyFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("awsvault: bls key: %w", err)
		}
		return signing.NewBLSSigner(key), nil
	case "SECP256K1":
		key, err := secpsign.PrivateKeyFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("awsvault: secp256k1 key: %w", err)
		}
		return signing.NewSecpLocalSigner(key, nil), nil
	default:
		return nil, fmt.Errorf("awsvault: unsupported key type %q", keyType)
	}
}

type kmsDigestSigner struct {
	client *kms.Client
	keyID  string
}

func (s *kmsDigestSigner) SignDigest(ctx context.Context, digest []byte) ([]byte, error) {
	alg := types.SigningAlgorithmSpecEcdsaSha256
	msgType := types.MessageTypeDigest
	out, err := s.client.Sign(ctx, &kms.SignInput{
		KeyId:            &s.keyID,
		Message:          digest,
		MessageType:      msgType,
		SigningAlgorithm: alg,
	})
	if err != nil {
		return nil, fmt.Errorf("awsvault: kms sign: %w", err)
	}
	return out.Signature, nil
}

// LoadKMS builds a secp256k1 signer backed by a KMS asymmetric key
// (aws-kms). KMS returns a DER-encoded ECDSA signature without a recovery
// id; signing.CloudSecpSigner resolves it by recId search (spec §4.2).
func LoadKMS(ctx context.Context, cfg Config) (signing.Signer, error) {
	awsCfg, err := newLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := kms.NewFromConfig(awsCfg.cfg)
	pub, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: &cfg.KMSKeyID})
	if err != nil {
		return nil, fmt.Errorf("awsvault: get public key %q: %w", cfg.KMSKeyID, err)
	}
	xy, compressed, err := secp256k1PointFromDERSubjectPublicKey(pub.PublicKey)
	if err != nil {
		return nil, err
	}
	adapter := &kmsDigestSigner{client: client, keyID: cfg.KMSKeyID}
	return signing.NewCloudSecpSigner(adapter, compressed, xy, signing.WireFormatDER, true), nil
}

type resolved struct {
	cfg aws.Config
}

func newLoader(ctx context.Context, cfg Config) (resolved, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	if cfg.AuthenticationMode == "SPECIFIED" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return resolved{}, fmt.Errorf("awsvault: load config: %w", err)
	}
	return resolved{cfg: awsCfg}, nil
}
