// Package hashivault loads private keys stored as secrets in a HashiCorp
// Vault KV path (metadata type "hashicorp", spec §6). Only the
// "fetch a secret by path" capability crosses into this service.
package hashivault

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/crypto/secpsign"
	"github.com/tos-network/tos-signer/signing"
)

// Config carries the hashicorp metadata fields (spec §6).
type Config struct {
	ServerHost         string
	ServerPort         int
	Timeout            time.Duration
	KeyPath            string
	KeyName            string
	Token              string
	TLSEnabled         bool
	TLSKnownServerFile string
	KeyType            string
}

func (c Config) addr() string {
	scheme := "http"
	if c.TLSEnabled {
		scheme = "https"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8200
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.ServerHost, port)
}

// LoadKey fetches the secret at cfg.KeyPath (field cfg.KeyName, default
// "value") and builds a local BLS or secp256k1 signer from it.
func LoadKey(cfg Config) (signing.Signer, error) {
	vcfg := vaultapi.DefaultConfig()
	vcfg.Address = cfg.addr()
	if cfg.Timeout > 0 {
		vcfg.Timeout = cfg.Timeout
	}
	if cfg.TLSEnabled {
		vcfg.HttpClient.Transport = &http.Transport{TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12}}
	}
	client, err := vaultapi.NewClient(vcfg)
	if err != nil {
		return nil, fmt.Errorf("hashivault: client: %w", err)
	}
	client.SetToken(cfg.Token)

	secret, err := client.Logical().Read(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("hashivault: read %q: %w", cfg.KeyPath, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("hashivault: no secret at %q", cfg.KeyPath)
	}

	field := cfg.KeyName
	if field == "" {
		field = "value"
	}
	raw, ok := secret.Data[field].(string)
	if !ok {
		return nil, fmt.Errorf("hashivault: field %q missing or not a string at %q", field, cfg.KeyPath)
	}
	keyBytes, err := common.DecodeHex(raw)
	if err != nil {
		return nil, fmt.Errorf("hashivault: decode key hex: %w", err)
	}

	switch cfg.KeyType {
	case "BLS":
		key, err := bls.PrivateKeyFromBytes(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("hashivault: bls key: %w", err)
		}
		return signing.NewBLSSigner(key), nil
	case "SECP256K1":
		key, err := secpsign.PrivateKeyFromBytes(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("hashivault: secp256k1 key: %w", err)
		}
		return signing.NewSecpLocalSigner(key, nil), nil
	default:
		return nil, fmt.Errorf("hashivault: unsupported key type %q", cfg.KeyType)
	}
}
