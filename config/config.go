// Package config turns a parsed *cli.Context into the typed Config the
// cmd/tos-signer entrypoint wires into the registry, slashing store, proxy
// generator, and HTTP server (spec §6's documented flag surface).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/metadata/awsvault"
	"github.com/tos-network/tos-signer/metadata/azurevault"
	"github.com/tos-network/tos-signer/metadata/gcpvault"
)

// Config is the fully-resolved, validated set of runtime parameters for one
// process invocation.
type Config struct {
	HTTPListenAddress string
	HTTPListenPort    int

	KeyStorePath         string
	KeyStorePasswordFile string

	SlashingProtectionDBURL                string
	SlashingProtectionPruningEnabled       bool
	SlashingProtectionPruningEpochsToKeep  uint64
	SlashingProtectionPruningSlotsPerEpoch uint64

	AzureVaultEnabled bool
	AzureVault        azurevault.Config

	AWSSecretsEnabled bool
	AWSVault          awsvault.Config

	GCPVaultEnabled bool
	GCPVault        gcpvault.Config

	KeyManagerAPIEnabled  bool
	CommitBoostAPIEnabled bool

	ProxyKeystoresPath         string
	ProxyKeystoresPasswordFile string
	GenesisForkVersion         [4]byte
	GenesisValidatorsRoot      [32]byte
}

// FromContext builds a Config from c, validating the cross-flag
// dependencies that a single cli.Flag definition cannot express (e.g.
// --azure-vault-enabled requiring --azure-vault-name).
func FromContext(c *cli.Context) (*Config, error) {
	cfg := &Config{
		HTTPListenAddress: c.String(HTTPListenFlag.Name),
		HTTPListenPort:    c.Int(HTTPPortFlag.Name),

		KeyStorePath:         c.String(KeyStorePathFlag.Name),
		KeyStorePasswordFile: c.String(KeyStorePasswordFileFlag.Name),

		SlashingProtectionDBURL:                c.String(SlashingProtectionDBURLFlag.Name),
		SlashingProtectionPruningEnabled:       c.Bool(SlashingProtectionPruningEnabledFlag.Name),
		SlashingProtectionPruningEpochsToKeep:  c.Uint64(SlashingProtectionPruningEpochsToKeepFlag.Name),
		SlashingProtectionPruningSlotsPerEpoch: c.Uint64(SlashingProtectionPruningSlotsPerEpochFlag.Name),

		AzureVaultEnabled: c.Bool(AzureVaultEnabledFlag.Name),
		AWSSecretsEnabled: c.Bool(AWSSecretsEnabledFlag.Name),
		GCPVaultEnabled:   c.Bool(GCPVaultEnabledFlag.Name),

		KeyManagerAPIEnabled:  c.Bool(KeyManagerAPIEnabledFlag.Name),
		CommitBoostAPIEnabled: c.Bool(CommitBoostAPIEnabledFlag.Name),

		ProxyKeystoresPath:         c.String(ProxyKeystoresPathFlag.Name),
		ProxyKeystoresPasswordFile: c.String(ProxyKeystoresPasswordFileFlag.Name),
	}

	if cfg.AzureVaultEnabled {
		name := c.String(AzureVaultNameFlag.Name)
		if name == "" {
			return nil, fmt.Errorf("config: --%s requires --%s", AzureVaultEnabledFlag.Name, AzureVaultNameFlag.Name)
		}
		keyType := c.String(AzureVaultKeyTypeFlag.Name)
		if keyType == "" {
			return nil, fmt.Errorf("config: --%s requires --%s", AzureVaultEnabledFlag.Name, AzureVaultKeyTypeFlag.Name)
		}
		cfg.AzureVault = azurevault.Config{
			ClientID:     c.String(AzureClientIDFlag.Name),
			ClientSecret: c.String(AzureClientSecretFlag.Name),
			TenantID:     c.String(AzureTenantIDFlag.Name),
			VaultName:    name,
			KeyType:      keyType,
		}
	}

	if cfg.AWSSecretsEnabled {
		region := c.String(AWSRegionFlag.Name)
		if region == "" {
			return nil, fmt.Errorf("config: --%s requires --%s", AWSSecretsEnabledFlag.Name, AWSRegionFlag.Name)
		}
		keyType := c.String(AWSSecretsKeyTypeFlag.Name)
		if keyType == "" {
			return nil, fmt.Errorf("config: --%s requires --%s", AWSSecretsEnabledFlag.Name, AWSSecretsKeyTypeFlag.Name)
		}
		cfg.AWSVault = awsvault.Config{
			AuthenticationMode: c.String(AWSAuthenticationModeFlag.Name),
			Region:             region,
			AccessKeyID:        c.String(AWSAccessKeyIDFlag.Name),
			SecretAccessKey:    c.String(AWSSecretAccessKeyFlag.Name),
			KeyType:            keyType,
		}
	}

	if cfg.GCPVaultEnabled {
		projectID := c.String(GCPVaultProjectIDFlag.Name)
		if projectID == "" {
			return nil, fmt.Errorf("config: --%s requires --%s", GCPVaultEnabledFlag.Name, GCPVaultProjectIDFlag.Name)
		}
		keyType := c.String(GCPVaultKeyTypeFlag.Name)
		if keyType == "" {
			return nil, fmt.Errorf("config: --%s requires --%s", GCPVaultEnabledFlag.Name, GCPVaultKeyTypeFlag.Name)
		}
		cfg.GCPVault = gcpvault.Config{ProjectID: projectID, KeyType: keyType}
	}

	if cfg.CommitBoostAPIEnabled {
		if cfg.ProxyKeystoresPath == "" || cfg.ProxyKeystoresPasswordFile == "" {
			return nil, fmt.Errorf("config: --%s requires --%s and --%s",
				CommitBoostAPIEnabledFlag.Name, ProxyKeystoresPathFlag.Name, ProxyKeystoresPasswordFileFlag.Name)
		}
		forkHex := c.String(GenesisForkVersionFlag.Name)
		if forkHex != "" {
			b, err := common.DecodeHex(forkHex)
			if err != nil || len(b) != 4 {
				return nil, fmt.Errorf("config: --%s must be 4 bytes of hex", GenesisForkVersionFlag.Name)
			}
			copy(cfg.GenesisForkVersion[:], b)
		}
	}

	if gvrHex := c.String(GenesisValidatorsRootFlag.Name); gvrHex != "" {
		b, err := common.DecodeHex(gvrHex)
		if err != nil || len(b) != 32 {
			return nil, fmt.Errorf("config: --%s must be 32 bytes of hex", GenesisValidatorsRootFlag.Name)
		}
		copy(cfg.GenesisValidatorsRoot[:], b)
	}

	return cfg, nil
}

// ReadPasswordFile reads a shared keystore password file, trimming a
// trailing newline the way operators commonly save one with a text editor.
func ReadPasswordFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: read password file %q: %w", path, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
