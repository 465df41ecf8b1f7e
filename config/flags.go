package config

import "github.com/urfave/cli/v2"

// These mirror the documented flag surface of spec.md §6: metadata options,
// the slashing-protection DB/pruning knobs, the cloud-vault bulk-loading
// options, the optional API surfaces, and the Commit-Boost proxy-keystore
// settings. Subcommand-specific flags live alongside their cli.Command in
// cmd/tos-signer.
var (
	HTTPListenFlag = &cli.StringFlag{
		Name:     "http-listen-address",
		Usage:    "Address the HTTP server binds to",
		Value:    "0.0.0.0",
		Category: CategoryHTTP,
	}
	HTTPPortFlag = &cli.IntFlag{
		Name:     "http-listen-port",
		Usage:    "Port the HTTP server binds to",
		Value:    9000,
		Category: CategoryHTTP,
	}

	KeyStorePathFlag = &cli.StringFlag{
		Name:     "key-store-path",
		Usage:    "Directory of per-key YAML metadata files",
		Category: CategoryMetadata,
	}
	KeyStorePasswordFileFlag = &cli.StringFlag{
		Name:     "key-store-password-file",
		Usage:    "Shared password file for keystore-backed metadata entries",
		Category: CategoryMetadata,
	}

	SlashingProtectionDBURLFlag = &cli.StringFlag{
		Name:     "slashing-protection-db-url",
		Usage:    "Data source name for the slashing-protection database",
		Value:    "signer_slashing_protection.db",
		Category: CategorySlashing,
	}
	SlashingProtectionPruningEnabledFlag = &cli.BoolFlag{
		Name:     "slashing-protection-pruning-enabled",
		Usage:    "Prune signed-block/attestation history below the low watermark on startup",
		Category: CategorySlashing,
	}
	SlashingProtectionPruningEpochsToKeepFlag = &cli.Uint64Flag{
		Name:     "slashing-protection-pruning-epochs-to-keep",
		Usage:    "Number of epochs of history to retain per validator when pruning",
		Value:    10,
		Category: CategorySlashing,
	}
	SlashingProtectionPruningSlotsPerEpochFlag = &cli.Uint64Flag{
		Name:     "slashing-protection-pruning-slots-per-epoch",
		Usage:    "Slots per epoch, used to convert the pruning window into a slot count",
		Value:    32,
		Category: CategorySlashing,
	}

	AzureVaultEnabledFlag = &cli.BoolFlag{
		Name:     "azure-vault-enabled",
		Usage:    "Bulk-load secp256k1/BLS signers from an Azure Key Vault",
		Category: CategoryVault,
	}
	AzureVaultNameFlag = &cli.StringFlag{
		Name:     "azure-vault-name",
		Usage:    "Azure Key Vault name to bulk-load secrets from",
		Category: CategoryVault,
	}
	AzureClientIDFlag     = &cli.StringFlag{Name: "azure-client-id", Category: CategoryVault}
	AzureClientSecretFlag = &cli.StringFlag{Name: "azure-client-secret", Category: CategoryVault}
	AzureTenantIDFlag     = &cli.StringFlag{Name: "azure-tenant-id", Category: CategoryVault}
	AzureVaultKeyTypeFlag = &cli.StringFlag{
		Name:     "azure-vault-key-type",
		Usage:    "Key type (BLS or SECP256K1) of every secret bulk-loaded from the Azure Key Vault",
		Category: CategoryVault,
	}

	AWSSecretsEnabledFlag = &cli.BoolFlag{
		Name:     "aws-secrets-enabled",
		Usage:    "Bulk-load secp256k1/BLS signers from AWS Secrets Manager",
		Category: CategoryVault,
	}
	AWSRegionFlag             = &cli.StringFlag{Name: "aws-region", Category: CategoryVault}
	AWSAuthenticationModeFlag = &cli.StringFlag{Name: "aws-authentication-mode", Value: "ENVIRONMENT", Category: CategoryVault}
	AWSAccessKeyIDFlag        = &cli.StringFlag{Name: "aws-access-key-id", Category: CategoryVault}
	AWSSecretAccessKeyFlag    = &cli.StringFlag{Name: "aws-secret-access-key", Category: CategoryVault}
	AWSSecretsKeyTypeFlag     = &cli.StringFlag{
		Name:     "aws-secrets-key-type",
		Usage:    "Key type (BLS or SECP256K1) of every secret bulk-loaded from AWS Secrets Manager",
		Category: CategoryVault,
	}

	GCPVaultEnabledFlag = &cli.BoolFlag{
		Name:     "gcp-vault-enabled",
		Usage:    "Bulk-load secp256k1/BLS signers from GCP Secret Manager",
		Category: CategoryVault,
	}
	GCPVaultProjectIDFlag = &cli.StringFlag{Name: "gcp-vault-project-id", Category: CategoryVault}
	GCPVaultKeyTypeFlag   = &cli.StringFlag{
		Name:     "gcp-vault-key-type",
		Usage:    "Key type (BLS or SECP256K1) of every secret bulk-loaded from GCP Secret Manager",
		Category: CategoryVault,
	}

	KeyManagerAPIEnabledFlag = &cli.BoolFlag{
		Name:     "key-manager-api-enabled",
		Usage:    "Expose the Key Manager API (/eth/v1/keystores, /eth/v1/remotekeys)",
		Category: CategoryAPI,
	}
	CommitBoostAPIEnabledFlag = &cli.BoolFlag{
		Name:     "commit-boost-api-enabled",
		Usage:    "Expose the Commit-Boost signing/proxy-key API",
		Category: CategoryAPI,
	}

	ProxyKeystoresPathFlag = &cli.StringFlag{
		Name:     "proxy-keystores-path",
		Usage:    "Root directory proxy keystores are written under and loaded from",
		Category: CategoryCommitBoost,
	}
	ProxyKeystoresPasswordFileFlag = &cli.StringFlag{
		Name:     "proxy-keystores-password-file",
		Usage:    "Shared password file proxy keystores are encrypted with",
		Category: CategoryCommitBoost,
	}
	GenesisForkVersionFlag = &cli.StringFlag{
		Name:     "Xgenesis-fork-version",
		Usage:    "Hex-encoded 4-byte genesis fork version used to compute Commit-Boost domains",
		Category: CategoryCommitBoost,
	}
	GenesisValidatorsRootFlag = &cli.StringFlag{
		Name:     "Xgenesis-validators-root",
		Usage:    "Hex-encoded 32-byte genesis validators root the slashing store is pinned to",
		Category: CategorySlashing,
	}
)

// AllFlags is the full flag set shared by every subcommand.
func AllFlags() []cli.Flag {
	return []cli.Flag{
		HTTPListenFlag, HTTPPortFlag,
		KeyStorePathFlag, KeyStorePasswordFileFlag,
		SlashingProtectionDBURLFlag,
		SlashingProtectionPruningEnabledFlag,
		SlashingProtectionPruningEpochsToKeepFlag,
		SlashingProtectionPruningSlotsPerEpochFlag,
		AzureVaultEnabledFlag, AzureVaultNameFlag, AzureClientIDFlag, AzureClientSecretFlag, AzureTenantIDFlag, AzureVaultKeyTypeFlag,
		AWSSecretsEnabledFlag, AWSRegionFlag, AWSAuthenticationModeFlag, AWSAccessKeyIDFlag, AWSSecretAccessKeyFlag, AWSSecretsKeyTypeFlag,
		GCPVaultEnabledFlag, GCPVaultProjectIDFlag, GCPVaultKeyTypeFlag,
		KeyManagerAPIEnabledFlag, CommitBoostAPIEnabledFlag,
		ProxyKeystoresPathFlag, ProxyKeystoresPasswordFileFlag,
		GenesisForkVersionFlag, GenesisValidatorsRootFlag,
	}
}
