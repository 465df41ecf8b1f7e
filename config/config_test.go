package config

import (
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range AllFlags() {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestFromContextDefaults(t *testing.T) {
	c := newContext(t)
	cfg, err := FromContext(c)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.HTTPListenAddress)
	require.Equal(t, 9000, cfg.HTTPListenPort)
	require.False(t, cfg.AzureVaultEnabled)
	require.False(t, cfg.CommitBoostAPIEnabled)
}

func TestFromContextAzureEnabledRequiresName(t *testing.T) {
	c := newContext(t, "--azure-vault-enabled")
	_, err := FromContext(c)
	require.Error(t, err)
}

func TestFromContextAzureEnabledWithName(t *testing.T) {
	c := newContext(t, "--azure-vault-enabled", "--azure-vault-name", "myvault", "--azure-vault-key-type", "BLS")
	cfg, err := FromContext(c)
	require.NoError(t, err)
	require.Equal(t, "myvault", cfg.AzureVault.VaultName)
	require.Equal(t, "BLS", cfg.AzureVault.KeyType)
}

func TestFromContextAzureEnabledRequiresKeyType(t *testing.T) {
	c := newContext(t, "--azure-vault-enabled", "--azure-vault-name", "myvault")
	_, err := FromContext(c)
	require.Error(t, err)
}

func TestFromContextAWSEnabledRequiresRegionAndKeyType(t *testing.T) {
	c := newContext(t, "--aws-secrets-enabled")
	_, err := FromContext(c)
	require.Error(t, err)

	c = newContext(t, "--aws-secrets-enabled", "--aws-region", "us-east-1")
	_, err = FromContext(c)
	require.Error(t, err, "missing key type must also fail")

	c = newContext(t, "--aws-secrets-enabled", "--aws-region", "us-east-1", "--aws-secrets-key-type", "SECP256K1")
	cfg, err := FromContext(c)
	require.NoError(t, err)
	require.Equal(t, "SECP256K1", cfg.AWSVault.KeyType)
}

func TestFromContextGCPEnabledRequiresProjectAndKeyType(t *testing.T) {
	c := newContext(t, "--gcp-vault-enabled")
	_, err := FromContext(c)
	require.Error(t, err)

	c = newContext(t, "--gcp-vault-enabled", "--gcp-vault-project-id", "my-project", "--gcp-vault-key-type", "BLS")
	cfg, err := FromContext(c)
	require.NoError(t, err)
	require.Equal(t, "my-project", cfg.GCPVault.ProjectID)
	require.Equal(t, "BLS", cfg.GCPVault.KeyType)
}

func TestFromContextCommitBoostRequiresProxyPaths(t *testing.T) {
	c := newContext(t, "--commit-boost-api-enabled")
	_, err := FromContext(c)
	require.Error(t, err)
}

func TestFromContextGenesisValidatorsRoot(t *testing.T) {
	root := "0x11" + strings.Repeat("22", 31)
	c := newContext(t, "--Xgenesis-validators-root", root)
	cfg, err := FromContext(c)
	require.NoError(t, err)
	require.Equal(t, byte(0x11), cfg.GenesisValidatorsRoot[0])
}

func TestFromContextBadGenesisValidatorsRootLength(t *testing.T) {
	c := newContext(t, "--Xgenesis-validators-root", "0xdead")
	_, err := FromContext(c)
	require.Error(t, err)
}
