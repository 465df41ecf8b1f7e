// Package metadata parses the per-key YAML metadata files described in
// spec §6 into signing.Signer instances, plus the bulk cloud-vault loaders
// that enumerate many keys from one credential set.
package metadata

import "errors"

// FileType discriminates the YAML metadata file shapes in spec §6.
type FileType string

const (
	TypeFileRaw      FileType = "file-raw"
	TypeFileKeystore FileType = "file-keystore"
	TypeHashicorp    FileType = "hashicorp"
	TypeAzureSecret  FileType = "azure-secret"
	TypeAzureKey     FileType = "azure-key"
	TypeAWSSecret    FileType = "aws-secret"
	TypeAWSKMS       FileType = "aws-kms"
)

// KeyType mirrors signing.KeyType in string form, as written in YAML files.
type KeyType string

const (
	KeyTypeBLS       KeyType = "BLS"
	KeyTypeSECP256K1 KeyType = "SECP256K1"
)

var (
	ErrUnknownType     = errors.New("metadata: unknown metadata file type")
	ErrMissingField    = errors.New("metadata: missing required field")
	ErrUnsupportedKey  = errors.New("metadata: unsupported key type for this backend")
	ErrParseFailed     = errors.New("metadata: failed to parse metadata file")
	ErrKeystoreDecrypt = errors.New("metadata: failed to decrypt keystore")
)

// rawFile is the superset of fields across every FileType, unmarshalled
// once and then validated per discriminator.
type rawFile struct {
	Type    FileType `yaml:"type"`
	KeyType KeyType  `yaml:"keyType"`

	// file-raw
	PrivateKey string `yaml:"privateKey"`

	// file-keystore
	KeystoreFile         string `yaml:"keystoreFile"`
	KeystorePasswordFile string `yaml:"keystorePasswordFile"`

	// hashicorp
	ServerHost         string `yaml:"serverHost"`
	ServerPort         int    `yaml:"serverPort"`
	Timeout            int    `yaml:"timeout"`
	KeyPath            string `yaml:"keyPath"`
	KeyName            string `yaml:"keyName"`
	Token              string `yaml:"token"`
	TLSEnabled         bool   `yaml:"tlsEnabled"`
	TLSKnownServerFile string `yaml:"tlsKnownServerFile"`

	// azure-secret / azure-key
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	TenantID     string `yaml:"tenantId"`
	VaultName    string `yaml:"vaultName"`
	SecretName   string `yaml:"secretName"`

	// aws-secret / aws-kms
	AuthenticationMode string `yaml:"authenticationMode"`
	Region             string `yaml:"region"`
	AccessKeyID        string `yaml:"accessKeyId"`
	SecretAccessKey    string `yaml:"secretAccessKey"`
	KMSKeyID           string `yaml:"kmsKeyId"`
	EndpointOverride   string `yaml:"endpointOverride"`
}
