package keystorefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Triple is the on-disk location of one validator's keystore, password,
// and metadata files (spec §4.5).
type Triple struct {
	KeystorePath string
	PasswordPath string
	MetadataPath string
}

// ForPublicKey derives the conventional triple of file paths for a
// validator under dir, named after its hex public key.
func ForPublicKey(dir, pubkeyHex string) Triple {
	name := strings.TrimPrefix(pubkeyHex, "0x")
	return Triple{
		KeystorePath: filepath.Join(dir, name+".json"),
		PasswordPath: filepath.Join(dir, name+".txt"),
		MetadataPath: filepath.Join(dir, name+".yaml"),
	}
}

// WriteKeystore encrypts privateKey and writes it, its password, and its
// metadata file as one triple, fsyncing the keystore file before return.
func WriteKeystore(t Triple, privateKey []byte, pubkeyHex, keyType, password, metadataYAML string) error {
	ks, err := Encrypt(privateKey, pubkeyHex, keyType, password)
	if err != nil {
		return err
	}
	data, err := MarshalFile(ks)
	if err != nil {
		return err
	}
	if err := writeAndSync(t.KeystorePath, data, 0o600); err != nil {
		return fmt.Errorf("keystorefile: write keystore: %w", err)
	}
	if err := writeAndSync(t.PasswordPath, []byte(password), 0o600); err != nil {
		return fmt.Errorf("keystorefile: write password: %w", err)
	}
	if metadataYAML != "" {
		if err := writeAndSync(t.MetadataPath, []byte(metadataYAML), 0o600); err != nil {
			return fmt.Errorf("keystorefile: write metadata: %w", err)
		}
	}
	return nil
}

func writeAndSync(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// DeleteKeystoreFiles removes the keystore, password, and metadata files
// for a public key, one after another. The removal is not atomic: it stops
// at the first failure to remove a file that exists, and files removed
// before that failure stay removed. The failure is surfaced with the
// message shape of spec §4.5.
func DeleteKeystoreFiles(t Triple) error {
	for _, path := range []string{t.KeystorePath, t.PasswordPath, t.MetadataPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("Error deleting keystore file: %w", err)
		}
	}
	return nil
}
