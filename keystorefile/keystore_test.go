package keystorefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	priv := []byte("01234567890123456789012345678901")
	ks, err := Encrypt(priv, "0xabc", "BLS", "correct horse battery staple")
	require.NoError(t, err)

	got, err := Decrypt(ks, "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, priv, got)
}

func TestDecryptWrongPasswordFails(t *testing.T) {
	ks, err := Encrypt([]byte("secret-key-material"), "0xabc", "BLS", "right-password")
	require.NoError(t, err)

	_, err = Decrypt(ks, "wrong-password")
	require.ErrorIs(t, err, ErrInvalidMAC)
}

func TestWriteAndDeleteKeystoreTriple(t *testing.T) {
	dir := t.TempDir()
	tr := ForPublicKey(dir, "0xabc123")

	err := WriteKeystore(tr, []byte("secret"), "0xabc123", "BLS", "pw", "type: file-keystore\n")
	require.NoError(t, err)

	for _, p := range []string{tr.KeystorePath, tr.PasswordPath, tr.MetadataPath} {
		_, statErr := os.Stat(p)
		require.NoError(t, statErr)
	}

	require.NoError(t, DeleteKeystoreFiles(tr))

	for _, p := range []string{tr.KeystorePath, tr.PasswordPath, tr.MetadataPath} {
		_, statErr := os.Stat(p)
		require.True(t, os.IsNotExist(statErr))
	}
}

func TestDeleteKeystoreFilesMissingIsNotError(t *testing.T) {
	dir := t.TempDir()
	tr := ForPublicKey(dir, "0xdoesnotexist")
	require.NoError(t, DeleteKeystoreFiles(tr))
	_ = filepath.Join(dir, "unused")
}
