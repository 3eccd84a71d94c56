package keygen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestEd25519(t *testing.T) {
	pair, err := Ed25519("droid@vm")
	require.NoError(t, err)

	assert.Contains(t, string(pair.PrivateKey), "OPENSSH PRIVATE KEY")
	assert.True(t, strings.HasPrefix(string(pair.PublicKey), "ssh-ed25519 "))
	assert.Contains(t, string(pair.PublicKey), "droid@vm")

	_, _, _, _, err = ssh.ParseAuthorizedKey(pair.PublicKey)
	require.NoError(t, err)
}

func TestRSA(t *testing.T) {
	pair, err := RSA(2048, "")
	require.NoError(t, err)

	assert.Contains(t, string(pair.PrivateKey), "RSA PRIVATE KEY")
	assert.True(t, strings.HasPrefix(string(pair.PublicKey), "ssh-rsa "))

	_, _, _, _, err = ssh.ParseAuthorizedKey(pair.PublicKey)
	require.NoError(t, err)
}

func TestRSARejectsWeakKeys(t *testing.T) {
	_, err := RSA(1024, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2048")
}

func TestWriteTo(t *testing.T) {
	pair, err := Ed25519("droid@vm")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), ".ssh")
	require.NoError(t, pair.WriteTo(dir, "id_ed25519"))

	info, err := os.Stat(filepath.Join(dir, "id_ed25519"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	pub, err := os.ReadFile(filepath.Join(dir, "id_ed25519.pub"))
	require.NoError(t, err)
	assert.Equal(t, pair.PublicKey, pub)
}
