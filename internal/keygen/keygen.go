// Package keygen generates SSH key pairs for the VM user.
//
// The ssh module uses it to seed ~/.ssh when the user has no key yet:
// an ed25519 pair by default, with RSA available for clients that cannot
// speak ed25519. Keys are produced in PEM and OpenSSH authorized_keys
// formats, ready to write to disk.
package keygen

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds a generated key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the PEM-encoded private key.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// Ed25519 generates an ed25519 key pair, the default for new VM users.
func Ed25519(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	privBlock, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ed25519 private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(privBlock),
		PublicKey:  authorizedKey(sshPub, comment),
	}, nil
}

// RSA generates an RSA key pair with the given bit size for clients that
// cannot use ed25519. 2048 is the minimum accepted size.
func RSA(bits int, comment string) (*KeyPair, error) {
	if bits < 2048 {
		return nil, fmt.Errorf("rsa key size %d is below the 2048-bit minimum", bits)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}
	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA key: %w", err)
	}

	privBlock := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}

	sshPub, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(&privBlock),
		PublicKey:  authorizedKey(sshPub, comment),
	}, nil
}

// WriteTo stores the pair under dir as <name> and <name>.pub with the
// permissions sshd requires. The directory is created mode 0700 if missing.
func (k *KeyPair) WriteTo(dir, name string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory %s: %w", dir, err)
	}
	privPath := filepath.Join(dir, name)
	if err := os.WriteFile(privPath, k.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("failed to write private key %s: %w", privPath, err)
	}
	pubPath := privPath + ".pub"
	if err := os.WriteFile(pubPath, k.PublicKey, 0o644); err != nil {
		return fmt.Errorf("failed to write public key %s: %w", pubPath, err)
	}
	return nil
}

func authorizedKey(pub ssh.PublicKey, comment string) []byte {
	line := ssh.MarshalAuthorizedKey(pub)
	if comment == "" {
		return line
	}
	// MarshalAuthorizedKey ends with a newline; splice the comment in.
	return append(append(line[:len(line)-1], ' '), append([]byte(comment), '\n')...)
}
