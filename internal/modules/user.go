package modules

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/gvmtool/gvm/internal/catalog"
)

// User sets a password for the VM user and grants passwordless sudo. The
// password is required by sudo prompts and desktop login screens; it is
// generated fresh each run and surfaced through the progress stream.
type User struct{}

func sudoersPath(user string) string {
	return filepath.Join("/etc/sudoers.d", user+"-nopasswd")
}

// Check implements catalog.Capability.
func (u *User) Check(rc *catalog.RunContext) (bool, string) {
	if rc.Markers.Done("user") {
		return true, "completion marker present"
	}
	if _, err := os.Stat(sudoersPath(rc.Config.Environment.VMUser)); err == nil {
		return true, "passwordless sudo already configured"
	}
	return false, "VM user not configured"
}

// Apply implements catalog.Capability.
func (u *User) Apply(ctx context.Context, rc *catalog.RunContext, progress catalog.ProgressFunc) error {
	user := rc.Config.Environment.VMUser

	progress("generating password for " + user)
	password, err := generatePassword(12)
	if err != nil {
		return catalog.Fail("user", "password generation failed", err)
	}

	progress("setting password")
	if rc.DryRun {
		rc.Log.Info("dry-run: would set password via chpasswd", "user", user)
	} else {
		if _, err := rc.Runner.RunInput(ctx, fmt.Sprintf("%s:%s\n", user, password),
			"sudo", "chpasswd"); err != nil {
			return catalog.Fail("user", "chpasswd failed", err)
		}
		progress(fmt.Sprintf("password for %s: %s (note it down)", user, password))
	}

	progress("configuring passwordless sudo")
	if err := u.writeSudoers(ctx, rc, user); err != nil {
		return catalog.Fail("user", "sudoers configuration failed", err)
	}

	progress("VM user configuration complete")
	return nil
}

// Fix implements catalog.Capability.
func (u *User) Fix(ctx context.Context, rc *catalog.RunContext) error {
	if err := rc.Markers.Clear("user"); err != nil {
		return err
	}
	return u.Apply(ctx, rc, func(string) {})
}

// writeSudoers installs the NOPASSWD rule through visudo validation: the
// candidate file is syntax-checked before it is copied into sudoers.d, so a
// bad rule can never lock sudo out.
func (u *User) writeSudoers(ctx context.Context, rc *catalog.RunContext, user string) error {
	target := sudoersPath(user)
	content := fmt.Sprintf("# gvm: allow %s to run sudo without a password\n%s ALL=(ALL) NOPASSWD: ALL\n",
		user, user)

	if rc.DryRun {
		rc.Log.Info("dry-run: would write sudoers rule", "path", target)
		return nil
	}

	tmp, err := os.CreateTemp("", "gvm-sudoers-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if out, err := rc.Runner.Run(ctx, "sudo", "visudo", "-c", "-f", tmpPath); err != nil {
		return fmt.Errorf("invalid sudoers syntax: %w: %s", err, out)
	}
	if _, err := rc.Runner.Run(ctx, "sudo", "cp", tmpPath, target); err != nil {
		return err
	}
	if _, err := rc.Runner.Run(ctx, "sudo", "chmod", "440", target); err != nil {
		return err
	}
	if _, err := rc.Runner.Run(ctx, "sudo", "chown", "root:root", target); err != nil {
		return err
	}
	return nil
}

// generatePassword draws length characters from an unambiguous alphabet
// (no 0/O, 1/l/I) using crypto/rand.
func generatePassword(length int) (string, error) {
	const alphabet = "abcdefghijkmnopqrstuvwxyzACDEFGHJKLMNPQRSTUVWXYZ23456789"
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
