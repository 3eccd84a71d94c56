package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/keygen"
	"github.com/gvmtool/gvm/internal/sysutil"
)

const sshdConfPath = "/etc/ssh/sshd_config.d/99-gvm.conf"

// SSH installs openssh-server, writes the hardened sshd drop-in, seeds the
// VM user's key pair and (re)starts the service.
type SSH struct{}

// Check implements catalog.Capability.
func (s *SSH) Check(rc *catalog.RunContext) (bool, string) {
	if rc.Markers.Done("ssh") {
		return true, "completion marker present"
	}
	if sysutil.PortListening(rc.Config.Ports.SSHForward) {
		return true, fmt.Sprintf("sshd already listening on port %d", rc.Config.Ports.SSHForward)
	}
	return false, "sshd not listening"
}

// Apply implements catalog.Capability.
func (s *SSH) Apply(ctx context.Context, rc *catalog.RunContext, progress catalog.ProgressFunc) error {
	progress("installing openssh-server")
	if err := InstallPackages(ctx, rc, progress, []string{"openssh-server"}); err != nil {
		return catalog.Fail("ssh", "openssh-server installation failed", err)
	}

	progress("writing sshd configuration")
	if err := writeFile(rc, sshdConfPath, []byte(s.sshdConfig(rc)), 0o644); err != nil {
		return catalog.Fail("ssh", "failed to write sshd config", err)
	}

	progress("seeding user SSH key")
	if err := s.seedUserKey(rc); err != nil {
		return catalog.Fail("ssh", "failed to seed SSH key", err)
	}

	progress("enabling ssh service")
	if _, err := rc.Runner.Run(ctx, "sudo", "systemctl", "enable", "ssh"); err != nil {
		return catalog.Fail("ssh", "failed to enable ssh service", err)
	}

	progress("restarting ssh service")
	if _, err := rc.Runner.Run(ctx, "sudo", "systemctl", "restart", "ssh"); err != nil {
		return catalog.Fail("ssh", "failed to restart ssh service; check 'sudo systemctl status ssh'", err)
	}

	if !rc.DryRun {
		progress("verifying sshd is listening")
		if !sysutil.PortListening(rc.Config.Ports.SSHForward) {
			return catalog.Fail("ssh", "service restarted but nothing listens",
				fmt.Errorf("port %d not accepting connections", rc.Config.Ports.SSHForward))
		}
	}

	progress("SSH configuration complete")
	return nil
}

// Fix implements catalog.Capability.
func (s *SSH) Fix(ctx context.Context, rc *catalog.RunContext) error {
	if err := rc.Markers.Clear("ssh"); err != nil {
		return err
	}
	return s.Apply(ctx, rc, func(string) {})
}

// sshdConfig renders the drop-in from configuration. The internal port is
// only listed when enabled; the host terminal forwards the other one.
func (s *SSH) sshdConfig(rc *catalog.RunContext) string {
	cfg := rc.Config

	ports := fmt.Sprintf("Port %d", cfg.Ports.SSHForward)
	if cfg.Ports.SSHInternal != 0 && cfg.Ports.SSHInternal != cfg.Ports.SSHForward {
		ports += fmt.Sprintf("\nPort %d", cfg.Ports.SSHInternal)
	}

	return fmt.Sprintf(`# gvm SSH configuration
# Security hardening for the VM's sshd

# Listen ports
%s

# Network settings
ListenAddress %s

# Authentication settings
PermitRootLogin %s
PasswordAuthentication %s
PubkeyAuthentication %s

# Additional security settings
X11Forwarding no
MaxAuthTries 3
`, ports, cfg.SSH.ListenAddress, cfg.SSH.PermitRootLogin,
		yesNo(cfg.SSH.PasswordAuth), yesNo(cfg.SSH.PubkeyAuth))
}

// seedUserKey generates an ed25519 pair into ~/.ssh when none exists and
// appends the public key to authorized_keys.
func (s *SSH) seedUserKey(rc *catalog.RunContext) error {
	sshDir, err := homePath(".ssh")
	if err != nil {
		return err
	}
	keyPath := filepath.Join(sshDir, "id_ed25519")
	if _, err := os.Stat(keyPath); err == nil {
		return nil
	}

	if rc.DryRun {
		rc.Log.Info("dry-run: would generate ed25519 key pair", "path", keyPath)
		return nil
	}

	pair, err := keygen.Ed25519(rc.Config.Environment.VMUser + "@gvm")
	if err != nil {
		return err
	}
	if err := pair.WriteTo(sshDir, "id_ed25519"); err != nil {
		return err
	}

	authorized := filepath.Join(sshDir, "authorized_keys")
	f, err := os.OpenFile(authorized, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", authorized, err)
	}
	defer f.Close()
	if _, err := f.Write(pair.PublicKey); err != nil {
		return fmt.Errorf("failed to append to %s: %w", authorized, err)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
