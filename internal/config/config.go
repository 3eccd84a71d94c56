// Package config implements the layered configuration for gvm.
//
// Configuration is assembled from embedded defaults, a system-wide file,
// the XDG user file, and an optional CLI-supplied path. Later layers
// replace earlier ones section by section; there is no deep merging, so a
// layer that sets `apt:` owns the whole apt section.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the merged, validated configuration for a gvm run.
// It is shared read-only by every module in a run.
type Config struct {
	Meta        Meta        `yaml:"meta"`
	Environment Environment `yaml:"environment"`
	Ports       Ports       `yaml:"ports"`
	APT         APT         `yaml:"apt"`
	SSH         SSH         `yaml:"ssh"`
	Features    Features    `yaml:"features"`
	Banner      Banner      `yaml:"banner"`
	Recovery    Recovery    `yaml:"recovery"`
}

// Meta holds tool metadata.
type Meta struct {
	ToolVersion   string `yaml:"tool_version"`
	DefaultDistro string `yaml:"default_distro"`
}

// Environment describes the target VM environment.
type Environment struct {
	VMUser   string `yaml:"vm_user"`
	HostName string `yaml:"host_name"`
}

// Ports configures SSH listen ports. Forward is the port the host terminal
// can forward; Internal is reachable only inside the VM.
type Ports struct {
	SSHForward  int `yaml:"ssh_forward"`
	SSHInternal int `yaml:"ssh_internal"`
}

// APT configures package manager hardening and mirrors.
type APT struct {
	Retries       int      `yaml:"retries"`
	HTTPTimeout   int      `yaml:"http_timeout"`
	HTTPSTimeout  int      `yaml:"https_timeout"`
	PipelineDepth int      `yaml:"pipeline_depth"`
	Mirrors       []string `yaml:"mirrors"`
	Components    []string `yaml:"components"`
	BasePackages  []string `yaml:"base_packages"`
}

// SSH configures the sshd drop-in written by the ssh module.
type SSH struct {
	PermitRootLogin string `yaml:"permit_root_login"`
	PasswordAuth    bool   `yaml:"password_auth"`
	PubkeyAuth      bool   `yaml:"pubkey_auth"`
	ListenAddress   string `yaml:"listen_address"`
}

// Features toggles optional behavior.
type Features struct {
	InstallDesktop   bool `yaml:"install_desktop"`
	InstallShellMods bool `yaml:"install_shell_mods"`
	ShowBanner       bool `yaml:"show_banner"`
}

// Banner configures the login banner written by the shell module.
type Banner struct {
	Title   string `yaml:"title"`
	SSHNote string `yaml:"ssh_note"`
}

// Recovery configures the non-interactive error recovery policy.
// OnFailure is one of "retry", "skip", or "abort"; MaxAttempts bounds
// retries before the policy downgrades to abort.
type Recovery struct {
	OnFailure   string `yaml:"on_failure"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// Default returns the embedded defaults, sufficient for zero-config use.
func Default() *Config {
	return &Config{
		Meta: Meta{
			ToolVersion:   "1.0.0",
			DefaultDistro: "debian-trixie",
		},
		Environment: Environment{
			VMUser:   "droid",
			HostName: "GrapheneOS Terminal",
		},
		Ports: Ports{
			SSHForward:  2222,
			SSHInternal: 22,
		},
		APT: APT{
			Retries:       10,
			HTTPTimeout:   60,
			HTTPSTimeout:  60,
			PipelineDepth: 0,
			Mirrors: []string{
				"https://deb.debian.org/debian",
				"https://security.debian.org/debian-security",
			},
			Components: []string{"main", "contrib", "non-free", "non-free-firmware"},
			BasePackages: []string{
				"ca-certificates", "curl", "nano", "less",
				"iproute2", "net-tools", "procps",
				"dbus-user-session", "openssh-server",
			},
		},
		SSH: SSH{
			PermitRootLogin: "no",
			PasswordAuth:    true,
			PubkeyAuth:      true,
			ListenAddress:   "0.0.0.0",
		},
		Features: Features{
			InstallDesktop:   true,
			InstallShellMods: true,
			ShowBanner:       true,
		},
		Banner: Banner{
			Title:   "GrapheneOS Linux VM Status",
			SSHNote: "Note: GrapheneOS Terminal Port Control will NOT expose port 22.",
		},
		Recovery: Recovery{
			OnFailure:   "abort",
			MaxAttempts: 3,
		},
	}
}

// Validate checks the merged configuration for values the modules cannot
// work with. It is called once after loading, before any module runs.
func (c *Config) Validate() error {
	if err := validatePort("ports.ssh_forward", c.Ports.SSHForward); err != nil {
		return err
	}
	if err := validatePort("ports.ssh_internal", c.Ports.SSHInternal); err != nil {
		return err
	}
	if c.Environment.VMUser == "" {
		return fmt.Errorf("environment.vm_user must not be empty")
	}
	if len(c.APT.Mirrors) == 0 {
		return fmt.Errorf("apt.mirrors must list at least one mirror")
	}
	if c.APT.Retries < 0 {
		return fmt.Errorf("apt.retries must not be negative, got %d", c.APT.Retries)
	}
	switch c.Recovery.OnFailure {
	case "retry", "skip", "abort":
	default:
		return fmt.Errorf("recovery.on_failure must be retry, skip, or abort, got %q", c.Recovery.OnFailure)
	}
	if c.Recovery.MaxAttempts < 1 {
		return fmt.Errorf("recovery.max_attempts must be at least 1, got %d", c.Recovery.MaxAttempts)
	}
	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", field, port)
	}
	return nil
}

// SystemConfigPath is the machine-wide configuration file.
const SystemConfigPath = "/etc/gvm/config.yaml"

// UserConfigPath returns the per-user configuration file path,
// honoring XDG_CONFIG_HOME.
func UserConfigPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// UserPackagesDir returns the per-user desktop definition directory.
func UserPackagesDir() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "packages"), nil
}

func userConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gvm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gvm"), nil
}

// StateDir returns the per-user state directory, honoring XDG_STATE_HOME.
// Idempotency markers and the run log live under it.
func StateDir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gvm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "gvm"), nil
}
