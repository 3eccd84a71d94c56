package handlers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/gvmtool/gvm/internal/config"
)

// runConfigForm is a factory variable so tests can script the wizard.
var runConfigForm = func(cfg *config.Config) error {
	forward := strconv.Itoa(cfg.Ports.SSHForward)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("VM user").
				Description("The account gvm provisions and grants sudo to.").
				Value(&cfg.Environment.VMUser),
			huh.NewInput().
				Title("SSH forward port").
				Description("The port the host terminal forwards into the VM.").
				Value(&forward).
				Validate(func(s string) error {
					p, err := strconv.Atoi(s)
					if err != nil || p < 1 || p > 65535 {
						return fmt.Errorf("enter a port between 1 and 65535")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Install a desktop environment?").
				Value(&cfg.Features.InstallDesktop),
			huh.NewConfirm().
				Title("Install shell modifications (Starship prompt, banner)?").
				Value(&cfg.Features.InstallShellMods),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Ports.SSHForward, _ = strconv.Atoi(forward)
	return nil
}

// ConfigInit interactively creates the user configuration file.
func ConfigInit(opts Options) error {
	cfg := config.Default()
	if err := runConfigForm(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := opts.ConfigPath
	if path == "" {
		var err error
		path, err = config.UserConfigPath()
		if err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("[OK] wrote %s\n", path)
	return nil
}

// ConfigShow prints the effective merged configuration as YAML.
func ConfigShow(opts Options, out io.Writer) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}
