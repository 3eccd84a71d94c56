package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load assembles the effective configuration.
//
// Layers, later replacing earlier section by section:
//  1. embedded defaults
//  2. /etc/gvm/config.yaml
//  3. $XDG_CONFIG_HOME/gvm/config.yaml
//  4. cliPath, when non-empty (missing file is an error at this layer only)
//
// The merged result is validated before it is returned.
func Load(cliPath string) (*Config, error) {
	merged, err := defaultSections()
	if err != nil {
		return nil, err
	}

	userPath, err := UserConfigPath()
	if err != nil {
		return nil, err
	}

	for _, path := range []string{SystemConfigPath, userPath} {
		if err := mergeFile(merged, path, false); err != nil {
			return nil, err
		}
	}
	if cliPath != "" {
		if err := mergeFile(merged, cliPath, true); err != nil {
			return nil, err
		}
	}

	cfg, err := decodeSections(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// defaultSections renders the embedded defaults into the section map used
// for replace-based merging.
func defaultSections() (map[string]yaml.Node, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedded defaults: %w", err)
	}
	sections := map[string]yaml.Node{}
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("failed to decode embedded defaults: %w", err)
	}
	return sections, nil
}

// mergeFile overlays path's top-level sections onto merged. A section
// present in the file replaces the accumulated section entirely.
func mergeFile(merged map[string]yaml.Node, path string, required bool) error {
	// #nosec G304 -- paths come from fixed locations or the --config flag
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	overlay := map[string]yaml.Node{}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	for key, node := range overlay {
		merged[key] = node
	}
	return nil
}

func decodeSections(sections map[string]yaml.Node) (*Config, error) {
	data, err := yaml.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode merged config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode merged config: %w", err)
	}
	return &cfg, nil
}
