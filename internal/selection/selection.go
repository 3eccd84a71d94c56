// Package selection persists the most recent module selection so the next
// interactive run can start from it.
package selection

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gvmtool/gvm/internal/config"
)

// recordVersion is bumped when the on-disk shape changes.
const recordVersion = 1

// Record is the persisted selection. Module ids that no longer exist in the
// catalog are kept on disk but ignored when the record is applied.
type Record struct {
	Version int       `yaml:"version"`
	SavedAt time.Time `yaml:"saved_at"`
	Modules []string  `yaml:"modules"`
}

// DefaultPath returns the selection record location,
// $XDG_CONFIG_HOME/gvm/last-selection.yaml.
func DefaultPath() (string, error) {
	userPath, err := config.UserConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(userPath), "last-selection.yaml"), nil
}

// Load reads the record at path. A missing file returns (nil, nil): first
// runs simply have no prior selection. A corrupt file is also treated as
// absent, never as a fatal error.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read selection record %s: %w", path, err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, nil
	}
	if rec.Version != recordVersion {
		return nil, nil
	}
	return &rec, nil
}

// Save writes the selected module ids to path, creating parent directories
// as needed.
func Save(path string, modules []string) error {
	rec := Record{
		Version: recordVersion,
		SavedAt: time.Now().UTC(),
		Modules: modules,
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("failed to encode selection record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write selection record %s: %w", path, err)
	}
	return nil
}
