// Package state persists idempotency markers between gvm runs.
//
// A marker is a small file named after the module it belongs to; its
// presence means the module completed successfully on this machine. Markers
// are advisory: modules consult them to short-circuit work that is already
// done, and --force ignores them entirely.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gvmtool/gvm/internal/config"
)

// Store reads and writes completion markers under a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns the standard marker directory,
// $XDG_STATE_HOME/gvm/markers.
func DefaultDir() (string, error) {
	stateDir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "markers"), nil
}

// Done reports whether a completion marker exists for the module.
func (s *Store) Done(id string) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// DoneAt returns the recorded completion time, or the zero time when the
// marker is missing or unreadable.
func (s *Store) DoneAt(id string) time.Time {
	data, err := os.ReadFile(s.path(id)) // #nosec G304
	if err != nil {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}
	}
	return ts
}

// MarkDone records successful completion of the module.
func (s *Store) MarkDone(id string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create marker directory %s: %w", s.dir, err)
	}
	content := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(s.path(id), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write marker for %s: %w", id, err)
	}
	return nil
}

// Clear removes the module's marker. Clearing an absent marker is not an
// error, so `gvm fix` can always reset before re-running.
func (s *Store) Clear(id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear marker for %s: %w", id, err)
	}
	return nil
}

func (s *Store) path(id string) string {
	// Namespaced ids like desktop:xfce must stay single path elements.
	return filepath.Join(s.dir, strings.ReplaceAll(id, ":", "-")+".done")
}
