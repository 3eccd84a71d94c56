package sysutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SafeWrite writes data to path atomically. The parent directory is created
// if missing, an existing file is backed up once to path.gvm-backup, and the
// content lands via rename so a crash never leaves a half-written file.
func SafeWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	backup := path + ".gvm-backup"
	if _, err := os.Stat(path); err == nil {
		if _, err := os.Stat(backup); os.IsNotExist(err) {
			original, err := os.ReadFile(path) // #nosec G304
			if err != nil {
				return fmt.Errorf("failed to read %s for backup: %w", path, err)
			}
			if err := os.WriteFile(backup, original, perm); err != nil {
				return fmt.Errorf("failed to back up %s: %w", path, err)
			}
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

const (
	snippetBegin = "# >>> gvm managed block: %s >>>"
	snippetEnd   = "# <<< gvm managed block: %s <<<"
)

// EnsureSnippet appends or replaces a named, sentinel-delimited block in the
// file at path. Re-running with the same name and body is a no-op, which is
// what lets shell-profile edits stay idempotent.
func EnsureSnippet(path, name, body string) error {
	begin := fmt.Sprintf(snippetBegin, name)
	end := fmt.Sprintf(snippetEnd, name)
	block := begin + "\n" + strings.TrimRight(body, "\n") + "\n" + end + "\n"

	existing, err := os.ReadFile(path) // #nosec G304
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(existing)
	if i := strings.Index(content, begin); i >= 0 {
		j := strings.Index(content[i:], end)
		if j < 0 {
			return fmt.Errorf("%s: managed block %q has no end marker", path, name)
		}
		old := content[i : i+j+len(end)]
		replacement := strings.TrimSuffix(block, "\n")
		if old == replacement {
			return nil
		}
		content = content[:i] + replacement + content[i+j+len(end):]
	} else {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += block
	}

	return SafeWrite(path, []byte(content), 0o644)
}

// HasSnippet reports whether path already carries the named managed block.
func HasSnippet(path, name string) bool {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return false
	}
	return strings.Contains(string(data), fmt.Sprintf(snippetBegin, name))
}
