package selection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	rec, err := Load(filepath.Join(t.TempDir(), "last-selection.yaml"))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "last-selection.yaml")

	require.NoError(t, Save(path, []string{"apt", "ssh", "desktop:xfce"}))

	rec, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []string{"apt", "ssh", "desktop:xfce"}, rec.Modules)
	assert.False(t, rec.SavedAt.IsZero())
}

func TestLoadCorruptFileTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last-selection.yaml")
	require.NoError(t, os.WriteFile(path, []byte("modules: [unterminated"), 0o644))

	rec, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLoadVersionMismatchTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last-selection.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 99\nmodules: [apt]\n"), 0o644))

	rec, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestDefaultPathHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gvm", "last-selection.yaml"), path)
}
