package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddAndGet(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Add(Module{ID: "apt", Title: "APT"}))
	require.NoError(t, r.Add(Module{ID: "ssh", Title: "SSH", DependsOn: []string{"apt"}}))

	m, ok := r.Get("apt")
	require.True(t, ok)
	assert.Equal(t, "APT", m.Title)

	// Lookups are case-insensitive.
	m, ok = r.Get("  SSH ")
	require.True(t, ok)
	assert.Equal(t, []string{"apt"}, m.DependsOn)

	_, ok = r.Get("gui")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Add(Module{ID: "apt"}))
	err := r.Add(Module{ID: "APT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registered twice")
}

func TestRegistryRejectsEmptyID(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Add(Module{ID: "   "}))
}

func TestRegistryIndexFollowsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"apt", "shell", "ssh"} {
		require.NoError(t, r.Add(Module{ID: id}))
	}

	assert.Equal(t, 0, r.Index("apt"))
	assert.Equal(t, 1, r.Index("shell"))
	assert.Equal(t, 2, r.Index("ssh"))
	assert.Equal(t, -1, r.Index("nope"))
}

func TestRegistryAllReturnsCopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Module{ID: "apt"}))
	require.NoError(t, r.Add(Module{ID: "ssh"}))

	all := r.All()
	all[0], all[1] = all[1], all[0]

	assert.Equal(t, 0, r.Index("apt"), "mutating the copy must not affect the registry")
	assert.Equal(t, 2, r.Len())
}

func TestCapabilityError(t *testing.T) {
	cause := errors.New("exit status 100")
	err := Fail("apt", "package installation failed", cause)

	assert.Contains(t, err.Error(), "apt")
	assert.Contains(t, err.Error(), "package installation failed")
	assert.Equal(t, "gvm fix apt", err.Remediation)
	assert.ErrorIs(t, err, cause)
}

func TestScanDesktopsBuiltins(t *testing.T) {
	desktops, err := ScanDesktops(logr.Discard())
	require.NoError(t, err)
	require.Len(t, desktops, 2)

	// Sorted by name.
	assert.Equal(t, "plasma-mobile", desktops[0].Meta.Name)
	assert.Equal(t, "xfce", desktops[1].Meta.Name)

	plasma := desktops[0]
	assert.Equal(t, "Plasma Mobile", plasma.DisplayName())
	assert.Contains(t, plasma.AllPackages(), "plasma-mobile")
	assert.Contains(t, plasma.AllPackages(), "qtwayland5")
	assert.True(t, plasma.RequiresDBus())
}

func TestScanDesktopsUserOverride(t *testing.T) {
	dir := t.TempDir()
	override := `
meta:
  name: xfce
  type: desktop
  display_name: Custom Xfce
packages:
  core: [xfce4]
session:
  start_command: startxfce4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xfce.yaml"), []byte(override), 0o644))

	desktops, err := ScanDesktops(logr.Discard(), dir)
	require.NoError(t, err)
	require.Len(t, desktops, 2)
	assert.Equal(t, "Custom Xfce", desktops[1].DisplayName())
}

func TestScanDesktopsSkipsMalformedAndNonDesktop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("meta: [oops"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.yaml"),
		[]byte("meta:\n  name: dark\n  type: theme\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anon.yaml"),
		[]byte("meta:\n  type: desktop\n"), 0o644))

	desktops, err := ScanDesktops(logr.Discard(), dir)
	require.NoError(t, err)
	assert.Len(t, desktops, 2, "only the built-ins survive")
}

func TestScanDesktopsMissingUserDir(t *testing.T) {
	desktops, err := ScanDesktops(logr.Discard(), filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Len(t, desktops, 2)
}
