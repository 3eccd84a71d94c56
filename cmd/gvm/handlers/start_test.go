package handlers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installLauncher(t *testing.T, home, name string) string {
	t.Helper()
	binDir := filepath.Join(home, ".local", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	path := filepath.Join(binDir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestStart_NoLaunchers(t *testing.T) {
	saveAndRestoreFactories(t)
	t.Setenv("HOME", t.TempDir())

	err := Start("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no desktop launchers installed")
}

func TestStart_SingleLauncherByDefault(t *testing.T) {
	saveAndRestoreFactories(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	want := installLauncher(t, home, "start-xfce")

	var launched string
	launchSession = func(path string) error {
		launched = path
		return nil
	}

	require.NoError(t, Start(""))
	assert.Equal(t, want, launched)
}

func TestStart_AmbiguousWithoutName(t *testing.T) {
	saveAndRestoreFactories(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	installLauncher(t, home, "start-xfce")
	installLauncher(t, home, "start-plasma-mobile")

	err := Start("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plasma-mobile, xfce")
}

func TestStart_ByName(t *testing.T) {
	saveAndRestoreFactories(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	installLauncher(t, home, "start-xfce")
	want := installLauncher(t, home, "start-plasma-mobile")

	var launched string
	launchSession = func(path string) error {
		launched = path
		return nil
	}

	require.NoError(t, Start("plasma-mobile"))
	assert.Equal(t, want, launched)
}

func TestStart_UnknownName(t *testing.T) {
	saveAndRestoreFactories(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	installLauncher(t, home, "start-xfce")

	err := Start("gnome")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `desktop "gnome" is not installed`)
}

func TestStart_IgnoresGenericGUIHelper(t *testing.T) {
	saveAndRestoreFactories(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	installLauncher(t, home, "start-gui")
	want := installLauncher(t, home, "start-xfce")

	var launched string
	launchSession = func(path string) error {
		launched = path
		return nil
	}

	require.NoError(t, Start(""))
	assert.Equal(t, want, launched)
}

func TestStartList(t *testing.T) {
	saveAndRestoreFactories(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	var buf bytes.Buffer
	require.NoError(t, StartList(&buf))
	assert.Contains(t, buf.String(), "no desktop launchers installed")

	installLauncher(t, home, "start-xfce")
	buf.Reset()
	require.NoError(t, StartList(&buf))
	assert.Contains(t, buf.String(), "xfce")
	assert.Contains(t, buf.String(), ".local/bin/start-xfce")
}

func TestDesktopList_ShowsBuiltins(t *testing.T) {
	installTestEnvironment(t)

	var buf bytes.Buffer
	require.NoError(t, DesktopList(Options{}, &buf))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "plasma-mobile")
	assert.Contains(t, out, "xfce")
}
