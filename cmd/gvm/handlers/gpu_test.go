package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvmtool/gvm/internal/sysutil"
)

// installGPUProbes points the probe seams at a scripted VM state.
func installGPUProbes(t *testing.T, driNodes []string, glxOut string, glxErr error, waylandUp bool) {
	t.Helper()

	origDRI := driDeviceDir
	origWayland := waylandSocketPath
	origRenderer := rendererInfo
	t.Cleanup(func() {
		driDeviceDir = origDRI
		waylandSocketPath = origWayland
		rendererInfo = origRenderer
	})

	driDir := t.TempDir()
	for _, node := range driNodes {
		require.NoError(t, os.WriteFile(filepath.Join(driDir, node), nil, 0o644))
	}
	driDeviceDir = driDir

	sock := filepath.Join(t.TempDir(), "wayland-0")
	if waylandUp {
		require.NoError(t, os.WriteFile(sock, nil, 0o644))
	}
	waylandSocketPath = func() string { return sock }

	rendererInfo = func(context.Context, sysutil.Runner) (string, error) {
		return glxOut, glxErr
	}
}

func gpuStatusOutput(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, GPUStatus(context.Background(), Options{}, &buf))
	return buf.String()
}

func TestGPUStatus_VirGLActive(t *testing.T) {
	installTestEnvironment(t)
	installGPUProbes(t, []string{"card0", "renderD128"},
		"OpenGL renderer string: virgl (ANGLE)", nil, true)

	out := gpuStatusOutput(t)
	assert.Contains(t, out, "[OK] DRI devices present")
	assert.Contains(t, out, "[OK] VirGL/Zink renderer detected")
	assert.Contains(t, out, "[OK] Wayland display active")
	assert.Contains(t, out, "GPU acceleration appears to be active")
}

func TestGPUStatus_SoftwareRenderingOverridesDRI(t *testing.T) {
	installTestEnvironment(t)
	installGPUProbes(t, []string{"card0"},
		"OpenGL renderer string: llvmpipe (LLVM 17.0.6)", nil, true)

	out := gpuStatusOutput(t)
	assert.Contains(t, out, "[!!] software rendering detected")
	assert.Contains(t, out, "GPU acceleration does not appear to be active")
	assert.Contains(t, out, "gvm gpu help")
}

func TestGPUStatus_NoGPUSignals(t *testing.T) {
	installTestEnvironment(t)
	installGPUProbes(t, nil, "",
		errors.New(`exec: "glxinfo": executable file not found in $PATH`), false)

	out := gpuStatusOutput(t)
	assert.Contains(t, out, "[!!] no DRI devices found")
	assert.Contains(t, out, "[--] glxinfo not installed (sudo apt install mesa-utils)")
	assert.Contains(t, out, "[!!] Wayland display not active")
	assert.Contains(t, out, "GPU acceleration does not appear to be active")
}

func TestGPUStatus_GlxinfoFailure(t *testing.T) {
	installTestEnvironment(t)
	installGPUProbes(t, []string{"renderD128"}, "", errors.New("exit status 1"), true)

	out := gpuStatusOutput(t)
	assert.Contains(t, out, "[--] glxinfo failed to run")
	// DRI alone still counts as a GPU signal.
	assert.Contains(t, out, "GPU acceleration appears to be active")
}

func TestGPUHelp(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GPUHelp(&buf))

	out := buf.String()
	assert.Contains(t, out, "virglrenderer")
	assert.Contains(t, out, "gvm gpu status")
	assert.Contains(t, out, "before the VM starts")
}
