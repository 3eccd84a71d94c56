package sysutil

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// osReleasePath is a variable so tests can point it at a fixture.
var osReleasePath = "/etc/os-release"

// DebianCodename reads the distribution codename (e.g. "trixie") from
// /etc/os-release.
func DebianCodename() (string, error) {
	data, err := os.ReadFile(osReleasePath) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", osReleasePath, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if value, ok := strings.CutPrefix(line, "VERSION_CODENAME="); ok {
			return strings.Trim(strings.TrimSpace(value), `"`), nil
		}
	}
	return "", fmt.Errorf("%s has no VERSION_CODENAME entry", osReleasePath)
}

// ServiceActive reports whether the named systemd unit is active.
func ServiceActive(ctx context.Context, runner Runner, unit string) bool {
	_, err := runner.Run(ctx, "systemctl", "is-active", "--quiet", unit)
	return err == nil
}

// PortListening reports whether something accepts TCP connections on the
// given local port.
func PortListening(port int) bool {
	addr := net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
