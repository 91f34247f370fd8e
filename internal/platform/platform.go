// Package platform provides OS and host detection used to bind the
// built-in renderer helpers.
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
)

// Supported operating system identifiers.
const (
	// OSLinux represents Linux operating systems
	OSLinux = "linux"
	// OSWindows represents Windows operating systems
	OSWindows = "windows"
)

// Platform holds detected platform information including the operating system,
// Linux distribution, hostname, current user, and display availability.
type Platform struct {
	EnvVars    map[string]string
	OS         string
	Distro     string
	Hostname   string
	User       string
	HasDisplay bool
	IsWSL      bool
}

// Detect detects the current platform characteristics including OS type,
// Linux distribution (if applicable), hostname, and current user.
func Detect() *Platform {
	p := &Platform{
		OS:       detectOS(),
		Hostname: detectHostname(),
		User:     detectUser(),
		EnvVars:  make(map[string]string),
	}

	p.IsWSL = detectWSL()
	p.HasDisplay = detectDisplay(p.OS)

	if p.OS == OSLinux {
		p.Distro = detectDistro()
	}

	if p.OS == OSWindows {
		p.detectPowerShellProfile()
	}

	return p
}

// detectDistro returns the Linux distribution ID from /etc/os-release
// Returns values like "arch", "ubuntu", "fedora", "debian", etc.
func detectDistro() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		slog.Debug("unable to detect linux distribution",
			slog.String("file", "/etc/os-release"),
			slog.String("error", err.Error()),
			slog.String("fallback", "empty"))
		return ""
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "ID=") {
			id := strings.TrimPrefix(line, "ID=")
			id = strings.Trim(id, "\"")

			return id
		}
	}

	return ""
}

func detectHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		slog.Debug("unable to detect hostname",
			slog.String("error", err.Error()),
			slog.String("fallback", "empty"))
		return ""
	}

	return hostname
}

func detectUser() string {
	u, err := user.Current()
	if err != nil {
		slog.Debug("unable to detect current user",
			slog.String("error", err.Error()),
			slog.String("fallback", "empty"))
		return ""
	}

	return u.Username
}

func detectOS() string {
	if runtime.GOOS == "windows" {
		return OSWindows
	}

	// Also check OS environment variable (for cross-platform scripts)
	osEnv := os.Getenv("OS")
	if strings.Contains(strings.ToLower(osEnv), "windows") {
		return OSWindows
	}

	return OSLinux
}

// detectDisplay checks whether a display server is available.
// On Linux, it first checks DISPLAY (X11) and WAYLAND_DISPLAY (Wayland)
// environment variables. If neither is set, it falls back to checking for
// Wayland sockets and X11 lock files on the filesystem.
// On Windows, it always returns true.
func detectDisplay(osType string) bool {
	if osType == OSWindows {
		return true
	}

	if os.Getenv("DISPLAY") != "" {
		return true
	}

	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return true
	}

	if hasWaylandSocket() {
		return true
	}

	if hasX11Socket() {
		return true
	}

	return false
}

// hasWaylandSocket checks for Wayland compositor sockets in the XDG runtime directory.
func hasWaylandSocket() bool {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join("/run/user", fmt.Sprintf("%d", os.Getuid()))
	}

	entries, err := os.ReadDir(runtimeDir)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "wayland-") && !strings.HasSuffix(entry.Name(), ".lock") {
			return true
		}
	}

	return false
}

// hasX11Socket checks for X11 server sockets in /tmp/.X11-unix/.
func hasX11Socket() bool {
	entries, err := os.ReadDir("/tmp/.X11-unix")
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "X") {
			return true
		}
	}

	return false
}

func (p *Platform) detectPowerShellProfile() {
	cmd := exec.CommandContext(context.Background(), "pwsh", "-NoProfile", "-Command", "echo $PROFILE")

	output, err := cmd.Output()
	if err != nil {
		return
	}

	profile := strings.TrimSpace(string(output))
	if profile != "" {
		p.EnvVars["PWSH_PROFILE"] = profile
		p.EnvVars["PWSH_PROFILE_FILE"] = filepath.Base(profile)
		p.EnvVars["PWSH_PROFILE_PATH"] = filepath.Dir(profile)
	}
}

// detectWSL checks if running inside Windows Subsystem for Linux.
func detectWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}

	lower := strings.ToLower(string(data))
	return strings.Contains(lower, "microsoft") || strings.Contains(lower, "wsl")
}

// IsArchLinux returns true if the detected distribution is Arch Linux.
func (p *Platform) IsArchLinux() bool {
	return p.Distro == "arch"
}

// copyMap returns a shallow copy of a string map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}

	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}

	return cp
}

// WithOS returns a copy of the Platform with the OS field overridden.
func (p *Platform) WithOS(osType string) *Platform {
	newP := *p
	newP.OS = osType
	newP.EnvVars = copyMap(p.EnvVars)

	return &newP
}

// WithHostname returns a copy of the Platform with the Hostname field overridden.
func (p *Platform) WithHostname(hostname string) *Platform {
	newP := *p
	newP.Hostname = hostname
	newP.EnvVars = copyMap(p.EnvVars)

	return &newP
}

// WithUser returns a copy of the Platform with the User field overridden.
func (p *Platform) WithUser(username string) *Platform {
	newP := *p
	newP.User = username
	newP.EnvVars = copyMap(p.EnvVars)

	return &newP
}

// WithDistro returns a copy of the Platform with the Distro field overridden.
func (p *Platform) WithDistro(distro string) *Platform {
	newP := *p
	newP.Distro = distro
	newP.EnvVars = copyMap(p.EnvVars)

	return &newP
}

// IsCommandAvailable checks if a command is available in PATH.
func IsCommandAvailable(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}
