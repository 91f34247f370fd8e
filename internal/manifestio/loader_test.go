package manifestio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotter-go/dotter/internal/manifest"
	"github.com/dotter-go/dotter/internal/platform"
	"github.com/dotter-go/dotter/internal/render"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
	return path
}

func testRenderer() *render.Engine {
	return render.New(&platform.Platform{OS: "linux", Distro: "arch", Hostname: "box", User: "u"})
}

func TestLoadMergesGlobalAndLocalPackages(t *testing.T) {
	global := writeTemp(t, "global.toml", `
[packages.shell]
[packages.shell.files]
"/home/u/.bashrc" = { source = "dot_bashrc" }

[packages.gui]
when = "{{ if eq .OS \"linux\" }}true{{ end }}"
[packages.gui.files]
"/home/u/.config/i3/config" = { source = "dot_i3_config", kind = "template" }
`)
	local := writeTemp(t, "local.toml", `
packages = ["shell", "gui"]

[variables]
name = "tester"
`)

	m, err := Load(Options{RepoRoot: "/repo", GlobalPath: global, LocalPath: local, Renderer: testRenderer()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(m.Files) != 2 {
		t.Fatalf("len(Files) = %d, want 2", len(m.Files))
	}
	bashrc, ok := m.Files["/home/u/.bashrc"]
	if !ok || bashrc.Source != "dot_bashrc" || bashrc.Kind != manifest.Symbolic {
		t.Errorf("Files[.bashrc] = %+v, ok=%v", bashrc, ok)
	}
	i3, ok := m.Files["/home/u/.config/i3/config"]
	if !ok || i3.Kind != manifest.Template {
		t.Errorf("Files[.config/i3/config] = %+v, ok=%v", i3, ok)
	}
	if got, _ := m.Variables["name"].(string); got != "tester" {
		t.Errorf("Variables[name] = %v, want tester", m.Variables["name"])
	}
}

func TestLoadSkipsPackageWhenWhenExpressionFails(t *testing.T) {
	global := writeTemp(t, "global.toml", `
[packages.windowsonly]
when = "{{ if eq .OS \"windows\" }}true{{ end }}"
[packages.windowsonly.files]
"foo" = { source = "bar" }
`)
	local := writeTemp(t, "local.toml", `packages = ["windowsonly"]`)

	m, err := Load(Options{RepoRoot: "/repo", GlobalPath: global, LocalPath: local, Renderer: testRenderer()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(m.Files) != 0 {
		t.Errorf("len(Files) = %d, want 0 for an unmatched when-expression", len(m.Files))
	}
}

func TestLoadEmptySelectionTakesEveryMatchingPackage(t *testing.T) {
	global := writeTemp(t, "global.toml", `
[packages.shell]
[packages.shell.files]
"/home/u/.bashrc" = { source = "dot_bashrc" }
`)
	local := writeTemp(t, "local.toml", ``)

	m, err := Load(Options{RepoRoot: "/repo", GlobalPath: global, LocalPath: local, Renderer: testRenderer()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := m.Files["/home/u/.bashrc"]; !ok {
		t.Error("expected .bashrc to be deployed when local.toml selects nothing explicitly")
	}
}

func TestLoadPatchOverlayDisablesEntry(t *testing.T) {
	global := writeTemp(t, "global.toml", `
[packages.shell]
[packages.shell.files]
".bashrc" = { source = "dot_bashrc" }
`)
	local := writeTemp(t, "local.toml", `packages = ["shell"]`)
	patch := strings.NewReader(`
[files]
".bashrc" = { target = "disabled" }
`)

	m, err := Load(Options{RepoRoot: "/repo", GlobalPath: global, LocalPath: local, Patch: patch, Renderer: testRenderer()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := m.Files[".bashrc"]; ok {
		t.Error(".bashrc still present after a disabling patch overlay")
	}
}

func TestLoadRejectsUnknownFileKind(t *testing.T) {
	global := writeTemp(t, "global.toml", `
[packages.shell]
[packages.shell.files]
".bashrc" = { source = "dot_bashrc", kind = "bogus" }
`)
	local := writeTemp(t, "local.toml", `packages = ["shell"]`)

	if _, err := Load(Options{RepoRoot: "/repo", GlobalPath: global, LocalPath: local, Renderer: testRenderer()}); err == nil {
		t.Fatal("Load() error = nil, want a ConfigurationError for an unknown file kind")
	}
}

func TestLoadRejectsDuplicateTargetAcrossPackages(t *testing.T) {
	global := writeTemp(t, "global.toml", `
[packages.shell]
[packages.shell.files]
".bashrc" = { source = "dot_bashrc" }

[packages.other_shell]
[packages.other_shell.files]
".bashrc" = { source = "dot_bashrc_alt" }
`)
	local := writeTemp(t, "local.toml", `packages = ["shell", "other_shell"]`)

	if _, err := Load(Options{RepoRoot: "/repo", GlobalPath: global, LocalPath: local, Renderer: testRenderer()}); err == nil {
		t.Fatal("Load() error = nil, want a ConfigurationError for a target declared by two packages")
	}
}

func TestLoadMissingFilesAreEmptyManifest(t *testing.T) {
	m, err := Load(Options{RepoRoot: "/repo", GlobalPath: filepath.Join(t.TempDir(), "missing.toml")})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(m.Files) != 0 {
		t.Errorf("len(Files) = %d, want 0 for a missing global.toml", len(m.Files))
	}
}
