package manifest

import "testing"

func TestMergeLaterLayerWinsOnFiles(t *testing.T) {
	base := New()
	base.Files["/home/user/.bashrc"] = FileEntry{Source: "pkg/dot_bashrc", Target: "/home/user/.bashrc", Kind: Symbolic}

	local := Layer{
		Files: map[TargetPath]FileEntry{
			"/home/user/.bashrc": {Source: "local/dot_bashrc", Target: "/home/user/.bashrc", Kind: Symbolic},
		},
	}

	got, err := Merge(base, local)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	entry := got.Files["/home/user/.bashrc"]
	if entry.Source != "local/dot_bashrc" {
		t.Errorf("Files[...].Source = %q, want local override to win", entry.Source)
	}
}

func TestMergeDisabledSentinelElidesEntry(t *testing.T) {
	base := New()
	base.Files["/home/user/.vimrc"] = FileEntry{Source: "pkg/dot_vimrc", Target: "/home/user/.vimrc", Kind: Symbolic}

	local := Layer{
		Files: map[TargetPath]FileEntry{
			"/home/user/.vimrc": {Target: disabledSentinel},
		},
	}

	got, err := Merge(base, local)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if _, ok := got.Files["/home/user/.vimrc"]; ok {
		t.Error("Files[.vimrc] still present, want elided by disabled sentinel")
	}
}

func TestMergeVariablesDeepOverride(t *testing.T) {
	base := New()
	base.Variables["editor"] = "vim"
	base.Variables["theme"] = VariableContext{"name": "gruvbox", "bold": true}

	local := Layer{
		Variables: VariableContext{
			"theme": VariableContext{"name": "nord"},
		},
	}

	got, err := Merge(base, local)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got.Variables["editor"] != "vim" {
		t.Errorf("Variables[editor] = %v, want unaffected base value", got.Variables["editor"])
	}
	theme, ok := got.Variables["theme"].(VariableContext)
	if !ok {
		theme2, ok2 := got.Variables["theme"].(map[string]any)
		if !ok2 {
			t.Fatalf("Variables[theme] has unexpected type %T", got.Variables["theme"])
		}
		if theme2["name"] != "nord" {
			t.Errorf("Variables[theme][name] = %v, want nord", theme2["name"])
		}
		return
	}
	if theme["name"] != "nord" {
		t.Errorf("Variables[theme][name] = %v, want nord", theme["name"])
	}
}

func TestMergeHelpersAndRecurseUnion(t *testing.T) {
	base := New()
	base.Helpers["hostname"] = "helpers/hostname.sh"
	base.RecurseRules["config/nvim"] = struct{}{}

	local := Layer{
		Helpers: map[string]SourcePath{"user": "helpers/user.sh"},
		Recurse: map[SourcePath]struct{}{"config/alacritty": {}},
	}

	got, err := Merge(base, local)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got.Helpers["hostname"] != "helpers/hostname.sh" || got.Helpers["user"] != "helpers/user.sh" {
		t.Errorf("Helpers = %v, want union of both layers", got.Helpers)
	}
	if !got.Recurses("config/nvim") || !got.Recurses("config/alacritty") {
		t.Errorf("RecurseRules = %v, want union of both layers", got.RecurseRules)
	}
}

func TestMergeNoLayersReturnsCopyOfBase(t *testing.T) {
	base := New()
	base.Files["/home/user/.zshrc"] = FileEntry{Source: "dot_zshrc", Target: "/home/user/.zshrc", Kind: Symbolic}

	got, err := Merge(base)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(got.Files) != 1 {
		t.Fatalf("Files = %v, want 1 entry carried over from base", got.Files)
	}
}
