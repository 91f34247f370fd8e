package classify

import (
	"testing"

	"github.com/dotter-go/dotter/internal/cache"
	"github.com/dotter-go/dotter/internal/manifest"
)

func symbolicEntry() manifest.FileEntry {
	return manifest.FileEntry{Source: "dot_bashrc", Target: "/home/user/.bashrc", Kind: manifest.Symbolic}
}

func templateEntry() manifest.FileEntry {
	return manifest.FileEntry{Source: "dot_gitconfig.tmpl", Target: "/home/user/.gitconfig", Kind: manifest.Template}
}

func TestClassifyNew(t *testing.T) {
	got := Classify(symbolicEntry(), nil, Observation{Exists: false}, Expected{LinkDest: "/repo/dot_bashrc"})
	if got != New {
		t.Errorf("Classify() = %v, want New", got)
	}
}

func TestClassifyVanished(t *testing.T) {
	cached := cache.Entry{LinkDest: "/repo/dot_bashrc"}
	got := Classify(symbolicEntry(), &cached, Observation{Exists: false}, Expected{LinkDest: "/repo/dot_bashrc"})
	if got != Vanished {
		t.Errorf("Classify() = %v, want Vanished", got)
	}
}

func TestClassifyAlreadyCorrectAdoptSymbolic(t *testing.T) {
	obs := Observation{Exists: true, IsSymlink: true, LinkDest: "/repo/dot_bashrc"}
	got := Classify(symbolicEntry(), nil, obs, Expected{LinkDest: "/repo/dot_bashrc"})
	if got != AlreadyCorrectAdopt {
		t.Errorf("Classify() = %v, want AlreadyCorrectAdopt", got)
	}
}

func TestClassifyCollision(t *testing.T) {
	obs := Observation{Exists: true, IsSymlink: false, CurrentBytes: []byte("not what we expect")}
	got := Classify(symbolicEntry(), nil, obs, Expected{LinkDest: "/repo/dot_bashrc"})
	if got != Collision {
		t.Errorf("Classify() = %v, want Collision", got)
	}
}

func TestClassifyAlreadyCorrectTemplate(t *testing.T) {
	cached := cache.Entry{ContentHash: hashBytes([]byte("rendered"))}
	obs := Observation{Exists: true, CurrentBytes: []byte("rendered")}
	got := Classify(templateEntry(), &cached, obs, Expected{RenderedBytes: []byte("rendered")})
	if got != AlreadyCorrect {
		t.Errorf("Classify() = %v, want AlreadyCorrect", got)
	}
}

func TestClassifyChangedTemplate(t *testing.T) {
	cached := cache.Entry{ContentHash: hashBytes([]byte("old content"))}
	obs := Observation{Exists: true, CurrentBytes: []byte("old content")}
	got := Classify(templateEntry(), &cached, obs, Expected{RenderedBytes: []byte("new content")})
	if got != Changed {
		t.Errorf("Classify() = %v, want Changed", got)
	}
}

func TestClassifyUserModifiedTemplate(t *testing.T) {
	cached := cache.Entry{ContentHash: hashBytes([]byte("old content"))}
	obs := Observation{Exists: true, CurrentBytes: []byte("hand-edited content")}
	got := Classify(templateEntry(), &cached, obs, Expected{RenderedBytes: []byte("new content")})
	if got != UserModified {
		t.Errorf("Classify() = %v, want UserModified", got)
	}
}

func TestClassifyRegularFileWhereSymlinkExpectedIsNeverMatch(t *testing.T) {
	obs := Observation{Exists: true, IsSymlink: false, CurrentBytes: []byte("anything")}
	cached := cache.Entry{LinkDest: "/repo/dot_bashrc"}
	got := Classify(symbolicEntry(), &cached, obs, Expected{LinkDest: "/repo/dot_bashrc"})
	if got != UserModified {
		t.Errorf("Classify() = %v, want UserModified (regular file can never satisfy a symlink expectation)", got)
	}
}

func TestClassifySymlinkWhereTemplateExpectedIsNeverMatch(t *testing.T) {
	obs := Observation{Exists: true, IsSymlink: true, LinkDest: "/somewhere/else"}
	got := Classify(templateEntry(), nil, obs, Expected{RenderedBytes: []byte("rendered")})
	if got != Collision {
		t.Errorf("Classify() = %v, want Collision (symlink can never satisfy a template expectation)", got)
	}
}
