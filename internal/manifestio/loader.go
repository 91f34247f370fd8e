// Package manifestio reads the TOML configuration documents (global, local,
// and the stdin patch overlay) and produces the resolved manifest.Manifest
// the reconciliation core consumes. The core itself is format-agnostic;
// this package is the one place that knows TOML is the wire format.
package manifestio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dotter-go/dotter/internal/direrr"
	"github.com/dotter-go/dotter/internal/manifest"
	"github.com/dotter-go/dotter/internal/render"
)

// disabledSentinel mirrors manifest.Merge's private elision marker. A
// fileDoc's Target field set to this value means "drop this target from
// whatever layer declared it", used by patch overlays.
const disabledSentinel = "disabled"

// Options configures one Load call.
type Options struct {
	RepoRoot   string
	GlobalPath string
	LocalPath  string

	// Patch, if non-nil, is read in full and decoded as a stdin patch
	// overlay applied after the local configuration layer.
	Patch io.Reader

	// Renderer evaluates package when-expressions. A nil Renderer treats
	// every non-empty when-expression as false (fail closed).
	Renderer *render.Engine
}

// Load reads global.toml and local.toml from disk, selects and merges
// packages per the when-expression and selection rules, folds in local
// variable overrides, applies the patch overlay if present, and validates
// the result.
func Load(opts Options) (*manifest.Manifest, error) {
	global, err := loadGlobal(opts.GlobalPath)
	if err != nil {
		return nil, err
	}

	local, err := loadLocal(opts.LocalPath)
	if err != nil {
		return nil, err
	}

	localVars := toVariableContext(local.Variables)

	selected := selectPackages(global, local, opts.Renderer, localVars)

	base := manifest.New()
	layers := make([]manifest.Layer, 0, len(selected)+2)
	packageLayers := make([]manifest.Layer, 0, len(selected))
	for _, name := range selected {
		layer, err := packageLayer(global.Packages[name])
		if err != nil {
			return nil, fmt.Errorf("package %q: %w", name, err)
		}
		packageLayers = append(packageLayers, layer)
		layers = append(layers, layer)
	}

	if err := checkNoDuplicateTargets(selected, packageLayers); err != nil {
		return nil, err
	}

	if len(local.Variables) > 0 {
		layers = append(layers, manifest.Layer{Variables: localVars})
	}

	if opts.Patch != nil {
		patchLayer, err := loadPatch(opts.Patch)
		if err != nil {
			return nil, err
		}
		layers = append(layers, patchLayer)
	}

	merged, err := manifest.Merge(base, layers...)
	if err != nil {
		return nil, fmt.Errorf("merging configuration layers: %w", err)
	}

	if err := merged.Validate(opts.RepoRoot); err != nil {
		return nil, err
	}

	return merged, nil
}

func loadGlobal(path string) (globalDoc, error) {
	var doc globalDoc
	if path == "" {
		return doc, nil
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, &direrr.ConfigurationError{Target: path, Reason: "parsing global configuration", Err: err}
	}
	return doc, nil
}

func loadLocal(path string) (localDoc, error) {
	var doc localDoc
	if path == "" {
		return doc, nil
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, &direrr.ConfigurationError{Target: path, Reason: "parsing local configuration", Err: err}
	}
	return doc, nil
}

func loadPatch(r io.Reader) (manifest.Layer, error) {
	var doc patchDoc
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return manifest.Layer{}, &direrr.ConfigurationError{Target: "<patch>", Reason: "parsing patch overlay", Err: err}
	}
	return fileLayer(doc.Files, doc.Variables, doc.Helpers, doc.Recurse)
}

// selectPackages returns the names of packages in global.toml that apply
// to this host, sorted so layering order (and therefore later-wins
// precedence between packages) is deterministic across runs.
//
// An empty local.Packages selects every package whose when-expression
// matches; a non-empty list restricts the candidate set to those names
// (still subject to their own when-expression).
func selectPackages(global globalDoc, local localDoc, renderer *render.Engine, localVars manifest.VariableContext) []string {
	var candidates []string
	if len(local.Packages) > 0 {
		candidates = local.Packages
	} else {
		for name := range global.Packages {
			candidates = append(candidates, name)
		}
	}

	selected := make([]string, 0, len(candidates))
	for _, name := range candidates {
		pkg, ok := global.Packages[name]
		if !ok {
			continue
		}
		if evaluateWhen(pkg.When, renderer, localVars) {
			selected = append(selected, name)
		}
	}

	sort.Strings(selected)
	return selected
}

// checkNoDuplicateTargets rejects two selected packages that declare the
// same target. Local variable overrides and the patch overlay are
// deliberately last-word layers, so they never trigger this; two packages
// are peers with no precedence over each other, so both claiming the same
// target is a genuine configuration ambiguity. Caught here, before Merge
// ever runs, so it surfaces as a ConfigurationError instead of a silent
// last-one-wins overwrite of result.Files.
func checkNoDuplicateTargets(names []string, layers []manifest.Layer) error {
	owner := make(map[manifest.TargetPath]string, len(layers))
	for i, layer := range layers {
		for target, entry := range layer.Files {
			if string(entry.Target) == disabledSentinel || string(target) == disabledSentinel {
				continue
			}
			if prev, ok := owner[target]; ok {
				return &direrr.ConfigurationError{
					Target: string(target),
					Reason: fmt.Sprintf("declared by both package %q and package %q", prev, names[i]),
				}
			}
			owner[target] = names[i]
		}
	}
	return nil
}

func packageLayer(pkg packageDoc) (manifest.Layer, error) {
	return fileLayer(pkg.Files, pkg.Variables, pkg.Helpers, pkg.Recurse)
}

func fileLayer(files map[string]fileDoc, vars map[string]any, helpers map[string]string, recurse []string) (manifest.Layer, error) {
	layer := manifest.Layer{
		Files:     make(map[manifest.TargetPath]manifest.FileEntry, len(files)),
		Variables: toVariableContext(vars),
		Helpers:   make(map[string]manifest.SourcePath, len(helpers)),
		Recurse:   make(map[manifest.SourcePath]struct{}, len(recurse)),
	}

	for target, doc := range files {
		// A leading "~" in a target stands for the user's home directory.
		if target == "~" || strings.HasPrefix(target, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return manifest.Layer{}, &direrr.ConfigurationError{Target: target, Reason: "expanding ~ in target", Err: err}
			}
			target = filepath.Join(home, target[1:])
		}
		entry, err := toFileEntry(target, doc)
		if err != nil {
			return manifest.Layer{}, err
		}
		layer.Files[manifest.TargetPath(target)] = entry
	}

	for name, src := range helpers {
		layer.Helpers[name] = manifest.SourcePath(src)
	}

	for _, src := range recurse {
		layer.Recurse[manifest.SourcePath(src)] = struct{}{}
	}

	return layer, nil
}

func toFileEntry(target string, doc fileDoc) (manifest.FileEntry, error) {
	if doc.Target == disabledSentinel {
		return manifest.FileEntry{Target: manifest.TargetPath(disabledSentinel)}, nil
	}

	kind := manifest.Symbolic
	switch doc.Kind {
	case "", "symlink", "symbolic":
		kind = manifest.Symbolic
	case "template":
		kind = manifest.Template
	default:
		return manifest.FileEntry{}, &direrr.ConfigurationError{Target: target, Reason: fmt.Sprintf("unknown file kind %q", doc.Kind)}
	}

	entry := manifest.FileEntry{
		Source: manifest.SourcePath(doc.Source),
		Target: manifest.TargetPath(target),
		Kind:   kind,
	}
	if doc.Owner != nil {
		entry.Owner = &manifest.Owner{User: doc.Owner.User, Group: doc.Owner.Group}
	}
	return entry, nil
}

func toVariableContext(vars map[string]any) manifest.VariableContext {
	if vars == nil {
		return manifest.VariableContext{}
	}
	return manifest.VariableContext(vars)
}
