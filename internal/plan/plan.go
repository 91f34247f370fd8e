// Package plan turns a Manifest, a Cache, and the actual filesystem state
// into an ordered ActionList: the minimal set of mutations needed to bring
// the target machine into the state the manifest describes.
package plan

import (
	"fmt"

	"github.com/dotter-go/dotter/internal/cache"
	"github.com/dotter-go/dotter/internal/classify"
	"github.com/dotter-go/dotter/internal/direrr"
	"github.com/dotter-go/dotter/internal/fsys"
	"github.com/dotter-go/dotter/internal/manifest"
	"github.com/dotter-go/dotter/internal/render"
)

// Kind enumerates the actions an Executor can be asked to perform.
type Kind int

const (
	CreateParentDir Kind = iota
	DeploySymlink
	DeployTemplate
	AdoptExisting
	UpdateTemplate
	RelinkSymbolic
	RemoveDeployed
	RemoveCreatedDir
	SkipAction
)

func (k Kind) String() string {
	switch k {
	case CreateParentDir:
		return "create_parent_dir"
	case DeploySymlink:
		return "deploy_symlink"
	case DeployTemplate:
		return "deploy_template"
	case AdoptExisting:
		return "adopt_existing"
	case UpdateTemplate:
		return "update_template"
	case RelinkSymbolic:
		return "relink_symbolic"
	case RemoveDeployed:
		return "remove_deployed"
	case RemoveCreatedDir:
		return "remove_created_dir"
	case SkipAction:
		return "skip"
	default:
		return "unknown"
	}
}

// Action is one step of the plan. Which fields are populated depends on
// Kind; see the field comments below for which fields apply to each.
type Action struct {
	Kind   Kind
	Target manifest.TargetPath
	Entry  manifest.FileEntry

	Dir string // CreateParentDir, RemoveCreatedDir

	NewBytes []byte // DeployTemplate, UpdateTemplate
	OldBytes []byte // UpdateTemplate (for diffing)

	NewLinkDest string // DeploySymlink, RelinkSymbolic, AdoptExisting(symbolic)
	OldLinkDest string // RelinkSymbolic

	CacheEntry cache.Entry // RemoveDeployed

	Reason string // SkipAction

	// ForgetDir tells the Executor to drop Dir's created_dirs record even
	// though this action is a Skip, not a RemoveCreatedDir: set when the
	// directory turned out to hold content Dotter didn't put there, so
	// Dotter no longer has a factual basis to keep claiming it. Never set
	// for a plain consent-declined skip, which is retried on the next run.
	ForgetDir bool // SkipAction with Dir set
}

// Confirmer asks the caller for interactive consent, used for removing an
// empty directory Dotter created when AutoConfirmEmptyDirRemoval is false.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Renderer is the subset of *render.Engine the Planner depends on.
type Renderer interface {
	Render(source string, templateBytes []byte, vars manifest.VariableContext, helpers render.HelperSet) ([]byte, error)
}

// Options controls non-structural planning decisions. DryRun is
// deliberately absent: the Planner always classifies and renders in full so
// diffs are available; only the Executor gates on DryRun.
type Options struct {
	Force                      bool
	AutoConfirmEmptyDirRemoval bool
	Confirm                    Confirmer
}

// Inputs bundles everything the Planner reads but does not own.
type Inputs struct {
	RepoRoot string
	Manifest *manifest.Manifest
	Cache    *cache.Cache
	FS       fsys.FS
	Renderer Renderer
	Helpers  render.HelperSet
}

// Plan produces an ordered ActionList from the given inputs. Per-entry
// failures (a bad render, an unreadable target) are collected into the
// returned Diagnostics and that entry becomes a SkipAction; Plan only
// returns a nil ActionList if a failure is global (e.g. recursion expansion
// against a broken manifest).
func Plan(in Inputs, opts Options) ([]Action, *direrr.Diagnostics) {
	diags := &direrr.Diagnostics{}

	files, err := expandRecursion(in.RepoRoot, in.Manifest, in.FS)
	if err != nil {
		diags.Add(err)
		return nil, diags
	}

	targets := make([]manifest.TargetPath, 0, len(files))
	for t := range files {
		targets = append(targets, t)
	}
	sortTargets(targets)

	var deployActions []Action
	var deployTargetStrings []string
	removedTargets := make(map[manifest.TargetPath]struct{})

	for _, target := range targets {
		entry := files[target]
		action, err := planEntry(in, entry, opts)
		if err != nil {
			diags.Add(err)
			action = Action{Kind: SkipAction, Target: target, Entry: entry, Reason: err.Error()}
		}
		deployActions = append(deployActions, action)
		if action.Kind == DeploySymlink || action.Kind == DeployTemplate {
			deployTargetStrings = append(deployTargetStrings, string(target))
		}
	}

	// Anything cached but no longer in the manifest gets removed.
	var removeActions []Action
	for target, entry := range in.Cache.Entries {
		if _, stillWanted := files[target]; stillWanted {
			continue
		}
		removeActions = append(removeActions, Action{Kind: RemoveDeployed, Target: target, CacheEntry: entry})
		removedTargets[target] = struct{}{}
	}
	sortRemoveActions(removeActions)

	parentDirActions := make([]Action, 0)
	for _, dir := range parentDirsFor(deployTargetStrings) {
		parentDirActions = append(parentDirActions, Action{Kind: CreateParentDir, Dir: dir})
	}

	removeDirActions := planDirRemovals(in, opts, removedTargets)

	all := make([]Action, 0, len(parentDirActions)+len(deployActions)+len(removeActions)+len(removeDirActions))
	all = append(all, parentDirActions...)
	all = append(all, deployActions...)
	all = append(all, removeActions...)
	all = append(all, removeDirActions...)

	return all, diags
}

// planEntry classifies one target and returns the single action it maps
// to, per the classifier result and Force.
func planEntry(in Inputs, entry manifest.FileEntry, opts Options) (Action, error) {
	target := entry.Target
	sourceAbs := manifestSourceAbs(in.RepoRoot, entry.Source)

	obs, err := observe(in.FS, entry, target)
	if err != nil {
		return Action{}, &direrr.FilesystemError{Op: "observe", Path: string(target), Err: err}
	}

	exp, err := expect(in, entry, sourceAbs)
	if err != nil {
		return Action{}, err
	}

	cached, hasCache := in.Cache.Get(target)
	var cachedPtr *cache.Entry
	if hasCache {
		cachedPtr = &cached
	}

	state := classify.Classify(entry, cachedPtr, obs, exp)

	switch state {
	case classify.New, classify.Vanished:
		return deployAction(entry, exp), nil

	case classify.AlreadyCorrectAdopt:
		return Action{Kind: AdoptExisting, Target: target, Entry: entry, NewBytes: exp.RenderedBytes, NewLinkDest: exp.LinkDest}, nil

	case classify.AlreadyCorrect:
		if obs.OwnerDiverged {
			return Action{Kind: AdoptExisting, Target: target, Entry: entry, NewBytes: exp.RenderedBytes, NewLinkDest: exp.LinkDest}, nil
		}
		return Action{Kind: SkipAction, Target: target, Entry: entry, Reason: "already_correct"}, nil

	case classify.Changed:
		return updateAction(entry, obs, exp), nil

	case classify.Collision:
		if opts.Force {
			return deployAction(entry, exp), nil
		}
		return Action{}, &direrr.CollisionError{Target: string(target)}

	case classify.UserModified:
		if opts.Force {
			return updateAction(entry, obs, exp), nil
		}
		return Action{}, &direrr.UserModifiedError{Target: string(target)}

	default:
		return Action{}, fmt.Errorf("unhandled classification state %v for %s", state, target)
	}
}

func deployAction(entry manifest.FileEntry, exp classify.Expected) Action {
	if entry.Kind == manifest.Symbolic {
		return Action{Kind: DeploySymlink, Target: entry.Target, Entry: entry, NewLinkDest: exp.LinkDest}
	}
	return Action{Kind: DeployTemplate, Target: entry.Target, Entry: entry, NewBytes: exp.RenderedBytes}
}

func updateAction(entry manifest.FileEntry, obs classify.Observation, exp classify.Expected) Action {
	if entry.Kind == manifest.Symbolic {
		return Action{Kind: RelinkSymbolic, Target: entry.Target, Entry: entry, NewLinkDest: exp.LinkDest, OldLinkDest: obs.LinkDest}
	}
	return Action{Kind: UpdateTemplate, Target: entry.Target, Entry: entry, NewBytes: exp.RenderedBytes, OldBytes: obs.CurrentBytes}
}

func observe(fs fsys.FS, entry manifest.FileEntry, target manifest.TargetPath) (classify.Observation, error) {
	meta, err := fs.Metadata(string(target))
	if err != nil {
		return classify.Observation{}, err
	}
	if !meta.Exists() {
		return classify.Observation{Exists: false}, nil
	}

	obs := classify.Observation{Exists: true}
	if meta.Kind == fsys.KindSymlink {
		dest, err := fs.ReadLink(string(target))
		if err != nil {
			return classify.Observation{}, err
		}
		obs.IsSymlink = true
		obs.LinkDest = dest
	} else {
		data, err := fs.ReadBytes(string(target))
		if err != nil {
			return classify.Observation{}, err
		}
		obs.CurrentBytes = data
	}

	if entry.Owner != nil && meta.Owner != nil {
		obs.OwnerDiverged = meta.Owner.User != entry.Owner.User || meta.Owner.Group != entry.Owner.Group
	}

	return obs, nil
}

func expect(in Inputs, entry manifest.FileEntry, sourceAbs string) (classify.Expected, error) {
	if entry.Kind == manifest.Symbolic {
		return classify.Expected{LinkDest: sourceAbs}, nil
	}

	templateBytes, err := in.FS.ReadBytes(sourceAbs)
	if err != nil {
		return classify.Expected{}, &direrr.FilesystemError{Op: "read template source", Path: sourceAbs, Err: err}
	}
	rendered, err := in.Renderer.Render(string(entry.Source), templateBytes, in.Manifest.Variables, in.Helpers)
	if err != nil {
		return classify.Expected{}, err
	}
	return classify.Expected{RenderedBytes: rendered}, nil
}

func manifestSourceAbs(repoRoot string, source manifest.SourcePath) string {
	if source == "" {
		return repoRoot
	}
	return joinPath(repoRoot, string(source))
}
