// Package apply executes a plan.Action list against the filesystem,
// mutating an in-memory Cache as it goes; the caller persists that Cache
// once at the end of the run.
package apply

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dotter-go/dotter/internal/cache"
	"github.com/dotter-go/dotter/internal/direrr"
	"github.com/dotter-go/dotter/internal/fsys"
	"github.com/dotter-go/dotter/internal/hook"
	"github.com/dotter-go/dotter/internal/manifest"
	"github.com/dotter-go/dotter/internal/plan"
)

// Mode selects which pair of hooks surrounds a run.
type Mode int

const (
	Deploy Mode = iota
	Undeploy
)

// Hooks names the external scripts to invoke around a run. An empty path
// means "no hook configured" and is silently skipped.
type Hooks struct {
	PreDeploy    string
	PostDeploy   string
	PreUndeploy  string
	PostUndeploy string
}

// RenderHistory is the subset of *renderhistory.Store the Executor needs to
// record a successful template write. Declared here rather than imported
// directly so apply doesn't need renderhistory's SQLite dependency in
// builds that have no History configured.
type RenderHistory interface {
	Record(runID, source, renderedHash, platformOS, hostname string) error
}

// Executor runs an ActionList sequentially, one commit point per action.
type Executor struct {
	FS               fsys.FS
	Cache            *cache.Cache
	Logger           *slog.Logger
	DryRun           bool
	Verbosity        int
	DiffContextLines int
	Hooks            Hooks
	HookRunner       *hook.Runner

	// History, if non-nil, records every DeployTemplate/UpdateTemplate this
	// Execute call actually writes, tagged with one uuid shared by the
	// whole run.
	History    RenderHistory
	PlatformOS string
	Hostname   string
}

// Execute runs actions in order, returning aggregated diagnostics. It never
// stops early on a per-action failure; it only skips actions whose
// dependencies (a parent directory) failed to materialize.
func (e *Executor) Execute(ctx context.Context, actions []plan.Action, mode Mode) *direrr.Diagnostics {
	diags := &direrr.Diagnostics{}
	if len(actions) == 0 {
		return diags
	}

	e.runPreHook(ctx, mode, diags)

	runID := uuid.NewString()
	failedDirs := make(map[string]struct{})

	for _, action := range actions {
		if e.blockedByFailedParent(action, failedDirs) {
			diags.Add(&direrr.FilesystemError{Op: action.Kind.String(), Path: string(action.Target), Err: errParentDirFailed})
			continue
		}

		if err := e.executeOne(action, runID); err != nil {
			diags.Add(err)
			if action.Kind == plan.CreateParentDir {
				failedDirs[action.Dir] = struct{}{}
			}
			continue
		}
	}

	e.runPostHook(ctx, mode, diags)

	return diags
}

func (e *Executor) blockedByFailedParent(action plan.Action, failedDirs map[string]struct{}) bool {
	if len(failedDirs) == 0 {
		return false
	}
	target := string(action.Target)
	if target == "" {
		return false
	}
	dir := filepath.Dir(target)
	for dir != "/" && dir != "." {
		if _, failed := failedDirs[dir]; failed {
			return true
		}
		dir = filepath.Dir(dir)
	}
	return false
}

func (e *Executor) executeOne(action plan.Action, runID string) error {
	switch action.Kind {
	case plan.SkipAction:
		e.logSkip(action)
		if action.ForgetDir && action.Dir != "" {
			e.Cache.ForgetDir(action.Dir)
		}
		return nil

	case plan.CreateParentDir:
		if e.DryRun {
			e.logDryRun("would create directory", action.Dir)
			return nil
		}
		res, err := e.FS.EnsureDir(action.Dir)
		if err != nil {
			return err
		}
		if res == fsys.Created {
			e.Cache.MarkDirCreated(action.Dir)
		}
		return nil

	case plan.DeploySymlink:
		if e.DryRun {
			e.logDryRun("would symlink", string(action.Target))
			return nil
		}
		// A forced collision leaves something at the target; clear it first.
		if err := e.FS.Unlink(string(action.Target)); err != nil {
			return err
		}
		if err := e.FS.MakeSymlink(action.NewLinkDest, string(action.Target)); err != nil {
			return err
		}
		if err := e.applyOwner(action); err != nil {
			return err
		}
		e.Cache.Set(cache.Entry{Target: action.Target, Source: action.Entry.Source, Kind: manifest.Symbolic, LinkDest: action.NewLinkDest})
		return nil

	case plan.DeployTemplate:
		if e.DryRun {
			e.logDryRun("would write", string(action.Target))
			return nil
		}
		if err := e.FS.WriteBytesAtomic(string(action.Target), action.NewBytes, 0o644); err != nil {
			return err
		}
		if err := e.applyOwner(action); err != nil {
			return err
		}
		e.recordRender(runID, action)
		e.Cache.Set(cache.Entry{Target: action.Target, Source: action.Entry.Source, Kind: manifest.Template, ContentHash: hashBytes(action.NewBytes)})
		return nil

	case plan.AdoptExisting:
		if e.DryRun {
			e.logDryRun("would adopt", string(action.Target))
			return nil
		}
		if err := e.applyOwner(action); err != nil {
			return err
		}
		if action.Entry.Kind == manifest.Symbolic {
			e.Cache.Set(cache.Entry{Target: action.Target, Source: action.Entry.Source, Kind: manifest.Symbolic, LinkDest: action.NewLinkDest})
		} else {
			e.Cache.Set(cache.Entry{Target: action.Target, Source: action.Entry.Source, Kind: manifest.Template, ContentHash: hashBytes(action.NewBytes)})
		}
		return nil

	case plan.UpdateTemplate:
		e.logDiff(action)
		if e.DryRun {
			e.logDryRun("would update", string(action.Target))
			return nil
		}
		if err := e.FS.WriteBytesAtomic(string(action.Target), action.NewBytes, 0o644); err != nil {
			return err
		}
		if err := e.applyOwner(action); err != nil {
			return err
		}
		e.recordRender(runID, action)
		e.Cache.Set(cache.Entry{Target: action.Target, Source: action.Entry.Source, Kind: manifest.Template, ContentHash: hashBytes(action.NewBytes)})
		return nil

	case plan.RelinkSymbolic:
		if e.Verbosity >= 1 {
			e.log().Info("relinking", "target", action.Target, "old", action.OldLinkDest, "new", action.NewLinkDest)
		}
		if e.DryRun {
			e.logDryRun("would relink", string(action.Target))
			return nil
		}
		if err := e.FS.Unlink(string(action.Target)); err != nil {
			return err
		}
		if err := e.FS.MakeSymlink(action.NewLinkDest, string(action.Target)); err != nil {
			return err
		}
		if err := e.applyOwner(action); err != nil {
			return err
		}
		e.Cache.Set(cache.Entry{Target: action.Target, Source: action.Entry.Source, Kind: manifest.Symbolic, LinkDest: action.NewLinkDest})
		return nil

	case plan.RemoveDeployed:
		if e.DryRun {
			e.logDryRun("would remove", string(action.Target))
			return nil
		}
		if err := e.FS.Unlink(string(action.Target)); err != nil {
			return err
		}
		e.Cache.Forget(action.Target)
		return nil

	case plan.RemoveCreatedDir:
		if e.DryRun {
			e.logDryRun("would remove directory", action.Dir)
			return nil
		}
		removed, err := e.FS.RemoveDirIfEmpty(action.Dir)
		if err != nil {
			return err
		}
		if removed {
			e.Cache.ForgetDir(action.Dir)
		}
		return nil

	default:
		return nil
	}
}

// applyOwner sets the post-write owner named by the action's FileEntry, if
// any. A nil Owner means inherit whatever ownership the write produced, so
// there's nothing to do.
func (e *Executor) applyOwner(action plan.Action) error {
	owner := action.Entry.Owner
	if owner == nil {
		return nil
	}
	return e.FS.SetOwner(string(action.Target), fsys.Owner{User: owner.User, Group: owner.Group})
}

// recordRender logs a successful template write to History, if configured.
// Failures here are logged, not returned: losing a render-history row is
// never a reason to fail a deploy that otherwise succeeded.
func (e *Executor) recordRender(runID string, action plan.Action) {
	if e.History == nil {
		return
	}
	err := e.History.Record(runID, string(action.Entry.Source), hashBytes(action.NewBytes), e.PlatformOS, e.Hostname)
	if err != nil {
		e.log().Warn("render history record failed", "source", action.Entry.Source, "error", err)
	}
}

func (e *Executor) logSkip(action plan.Action) {
	e.log().Warn("skipped", "target", action.Target, "dir", action.Dir, "reason", action.Reason)
}

func (e *Executor) logDryRun(verb, path string) {
	e.log().Info(verb, "path", path, "dry_run", true)
}

func (e *Executor) logDiff(action plan.Action) {
	if e.Verbosity < 1 {
		return
	}
	diffText := UnifiedDiff(string(action.Target)+" (deployed)", string(action.Target)+" (desired)", action.OldBytes, action.NewBytes, e.DiffContextLines)
	for _, line := range strings.Split(strings.TrimRight(diffText, "\n"), "\n") {
		e.log().Info(line)
	}
}

func (e *Executor) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Executor) runPreHook(ctx context.Context, mode Mode, diags *direrr.Diagnostics) {
	path := e.Hooks.PreDeploy
	if mode == Undeploy {
		path = e.Hooks.PreUndeploy
	}
	e.runHook(ctx, path, diags)
}

func (e *Executor) runPostHook(ctx context.Context, mode Mode, diags *direrr.Diagnostics) {
	path := e.Hooks.PostDeploy
	if mode == Undeploy {
		path = e.Hooks.PostUndeploy
	}
	e.runHook(ctx, path, diags)
}

func (e *Executor) runHook(ctx context.Context, path string, diags *direrr.Diagnostics) {
	if path == "" || e.HookRunner == nil {
		return
	}
	if err := e.HookRunner.Run(ctx, path); err != nil {
		e.log().Warn("hook failed", "path", path, "error", err)
		diags.Add(&direrr.HookError{HookPath: path, Err: err})
	}
}
