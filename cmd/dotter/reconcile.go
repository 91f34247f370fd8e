package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dotter-go/dotter/internal/apply"
	"github.com/dotter-go/dotter/internal/cache"
	"github.com/dotter-go/dotter/internal/confirm"
	"github.com/dotter-go/dotter/internal/direrr"
	"github.com/dotter-go/dotter/internal/fsys"
	"github.com/dotter-go/dotter/internal/hook"
	"github.com/dotter-go/dotter/internal/manifest"
	"github.com/dotter-go/dotter/internal/manifestio"
	"github.com/dotter-go/dotter/internal/plan"
	"github.com/dotter-go/dotter/internal/platform"
	"github.com/dotter-go/dotter/internal/render"
	"github.com/dotter-go/dotter/internal/renderhistory"
)

// reconcile loads the manifest and cache, plans, and executes a single
// deploy or undeploy run. It is the one place cmd/dotter's flags become
// the core's Inputs/Options, keeping internal/plan and internal/apply
// themselves free of any notion of a CLI.
func reconcile(ctx context.Context, mode apply.Mode) error {
	repoRoot, err := repoRootFromConfigPath(flags.globalConfig)
	if err != nil {
		return err
	}

	plat := platform.Detect()
	renderer := render.New(plat)

	var patch io.Reader
	if flags.patch {
		patch = os.Stdin
	}

	m, err := manifestio.Load(manifestio.Options{
		RepoRoot:   repoRoot,
		GlobalPath: flags.globalConfig,
		LocalPath:  flags.localConfig,
		Patch:      patch,
		Renderer:   renderer,
	})
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Undeploy targets every cached entry regardless of the current
	// manifest: planning against an empty manifest makes every cached
	// target look "missing from the manifest", which Plan already turns
	// into RemoveDeployed.
	if mode == apply.Undeploy {
		m = manifest.New()
	}

	c, err := cache.Load(flags.cacheFile)
	if err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}

	confirmer := buildConfirmer()

	// force implies write-through even under dry-run; this CLI-level
	// negation is the only place dry-run and force interact (internal/plan
	// and internal/apply keep them orthogonal).
	dryRun := flags.dryRun && !flags.force

	in := plan.Inputs{
		RepoRoot: repoRoot,
		Manifest: m,
		Cache:    c,
		FS:       fsys.NewOS(),
		Renderer: renderer,
		Helpers:  resolveHelpers(repoRoot, m.Helpers),
	}

	actions, diags := plan.Plan(in, plan.Options{
		Force:                      flags.force,
		AutoConfirmEmptyDirRemoval: flags.noConfirm,
		Confirm:                    confirmer,
	})

	logger := newLogger()
	logDiagnostics(logger, diags)

	history, err := renderhistory.Open(flags.historyFile)
	if err != nil {
		logger.Warn("render history unavailable", "error", err)
	} else {
		defer func() { _ = history.Close() }()
	}

	exec := &apply.Executor{
		FS:               in.FS,
		Cache:            c,
		Logger:           logger,
		DryRun:           dryRun,
		Verbosity:        flags.verbosity,
		DiffContextLines: flags.diffContextLines,
		Hooks: apply.Hooks{
			PreDeploy:    flags.preDeploy,
			PostDeploy:   flags.postDeploy,
			PreUndeploy:  flags.preUndeploy,
			PostUndeploy: flags.postUndeploy,
		},
		HookRunner: &hook.Runner{},
		PlatformOS: plat.OS,
		Hostname:   plat.Hostname,
	}
	if history != nil {
		exec.History = history
	}

	execDiags := exec.Execute(ctx, actions, mode)
	logDiagnostics(logger, execDiags)

	if !dryRun {
		if err := cache.Save(flags.cacheFile, c); err != nil {
			return fmt.Errorf("saving cache: %w", err)
		}
	}

	if diags.HasErrors() || execDiags.HasErrors() {
		return fmt.Errorf("reconciliation completed with errors")
	}
	return nil
}

func buildConfirmer() plan.Confirmer {
	if flags.noConfirm {
		auto := true
		return &confirm.Prompter{Auto: &auto}
	}
	return &confirm.Prompter{}
}

func resolveHelpers(repoRoot string, helpers map[string]manifest.SourcePath) render.HelperSet {
	out := make(render.HelperSet, len(helpers))
	for name, src := range helpers {
		out[name] = filepath.Join(repoRoot, string(src))
	}
	return out
}

func repoRootFromConfigPath(globalConfigPath string) (string, error) {
	if globalConfigPath == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(globalConfigPath)
	if err != nil {
		return "", fmt.Errorf("resolving global config path: %w", err)
	}
	return filepath.Dir(abs), nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case flags.quiet:
		level = slog.LevelError
	case flags.verbosity >= 2:
		level = slog.LevelDebug
	case flags.verbosity >= 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func logDiagnostics(logger *slog.Logger, diags *direrr.Diagnostics) {
	for _, err := range diags.Errors {
		logger.Error(err.Error())
	}
}
