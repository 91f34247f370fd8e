// Package main provides the CLI entry point for dotter.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

type cliFlags struct {
	dryRun           bool
	verbosity        int
	quiet            bool
	force            bool
	noConfirm        bool
	patch            bool
	diffContextLines int

	globalConfig string
	localConfig  string
	cacheFile    string
	historyFile  string

	preDeploy    string
	postDeploy   string
	preUndeploy  string
	postUndeploy string
}

var flags cliFlags

func main() {
	rootCmd := &cobra.Command{
		Use:     "dotter",
		Version: version,
		Short:   "Deploy and reconcile dotfiles from a repository manifest",
		Long: `dotter reconciles a machine's dotfiles against a desired manifest: it
computes and applies the minimum set of symlink and templated-file changes
needed to bring the filesystem into agreement with global.toml and
local.toml, without clobbering files it doesn't recognize.

Run 'dotter deploy' (or just 'dotter') to reconcile. Run 'dotter undeploy'
to remove everything dotter has deployed on this host.`,
		RunE: runDeploy,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "show what would change without mutating the filesystem")
	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", "increase output detail (repeatable, 0-3)")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress all but error-level output")
	rootCmd.PersistentFlags().BoolVarP(&flags.force, "force", "f", false, "overwrite collisions and user-modified files; also disables --dry-run")
	rootCmd.PersistentFlags().BoolVar(&flags.noConfirm, "noconfirm", false, "answer every interactive confirmation automatically")
	rootCmd.PersistentFlags().BoolVar(&flags.patch, "patch", false, "read an additional manifest fragment from stdin, applied last")
	rootCmd.PersistentFlags().IntVar(&flags.diffContextLines, "diff-context-lines", 3, "context lines around each diff hunk at -v or higher")

	rootCmd.PersistentFlags().StringVar(&flags.globalConfig, "global-config", "global.toml", "path to the global package manifest")
	rootCmd.PersistentFlags().StringVar(&flags.localConfig, "local-config", "local.toml", "path to the host-local configuration")
	rootCmd.PersistentFlags().StringVar(&flags.cacheFile, "cache-file", ".dotter/cache.toml", "path to the persisted deployment cache")
	rootCmd.PersistentFlags().StringVar(&flags.cacheFile, "cache-directory", ".dotter/cache.toml", "deprecated alias for --cache-file")
	_ = rootCmd.PersistentFlags().MarkHidden("cache-directory")
	rootCmd.PersistentFlags().StringVar(&flags.historyFile, "history-file", ".dotter/render_history.db", "path to the render history database")

	rootCmd.PersistentFlags().StringVar(&flags.preDeploy, "pre-deploy", "", "script run once before a deploy")
	rootCmd.PersistentFlags().StringVar(&flags.postDeploy, "post-deploy", "", "script run once after a deploy")
	rootCmd.PersistentFlags().StringVar(&flags.preUndeploy, "pre-undeploy", "", "script run once before an undeploy")
	rootCmd.PersistentFlags().StringVar(&flags.postUndeploy, "post-undeploy", "", "script run once after an undeploy")

	rootCmd.AddCommand(
		newDeployCmd(),
		newUndeployCmd(),
		newInitCmd(),
		newWatchCmd(),
		newStatusCmd(),
		newCompletionsCmd(rootCmd),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runWithCancellation cancels ctx on SIGINT/SIGTERM instead of letting the
// signal kill the process outright. The Executor does not check ctx between
// actions, so the remaining actions still run; cancellation stops a hook
// script that is running at that moment.
func runWithCancellation(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\ninterrupted, finishing the current run")
		cancel()
	}()

	return fn(ctx)
}
