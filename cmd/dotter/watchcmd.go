package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dotter-go/dotter/internal/apply"
	"github.com/dotter-go/dotter/internal/watch"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Redeploy automatically whenever the repository changes",
		Long: `Watch recursively watches the repository root containing global.toml for
changes and reruns a deploy once per debounced burst of edits. A deploy
already running suppresses further triggers until it finishes, rather
than queuing them up.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	repoRoot, err := repoRootFromConfigPath(flags.globalConfig)
	if err != nil {
		return err
	}

	logger := newLogger()

	stop := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		close(stop)
	}()

	deployFn := func() {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if err := reconcile(ctx, apply.Deploy); err != nil {
			logger.Error("watch-triggered deploy failed", "error", err)
		}
	}

	// Run once immediately so the first invocation of 'dotter watch'
	// brings the host up to date before waiting for further changes.
	deployFn()

	if err := watch.Run(repoRoot, deployFn, stop, logger); err != nil {
		return fmt.Errorf("watching %s: %w", repoRoot, err)
	}
	return nil
}
