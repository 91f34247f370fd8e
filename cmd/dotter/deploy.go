package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dotter-go/dotter/internal/apply"
)

func newDeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Reconcile the filesystem against the manifest",
		Long: `Reconcile loads global.toml and local.toml (and, with --patch, a manifest
fragment on stdin), computes the minimal set of symlink/template changes
against the deployment cache and the actual filesystem, and applies them.`,
		RunE: runDeploy,
	}
}

func runDeploy(_ *cobra.Command, _ []string) error {
	return runWithCancellation(func(ctx context.Context) error {
		return reconcile(ctx, apply.Deploy)
	})
}
