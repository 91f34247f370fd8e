package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dotter-go/dotter/internal/apply"
)

func newUndeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undeploy",
		Short: "Remove everything dotter has deployed on this host",
		Long: `Undeploy plans as if the manifest were empty, which turns every entry in
the cache into a removal, then applies those removals and clears the
cache entries that succeeded. Files dotter never deployed are untouched.`,
		RunE: runUndeploy,
	}
}

func runUndeploy(_ *cobra.Command, _ []string) error {
	return runWithCancellation(func(ctx context.Context) error {
		return reconcile(ctx, apply.Undeploy)
	})
}
