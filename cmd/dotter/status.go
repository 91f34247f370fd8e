package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dotter-go/dotter/internal/cache"
	"github.com/dotter-go/dotter/internal/renderhistory"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the last recorded render of every deployed template",
		Long: `Status reads the render history database and the deployment cache and
prints, for every template source ever deployed, when it was last rendered
and whether that render is still what the cache currently has deployed.`,
		RunE: runStatus,
	}
}

func runStatus(_ *cobra.Command, _ []string) error {
	history, err := renderhistory.Open(flags.historyFile)
	if err != nil {
		return fmt.Errorf("opening render history: %w", err)
	}
	defer func() { _ = history.Close() }()

	c, err := cache.Load(flags.cacheFile)
	if err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}

	sources, err := history.Sources()
	if err != nil {
		return fmt.Errorf("listing render history sources: %w", err)
	}
	if len(sources) == 0 {
		fmt.Println("no recorded template renders")
		return nil
	}

	deployedHashes := make(map[string]string, len(c.Entries))
	for _, entry := range c.Entries {
		deployedHashes[string(entry.Source)] = entry.ContentHash
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tLAST RENDERED\tHASH\tSTATUS")
	for _, source := range sources {
		latest, err := history.Latest(source)
		if err != nil {
			return fmt.Errorf("reading latest render for %q: %w", source, err)
		}
		if latest == nil {
			continue
		}

		status := "current"
		if deployed, ok := deployedHashes[source]; !ok {
			status = "not deployed"
		} else if deployed != latest.RenderedHash {
			status = "drifted"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", source, latest.RenderedAt.Format("2006-01-02 15:04:05"), shortHash(latest.RenderedHash), status)
	}
	return w.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
