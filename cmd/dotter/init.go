package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const globalTomlStub = `# global.toml declares every package this repository can deploy.
# Each package has an optional "when" expression (a Go template rendered
# against platform facts and variables; the literal string "true" selects
# the package), a set of files mapping deployed target -> source, and
# optional variables/helpers available to template-kind files.

[packages.example]
when = "{{if eq .OS \"linux\"}}true{{end}}"

[packages.example.files]
"~/.bashrc" = { source = "bashrc", kind = "symlink" }
`

const localTomlStub = `# local.toml selects which packages from global.toml this host deploys,
# and layers host-local variable overrides on top of them.
#
# An empty packages list selects every package whose "when" matches.
packages = []

[variables]
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <path>",
		Short: "Scaffold a new dotfiles repository",
		Long: `Init creates <path> if needed and writes starter global.toml and
local.toml documents into it, along with the .dotter/ cache directory.
It does not overwrite files that already exist.`,
		Args: cobra.ExactArgs(1),
		RunE: runInit,
	}
}

func runInit(_ *cobra.Command, args []string) error {
	path := args[0]

	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o750); err != nil {
		return fmt.Errorf("creating repository directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(absPath, ".dotter"), 0o750); err != nil {
		return fmt.Errorf("creating .dotter directory: %w", err)
	}

	if err := writeIfAbsent(filepath.Join(absPath, "global.toml"), globalTomlStub); err != nil {
		return err
	}
	if err := writeIfAbsent(filepath.Join(absPath, "local.toml"), localTomlStub); err != nil {
		return err
	}

	fmt.Printf("Initialized dotfiles repository at %s\n", absPath)
	fmt.Println("Edit global.toml and local.toml, then run 'dotter deploy' from that directory.")
	return nil
}

func writeIfAbsent(path, contents string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("%s already exists, leaving it untouched\n", path)
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o640); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
