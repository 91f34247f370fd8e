// Package hook invokes the external pre/post deploy and undeploy scripts.
// A missing hook file is a no-op; a nonzero exit is reported to the caller
// but never treated as fatal to mutations already underway.
package hook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Runner executes hook scripts with no arguments, inheriting the current
// process's working directory and environment.
type Runner struct {
	// Timeout bounds how long a single hook may run. Zero means no limit.
	Timeout time.Duration
}

// Run invokes the hook at path. Absence of the file is not an error.
func (r *Runner) Run(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running hook %s: %w", path, err)
	}
	return nil
}
