package marketplace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ToolRun is the captured outcome of one tool invocation.
type ToolRun struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes the search tool with args.
type Runner interface {
	Run(ctx context.Context, args []string) (ToolRun, error)
}

// ExecRunner runs Binary as a subprocess in Dir.
type ExecRunner struct {
	Binary string
	Dir    string
}

// Run returns an error only when the process could not be started or was
// killed by ctx. A non-zero exit is reported through ToolRun.ExitCode.
func (r ExecRunner) Run(ctx context.Context, args []string) (ToolRun, error) {
	bin := r.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	run := ToolRun{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			run.ExitCode = exitErr.ExitCode()
			return run, nil
		}
		return run, fmt.Errorf("run %s: %w", bin, err)
	}
	return run, nil
}
