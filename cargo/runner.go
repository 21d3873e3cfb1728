package cargo

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// CommandRequest captures process execution metadata for a synchronous run.
type CommandRequest struct {
	Workdir string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// CommandRunner executes a command to completion and captures its output.
type CommandRunner interface {
	Run(ctx context.Context, req CommandRequest) (stdout string, stderr string, err error)
}

// RunnerFunc adapts a function to CommandRunner.
type RunnerFunc func(ctx context.Context, req CommandRequest) (string, string, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, req CommandRequest) (string, string, error) {
	return f(ctx, req)
}

// ExecRunner launches processes directly on the host.
type ExecRunner struct{}

// Run blocks until the process exits. Args[0] is the binary.
func (ExecRunner) Run(ctx context.Context, req CommandRequest) (string, string, error) {
	if len(req.Args) == 0 {
		return "", "", errors.New("command arguments required")
	}
	execCtx := ctx
	cancel := func() {}
	if req.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	defer cancel()
	cmd := exec.CommandContext(execCtx, req.Args[0], req.Args[1:]...)
	if req.Workdir != "" {
		cmd.Dir = req.Workdir
	}
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
