package source

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result holds what a finished process produced.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandExecutor runs a program and captures its output.
// A non-zero exit is reported through Result.ExitCode, not the error; the
// error is reserved for processes that could not be started or were cancelled.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) (Result, error)
}

// OSExecutor executes real processes using os/exec.
type OSExecutor struct{}

// Execute runs name with args, inheriting the caller's environment.
func (OSExecutor) Execute(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}

	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, err
	}
}

var _ CommandExecutor = OSExecutor{}
