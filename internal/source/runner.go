// Package source runs the external commands that produce secret values.
package source

import (
	"bytes"
	"context"
	"strings"

	dserrors "github.com/systmms/hemli/internal/errors"
	"github.com/systmms/hemli/internal/secret"
	"github.com/systmms/hemli/internal/secure"
)

// DefaultShell interprets shell-mode commands.
const DefaultShell = "sh"

// Runner turns a secret.Source into a value. It makes exactly one attempt.
type Runner struct {
	executor CommandExecutor
	shell    string
}

// NewRunner creates a runner. A nil executor runs real processes and an
// empty shell means DefaultShell.
func NewRunner(executor CommandExecutor, shell string) *Runner {
	if executor == nil {
		executor = OSExecutor{}
	}
	if shell == "" {
		shell = DefaultShell
	}
	return &Runner{executor: executor, shell: shell}
}

// Argv returns the program and arguments src is executed as.
func (r *Runner) Argv(src secret.Source) (string, []string, error) {
	switch src.Mode {
	case secret.ModeShell:
		return r.shell, []string{"-c", src.Command}, nil
	case secret.ModeDirect:
		parts := strings.Fields(src.Command)
		if len(parts) == 0 {
			return "", nil, dserrors.CommandError{Command: src.Command, ExitCode: -1, Stderr: "empty command"}
		}
		return parts[0], parts[1:], nil
	default:
		return "", nil, dserrors.CommandError{Command: src.Command, ExitCode: -1, Stderr: "unknown source type " + string(src.Mode)}
	}
}

// Fetch executes src and returns its stdout with trailing newlines removed.
// The captured buffer is moved into a secure.Value and wiped.
func (r *Runner) Fetch(ctx context.Context, src secret.Source) (*secure.Value, error) {
	name, args, err := r.Argv(src)
	if err != nil {
		return nil, err
	}

	res, err := r.executor.Execute(ctx, name, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, dserrors.CommandError{Command: src.Command, ExitCode: -1, Err: err}
	}
	if res.ExitCode != 0 {
		wipe(res.Stdout)
		return nil, dserrors.CommandError{
			Command:  src.Command,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(string(res.Stderr)),
		}
	}

	out := bytes.TrimRight(res.Stdout, "\r\n")
	v := secure.NewValue(out)
	wipe(res.Stdout)
	return v, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
