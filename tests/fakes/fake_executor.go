package fakes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/systmms/hemli/internal/source"
)

// FakeCommandExecutor provides a configurable mock for source commands.
type FakeCommandExecutor struct {
	mu sync.Mutex

	// Responses maps "command arg1 arg2" to the result returned for it.
	Responses map[string]FakeResponse

	// DefaultResponse is used when no matching command is found.
	DefaultResponse *FakeResponse

	// RecordedCalls stores all calls made to Execute for verification.
	RecordedCalls []RecordedCall
}

// FakeResponse defines the outcome of a faked command.
type FakeResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// RecordedCall stores information about a command execution.
type RecordedCall struct {
	Command string
	Args    []string
}

// NewFakeCommandExecutor creates a fake executor with no responses.
func NewFakeCommandExecutor() *FakeCommandExecutor {
	return &FakeCommandExecutor{
		Responses: make(map[string]FakeResponse),
	}
}

// Respond registers stdout for an exact command line.
func (f *FakeCommandExecutor) Respond(commandLine, stdout string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[commandLine] = FakeResponse{Stdout: stdout}
}

// Fail registers a non-zero exit for an exact command line.
func (f *FakeCommandExecutor) Fail(commandLine, stderr string, exitCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[commandLine] = FakeResponse{Stderr: stderr, ExitCode: exitCode}
}

// Execute returns the configured response for the command line.
func (f *FakeCommandExecutor) Execute(ctx context.Context, name string, args ...string) (source.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.RecordedCalls = append(f.RecordedCalls, RecordedCall{Command: name, Args: args})

	if err := ctx.Err(); err != nil {
		return source.Result{}, err
	}

	key := strings.Join(append([]string{name}, args...), " ")
	resp, ok := f.Responses[key]
	if !ok {
		if f.DefaultResponse == nil {
			return source.Result{}, fmt.Errorf("fake: no response configured for command: %s", key)
		}
		resp = *f.DefaultResponse
	}
	if resp.Err != nil {
		return source.Result{}, resp.Err
	}
	return source.Result{
		Stdout:   []byte(resp.Stdout),
		Stderr:   []byte(resp.Stderr),
		ExitCode: resp.ExitCode,
	}, nil
}

// CallCount returns the number of times Execute was called.
func (f *FakeCommandExecutor) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.RecordedCalls)
}

var _ source.CommandExecutor = (*FakeCommandExecutor)(nil)
