package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported by the lifecycle engine. Match them with errors.Is.
var (
	ErrNotFound         = errors.New("secret not found")
	ErrNoSource         = errors.New("no source available")
	ErrConflictingFlags = errors.New("conflicting flags")
	ErrNoModification   = errors.New("no modification requested")
	ErrSourceFailed     = errors.New("source command failed")
	ErrStoreAccess      = errors.New("credential store access failed")
	ErrIndexCorrupt     = errors.New("index corrupt")
	ErrRecordCorrupt    = errors.New("stored record corrupt")
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Kind       error
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind this error was tagged with.
func (e UserError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// NotFoundError reports an identity that is absent from the credential store.
type NotFoundError struct {
	Namespace string
	Name      string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("secret '%s' not found in namespace '%s'", e.Name, e.Namespace)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError reports mutually exclusive flags that were set together.
type ConflictError struct {
	Flags []string
}

func (e ConflictError) Error() string {
	quoted := make([]string, len(e.Flags))
	for i, f := range e.Flags {
		quoted[i] = "--" + f
	}
	return fmt.Sprintf("flags %s are mutually exclusive", strings.Join(quoted, ", "))
}

func (e ConflictError) Is(target error) bool {
	return target == ErrConflictingFlags
}

// CommandError represents a failed source command execution
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("source command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	switch {
	case e.Stderr != "":
		msg += ": " + e.Stderr
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e CommandError) Unwrap() error {
	return e.Err
}

func (e CommandError) Is(target error) bool {
	return target == ErrSourceFailed
}

// StoreError wraps credential store failures with the entry they concern.
type StoreError struct {
	Op      string // "read", "write", "delete", "decode"
	Service string
	Account string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential store %s error for %s/%s: %v", e.Op, e.Service, e.Account, e.Err)
	}
	return fmt.Sprintf("credential store %s error for %s/%s", e.Op, e.Service, e.Account)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	if e.Op == "decode" {
		return target == ErrRecordCorrupt
	}
	return target == ErrStoreAccess
}

// IndexError reports an index file that could not be parsed or validated.
type IndexError struct {
	Path string
	Err  error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index file %s is corrupt: %v", e.Path, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexCorrupt
}

// NoSource builds the error returned when a refresh is needed but nothing
// says how to fetch the secret.
func NoSource(namespace, name string) error {
	return UserError{
		Message:    fmt.Sprintf("no source command provided and secret '%s' in namespace '%s' has no stored source", name, namespace),
		Suggestion: "Pass --source-sh or --source-cmd to fetch the secret",
		Kind:       ErrNoSource,
	}
}

// NoModification builds the error returned by edit when no change flag is set.
func NoModification() error {
	return UserError{
		Message:    "no modifications specified",
		Suggestion: "Provide at least one of --ttl, --clear-ttl, --source-sh, or --source-cmd",
		Kind:       ErrNoModification,
	}
}
