package lifecycle

import (
	"fmt"

	dserrors "github.com/systmms/hemli/internal/errors"
	"github.com/systmms/hemli/internal/secret"
)

// RefreshMode is the single refresh modifier of a get request.
type RefreshMode int

const (
	// RefreshDefault serves fresh records from the cache and fetches otherwise.
	RefreshDefault RefreshMode = iota
	// ForceRefresh always fetches.
	ForceRefresh
	// NoRefresh never fetches; expired records are still returned.
	NoRefresh
	// NoStore fetches like RefreshDefault but never persists the result.
	NoStore
)

func (m RefreshMode) String() string {
	switch m {
	case RefreshDefault:
		return "default"
	case ForceRefresh:
		return "force-refresh"
	case NoRefresh:
		return "no-refresh"
	case NoStore:
		return "no-store"
	default:
		return fmt.Sprintf("RefreshMode(%d)", int(m))
	}
}

// GetOptions are the raw get flags. Nil pointers mean "not given".
type GetOptions struct {
	Namespace    string
	Name         string
	SourceSh     *string
	SourceCmd    *string
	TTL          *uint64
	ForceRefresh bool
	NoRefresh    bool
	NoStore      bool
}

// GetRequest is a validated get.
type GetRequest struct {
	ID     secret.ID
	Source *secret.Source
	TTL    *uint64
	Mode   RefreshMode
}

// NewGetRequest validates o. All flag conflicts are rejected here, before
// any state is read.
func NewGetRequest(o GetOptions) (GetRequest, error) {
	id, err := newID(o.Namespace, o.Name)
	if err != nil {
		return GetRequest{}, err
	}
	src, err := sourceFrom(o.SourceSh, o.SourceCmd)
	if err != nil {
		return GetRequest{}, err
	}

	var set []string
	mode := RefreshDefault
	if o.ForceRefresh {
		set = append(set, "force-refresh")
		mode = ForceRefresh
	}
	if o.NoRefresh {
		set = append(set, "no-refresh")
		mode = NoRefresh
	}
	if o.NoStore {
		set = append(set, "no-store")
		mode = NoStore
	}
	if len(set) > 1 {
		return GetRequest{}, dserrors.ConflictError{Flags: set}
	}

	if err := checkTTL(o.TTL); err != nil {
		return GetRequest{}, err
	}

	return GetRequest{ID: id, Source: src, TTL: o.TTL, Mode: mode}, nil
}

// TTLChange describes what edit does to the TTL.
type TTLChange struct {
	op    ttlOp
	value uint64
}

type ttlOp int

const (
	ttlKeep ttlOp = iota
	ttlSet
	ttlClear
)

// KeepTTL leaves the TTL untouched.
func KeepTTL() TTLChange { return TTLChange{op: ttlKeep} }

// SetTTL replaces the TTL with seconds.
func SetTTL(seconds uint64) TTLChange { return TTLChange{op: ttlSet, value: seconds} }

// ClearTTL removes the TTL so the record never expires.
func ClearTTL() TTLChange { return TTLChange{op: ttlClear} }

// IsKeep reports whether the change is a no-op.
func (c TTLChange) IsKeep() bool { return c.op == ttlKeep }

func (c TTLChange) apply(r *secret.Record) {
	switch c.op {
	case ttlSet:
		v := c.value
		r.SetTTL(&v)
	case ttlClear:
		r.SetTTL(nil)
	}
}

// EditOptions are the raw edit flags.
type EditOptions struct {
	Namespace string
	Name      string
	TTL       *uint64
	ClearTTL  bool
	SourceSh  *string
	SourceCmd *string
}

// EditRequest is a validated edit.
type EditRequest struct {
	ID     secret.ID
	TTL    TTLChange
	Source *secret.Source
}

// NewEditRequest validates o.
func NewEditRequest(o EditOptions) (EditRequest, error) {
	id, err := newID(o.Namespace, o.Name)
	if err != nil {
		return EditRequest{}, err
	}
	if o.TTL != nil && o.ClearTTL {
		return EditRequest{}, dserrors.ConflictError{Flags: []string{"ttl", "clear-ttl"}}
	}
	if err := checkTTL(o.TTL); err != nil {
		return EditRequest{}, err
	}
	src, err := sourceFrom(o.SourceSh, o.SourceCmd)
	if err != nil {
		return EditRequest{}, err
	}

	change := KeepTTL()
	switch {
	case o.TTL != nil:
		change = SetTTL(*o.TTL)
	case o.ClearTTL:
		change = ClearTTL()
	}
	if change.IsKeep() && src == nil {
		return EditRequest{}, dserrors.NoModification()
	}

	return EditRequest{ID: id, TTL: change, Source: src}, nil
}

// PutRequest stores a value that has no source command.
type PutRequest struct {
	ID    secret.ID
	Value string
	TTL   *uint64
}

// NewPutRequest validates the identity of a put.
func NewPutRequest(namespace, name, value string, ttl *uint64) (PutRequest, error) {
	id, err := newID(namespace, name)
	if err != nil {
		return PutRequest{}, err
	}
	if err := checkTTL(ttl); err != nil {
		return PutRequest{}, err
	}
	return PutRequest{ID: id, Value: value, TTL: ttl}, nil
}

// NewID validates an identity.
func NewID(namespace, name string) (secret.ID, error) {
	return newID(namespace, name)
}

func newID(namespace, name string) (secret.ID, error) {
	if namespace == "" {
		return secret.ID{}, dserrors.UserError{
			Message:    "Namespace is required",
			Suggestion: "Use -n <namespace> or set HEMLI_NAMESPACE",
		}
	}
	if name == "" {
		return secret.ID{}, dserrors.UserError{
			Message:    "Secret name is required",
			Suggestion: "Pass the secret name as the first argument",
		}
	}
	return secret.ID{Namespace: namespace, Name: name}, nil
}

func sourceFrom(sh, cmd *string) (*secret.Source, error) {
	switch {
	case sh != nil && cmd != nil:
		return nil, dserrors.ConflictError{Flags: []string{"source-sh", "source-cmd"}}
	case sh != nil:
		return &secret.Source{Command: *sh, Mode: secret.ModeShell}, nil
	case cmd != nil:
		return &secret.Source{Command: *cmd, Mode: secret.ModeDirect}, nil
	default:
		return nil, nil
	}
}

// checkTTL rejects TTLs whose expiry cannot be represented.
func checkTTL(ttl *uint64) error {
	if ttl == nil || *ttl <= secret.MaxTTL {
		return nil
	}
	return dserrors.UserError{
		Message:    fmt.Sprintf("TTL of %d seconds is too large", *ttl),
		Suggestion: fmt.Sprintf("Use at most %d seconds, or omit --ttl so the secret never expires", secret.MaxTTL),
	}
}
