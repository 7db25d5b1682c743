// Package credstore persists opaque values in the OS credential store keyed
// by (service, account).
package credstore

import (
	"errors"
	"fmt"

	dserrors "github.com/systmms/hemli/internal/errors"
)

// Credential store sentinel errors
var (
	ErrItemNotFound = fmt.Errorf("credential store item not found")
	ErrAccessDenied = fmt.Errorf("credential store access denied")
)

// Store is the read/write/delete/exists adapter over a Client.
type Store struct {
	client Client
}

// New creates a store backed by client.
func New(client Client) *Store {
	return &Store{client: client}
}

// NewDefault creates a store backed by the platform keyring.
func NewDefault() *Store {
	return New(NewKeyringClient())
}

// Read returns the stored bytes. A missing entry yields ErrItemNotFound.
func (s *Store) Read(service, account string) ([]byte, error) {
	v, err := s.client.Get(service, account)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, &dserrors.StoreError{Op: "read", Service: service, Account: account, Err: err}
	}
	return []byte(v), nil
}

// Write creates or replaces the entry.
func (s *Store) Write(service, account string, data []byte) error {
	if err := s.client.Set(service, account, string(data)); err != nil {
		return &dserrors.StoreError{Op: "write", Service: service, Account: account, Err: err}
	}
	return nil
}

// Delete removes the entry and reports whether it existed.
func (s *Store) Delete(service, account string) (bool, error) {
	err := s.client.Delete(service, account)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrItemNotFound):
		return false, nil
	default:
		return false, &dserrors.StoreError{Op: "delete", Service: service, Account: account, Err: err}
	}
}

// Exists reports whether an entry is present.
func (s *Store) Exists(service, account string) (bool, error) {
	_, err := s.Read(service, account)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrItemNotFound):
		return false, nil
	default:
		return false, err
	}
}
