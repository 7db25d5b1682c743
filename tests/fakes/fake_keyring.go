package fakes

import (
	"sync"

	"github.com/systmms/hemli/internal/credstore"
)

// FakeKeyringClient is a test double for credstore.Client
type FakeKeyringClient struct {
	mu sync.Mutex

	// Secrets is a map of service -> account -> value
	Secrets map[string]map[string]string

	// GetErr is returned by Get() if set (overrides Secrets lookup)
	GetErr error

	// SetErr is returned by Set() if set
	SetErr error

	// DeleteErr is returned by Delete() if set
	DeleteErr error

	// Writes counts successful Set calls
	Writes int
}

// NewFakeKeyringClient creates a new, empty fake keyring client
func NewFakeKeyringClient() *FakeKeyringClient {
	return &FakeKeyringClient{
		Secrets: make(map[string]map[string]string),
	}
}

// SetSecret adds a secret to the fake keyring without counting it as a write
func (f *FakeKeyringClient) SetSecret(service, account, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(service, account, value)
}

// Lookup returns the raw stored value
func (f *FakeKeyringClient) Lookup(service, account string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Secrets[service][account]
	return v, ok
}

// Get retrieves a secret from the fake keyring
func (f *FakeKeyringClient) Get(service, account string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetErr != nil {
		return "", f.GetErr
	}
	if v, ok := f.Secrets[service][account]; ok {
		return v, nil
	}
	return "", credstore.ErrItemNotFound
}

// Set stores a secret in the fake keyring
func (f *FakeKeyringClient) Set(service, account, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetErr != nil {
		return f.SetErr
	}
	f.put(service, account, value)
	f.Writes++
	return nil
}

// Delete removes a secret from the fake keyring
func (f *FakeKeyringClient) Delete(service, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.Secrets[service][account]; !ok {
		return credstore.ErrItemNotFound
	}
	delete(f.Secrets[service], account)
	return nil
}

func (f *FakeKeyringClient) put(service, account, value string) {
	if f.Secrets == nil {
		f.Secrets = make(map[string]map[string]string)
	}
	if f.Secrets[service] == nil {
		f.Secrets[service] = make(map[string]string)
	}
	f.Secrets[service][account] = value
}

// Ensure FakeKeyringClient implements credstore.Client
var _ credstore.Client = (*FakeKeyringClient)(nil)
