package credstore

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

// Client abstracts OS credential store operations for testing
type Client interface {
	// Get retrieves the secret stored for service/account
	Get(service, account string) (string, error)

	// Set creates or replaces the secret stored for service/account
	Set(service, account, value string) error

	// Delete removes the secret stored for service/account
	Delete(service, account string) error
}

// keyringClient implements Client on top of go-keyring, which talks to the
// macOS Keychain, the Linux Secret Service or the Windows Credential Manager.
type keyringClient struct{}

// NewKeyringClient returns the platform credential store client.
func NewKeyringClient() Client {
	return keyringClient{}
}

func (keyringClient) Get(service, account string) (string, error) {
	v, err := keyring.Get(service, account)
	return v, translate(err)
}

func (keyringClient) Set(service, account, value string) error {
	return translate(keyring.Set(service, account, value))
}

func (keyringClient) Delete(service, account string) error {
	return translate(keyring.Delete(service, account))
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrItemNotFound
	case isAccessDenied(err):
		return errors.Join(ErrAccessDenied, err)
	default:
		return err
	}
}

// isAccessDenied checks if an error indicates access was denied
func isAccessDenied(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "access denied") ||
		strings.Contains(errStr, "user denied") ||
		strings.Contains(errStr, "canceled")
}

var _ Client = keyringClient{}
