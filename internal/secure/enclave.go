package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Reveal after Destroy.
var ErrDestroyed = errors.New("secure value destroyed")

// Value provides memory-safe storage for a single secret.
// It wraps memguard.Enclave so the secret is encrypted while at rest in memory.
//
// memguard.Enclave has no Destroy method of its own. Destroy drops the
// reference so the value cannot be revealed again, and the encryption key is
// wiped for every enclave by memguard.Purge, which main calls before exit.
type Value struct {
	enclave *memguard.Enclave
	size    int
	mu      sync.RWMutex
	// destroyed makes Destroy idempotent and blocks Reveal after it
	destroyed bool
}

// NewValue moves data into an enclave.
//
// The input slice is wiped by memguard once it has been encrypted, so the
// caller must not use it afterwards. If mlock is unavailable (for example
// because RLIMIT_MEMLOCK is too low) memguard falls back to ordinary memory
// and the enclave is still encrypted.
//
// An empty input yields an empty value; memguard refuses zero-length enclaves.
func NewValue(data []byte) *Value {
	size := len(data)
	// NewEnclave returns nil for empty input.
	return &Value{
		enclave: memguard.NewEnclave(data),
		size:    size,
	}
}

// Len returns the size of the plaintext in bytes without decrypting it.
func (v *Value) Len() int {
	return v.size
}

// Reveal decrypts the enclave and returns a copy of the plaintext.
//
// The plaintext is decrypted into a locked buffer that is destroyed before
// Reveal returns. The returned string lives in ordinary Go memory and is
// outside memguard's protection, so call Reveal only at the point of use.
//
// Reveal returns ErrDestroyed after Destroy and "" for an empty value.
func (v *Value) Reveal() (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.destroyed {
		return "", ErrDestroyed
	}
	if v.enclave == nil {
		return "", nil
	}

	locked, err := v.enclave.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()

	return string(locked.Bytes()), nil
}

// Destroy marks the value as destroyed and drops the enclave.
//
// The encrypted data is left for the garbage collector; it is safe without
// explicit wiping because it is encrypted at rest. For complete cleanup at
// exit, call memguard.Purge in main.
//
// This method is idempotent. After Destroy, Reveal returns ErrDestroyed.
func (v *Value) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return
	}
	v.enclave = nil
	v.destroyed = true
}
