// Package secure holds secret values in memory protected by memguard.
//
// A freshly fetched secret is moved into an encrypted enclave as soon as the
// source command has exited, and the plaintext buffer it came from is wiped.
// While in the enclave the value is:
//
//   - Encrypted at rest in memory (XSalsa20Poly1305)
//   - Kept out of swap via mlock where the platform allows it
//   - Wiped when the process exits through memguard.Purge
//
// # Usage
//
//	v := secure.NewValue(stdout) // stdout is zeroed
//	defer v.Destroy()
//
//	plain, err := v.Reveal()
//	if err != nil {
//	    return err
//	}
//
// The value is revealed only where it is persisted or printed. The returned
// string is ordinary Go memory and is not protected.
//
// # Platform Behavior
//
// Memory locking behavior varies by platform:
//
//   - Linux: Requires RLIMIT_MEMLOCK to be set appropriately
//   - macOS: Works out of the box
//   - Windows: Uses VirtualLock
//
// If mlock is unavailable memguard continues with standard memory; the
// enclave is still encrypted.
//
// # Security Guarantees
//
// Core dumps and swap do not contain the plaintext of a value held in an
// enclave. This does NOT protect against:
//
//   - Attackers with access to the running process
//   - Copies of the value made after Reveal
//   - Hardware-level attacks (cold boot, DMA)
package secure
