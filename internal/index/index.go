// Package index keeps the plaintext list of secret identities used by
// `hemli list`. It never holds values; the credential store is authoritative.
package index

import (
	"time"

	"github.com/systmms/hemli/internal/secret"
)

// Entry is one known identity.
type Entry struct {
	Namespace string    `json:"namespace"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ID returns the identity the entry describes.
func (e Entry) ID() secret.ID {
	return secret.ID{Namespace: e.Namespace, Name: e.Name}
}

// Index is the whole index document. Entries keep insertion order.
type Index struct {
	Entries []Entry `json:"entries"`
}

// Upsert records id, updating created_at when it is already present.
func (i *Index) Upsert(id secret.ID, createdAt time.Time) {
	createdAt = secret.Timestamp(createdAt)
	for n := range i.Entries {
		if i.Entries[n].ID() == id {
			i.Entries[n].CreatedAt = createdAt
			return
		}
	}
	i.Entries = append(i.Entries, Entry{
		Namespace: id.Namespace,
		Name:      id.Name,
		CreatedAt: createdAt,
	})
}

// Remove drops id and reports whether it was present.
func (i *Index) Remove(id secret.ID) bool {
	kept := i.Entries[:0]
	removed := false
	for _, e := range i.Entries {
		if e.ID() == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	i.Entries = kept
	return removed
}

// Filter returns the entries in namespace, or all entries when namespace is empty.
func (i *Index) Filter(namespace string) []Entry {
	out := make([]Entry, 0, len(i.Entries))
	for _, e := range i.Entries {
		if namespace == "" || e.Namespace == namespace {
			out = append(out, e)
		}
	}
	return out
}
