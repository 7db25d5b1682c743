// Package fakes provides test doubles for hemli's external collaborators.
//
// The credential store and the source command executor are both reached
// through small interfaces; the fakes here implement them in memory so the
// lifecycle engine can be tested without an OS keyring or child processes.
//
// Usage:
//
//	kr := fakes.NewFakeKeyringClient()
//	kr.SetSecret("hemli:app", "db", `{"value":"x","created_at":"2025-01-15T10:30:00Z"}`)
//	store := credstore.New(kr)
package fakes
