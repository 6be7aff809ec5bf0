// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package cache

// Backend is a byte-oriented key-value store. Implementations must be safe
// for concurrent use. Same-key writes are last-write-wins.
type Backend interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Scan calls fn for every key with the given prefix. The value slice is
	// only valid for the duration of the call.
	Scan(prefix string, fn func(key string, value []byte) error) error

	// DropPrefix removes every key with the given prefix.
	DropPrefix(prefix string) error

	// Close releases the backend's resources.
	Close() error
}
