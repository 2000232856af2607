// Package driver contains interfaces that describes a generic transactional
// key-value database that ldb can store directory records in.
package driver

import "github.com/pkg/errors"

// Database describes a generic transactional key-value database.
type Database interface {
	Begin(readOnly bool) (Transaction, error)
}

// ErrKeyNotFound is returned if a key is not found.
var ErrKeyNotFound = errors.New("key not found")

// Transaction describes a regular transaction with a simple read and write API.
type Transaction interface {
	Commit() error
	Rollback() error

	// Get gets the value with the given key. The returned slice is only valid
	// until the transaction ends; callers that keep it must copy it. If the key
	// is not found, then Get must return ErrKeyNotFound.
	Get(k []byte) ([]byte, error)
	// Put puts the given value into the given key. It must not keep any of the
	// given byte slices after the call.
	Put(k, v []byte) error
	// DeletePrefix wipes all keys with the given prefix.
	DeletePrefix(prefix []byte) error
	// Iterate iterates over all keys with the given prefix. The order is
	// lexicographic where the backend supports it and undefined otherwise, so
	// callers must not depend on it. The slices given to fn are only valid
	// during the call.
	Iterate(prefix []byte, fn func(k, v []byte) error) error
}

// Flags is a set of open-time options passed to a backend when connecting.
// Backends ignore the flags they cannot honor.
type Flags uint32

const (
	// FlagReadOnly opens the database without write access.
	FlagReadOnly Flags = 1 << iota
	// FlagNoSync skips forced disk syncs on commit. This trades durability for
	// speed and is meant for throwaway databases.
	FlagNoSync
	// FlagReconnect is accepted for compatibility and has no effect.
	FlagReconnect
	// FlagNoMmap asks the backend not to memory-map its files.
	FlagNoMmap
)

// Has returns true if all bits in want are set.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// Opener opens a backend database at the given path. The returned database
// may implement io.Closer.
type Opener func(path string, flags Flags) (Database, error)
