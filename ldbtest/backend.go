package ldbtest

import (
	"fmt"
	"strings"

	"github.com/diamondburned/ldb/driver"
	"github.com/pkg/errors"
)

// ErrUnknownBackend is returned or panicked with when a backend outside the
// known set is used.
var ErrUnknownBackend = errors.New("unknown backend")

// Backend identifies the storage backend a test runs against. The zero value
// is not a backend; it means none was configured.
type Backend uint8

const (
	_ Backend = iota
	// TDB is the simple on-disk backend. It is the default.
	TDB
	// MDB is the memory-mapped backend.
	MDB
)

// DefaultBackend is used by fixtures that do not configure a backend.
const DefaultBackend = TDB

// Every known backend must have an entry in both tables.
var (
	backendSchemes = map[Backend]string{
		TDB: "tdb",
		MDB: "mdb",
	}
	backendFlags = map[Backend]driver.Flags{
		TDB: 0,
		MDB: driver.FlagNoSync,
	}
)

// Backends returns all known backends in order.
func Backends() []Backend {
	return []Backend{TDB, MDB}
}

// ParseBackend parses a scheme such as "mdb" or a prefix such as "mdb://".
func ParseBackend(s string) (Backend, error) {
	scheme := strings.TrimSuffix(s, "://")

	for _, b := range Backends() {
		if backendSchemes[b] == scheme {
			return b, nil
		}
	}

	return 0, errors.Wrapf(ErrUnknownBackend, "%q", s)
}

// Known returns true if b is one of the known backends.
func (b Backend) Known() bool {
	_, ok := backendSchemes[b]
	return ok
}

// Scheme returns the URL scheme of the backend, such as "tdb". It panics if the
// backend is unknown.
func (b Backend) Scheme() string {
	scheme, ok := backendSchemes[b]
	if !ok {
		panic(errors.Wrapf(ErrUnknownBackend, "backend %d", uint8(b)))
	}
	return scheme
}

// Prefix returns the URL prefix of the backend, such as "tdb://". It panics if
// the backend is unknown.
func (b Backend) Prefix() string {
	return b.Scheme() + "://"
}

// Flags returns the flags a test database on this backend is opened with: no
// syncing for MDB and nothing otherwise. It panics if the backend is unknown.
func (b Backend) Flags() driver.Flags {
	flags, ok := backendFlags[b]
	if !ok {
		panic(errors.Wrapf(ErrUnknownBackend, "backend %d", uint8(b)))
	}
	return flags
}

func (b Backend) String() string {
	if scheme, ok := backendSchemes[b]; ok {
		return strings.ToUpper(scheme)
	}
	return fmt.Sprintf("Backend(%d)", uint8(b))
}
