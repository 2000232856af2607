// Package ldbtest provides a backend-aware fixture for tests that run against
// ldb databases. A fixture knows which backend a test targets, the URL and
// flags to open it with, and where to put temporary files.
package ldbtest

import (
	"github.com/diamondburned/ldb"
	"github.com/diamondburned/ldb/driver"
	"github.com/pkg/errors"

	// Register the tdb and mdb schemes.
	_ "github.com/diamondburned/ldb/driver/badgerpack"
	_ "github.com/diamondburned/ldb/driver/bboltpack"
)

// ErrEmptyFilename is returned when a fixture is made without a filename.
var ErrEmptyFilename = errors.New("empty filename")

// Fixture describes the database a single test case works with. Its backend is
// fixed when it is made. So is the temporary root: SELFTEST_PREFIX is read
// once by New, and later changes to it do not move the fixture's TempDir or
// Dir. Use the package-level TempDir to follow the current environment.
type Fixture struct {
	filename   string
	tempRoot   string
	tempDir    string
	backend    Backend
	configured bool
}

// New creates a fixture that uses the default backend.
func New(filename string) (*Fixture, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	return &Fixture{
		filename: filename,
		tempRoot: TempRoot(),
		backend:  DefaultBackend,
	}, nil
}

// NewWithBackend creates a fixture that uses the given backend. Passing
// DefaultBackend behaves the same as New, except that Configured reports true.
func NewWithBackend(b Backend, filename string) (*Fixture, error) {
	if !b.Known() {
		return nil, errors.Wrapf(ErrUnknownBackend, "backend %d", uint8(b))
	}

	f, err := New(filename)
	if err != nil {
		return nil, err
	}

	f.backend = b
	f.configured = true

	return f, nil
}

// Backend returns the configured backend or DefaultBackend.
func (f *Fixture) Backend() Backend { return f.backend }

// Configured returns true if the fixture was made with an explicit backend.
func (f *Fixture) Configured() bool { return f.configured }

// Filename returns the filename the fixture was made with.
func (f *Fixture) Filename() string { return f.filename }

// URL returns the connection URL: the backend prefix followed by the filename
// as-is.
func (f *Fixture) URL() string {
	return f.backend.Prefix() + f.filename
}

// Flags returns the flags the database should be opened with.
func (f *Fixture) Flags() driver.Flags {
	return f.backend.Flags()
}

// LockFile returns the name of the lock file kept next to the database file.
func (f *Fixture) LockFile() string {
	return f.filename + "-lock"
}

// TempDir creates a new temporary directory. Every call returns a different
// directory.
func (f *Fixture) TempDir() (string, error) {
	return mkdirTemp(f.tempRoot)
}

// Dir returns the fixture's own temporary directory, creating it on first use.
func (f *Fixture) Dir() (string, error) {
	if f.tempDir != "" {
		return f.tempDir, nil
	}

	dir, err := f.TempDir()
	if err != nil {
		return "", err
	}

	f.tempDir = dir
	return dir, nil
}

// Connect opens the database at URL with Flags.
func (f *Fixture) Connect() (*ldb.Database, error) {
	return ldb.Connect(f.URL(), f.Flags())
}

// ConnectIndexed opens the database and provisions MDBIndexObj into it.
func (f *Fixture) ConnectIndexed() (*ldb.Database, error) {
	db, err := f.Connect()
	if err != nil {
		return nil, err
	}

	if err := ProvisionIndexes(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to provision indexes")
	}

	return db, nil
}
