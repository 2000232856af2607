package ldbtest

import (
	"path/filepath"
	"testing"

	"github.com/diamondburned/ldb"
)

// MustTempDir is TempDir for tests. The directory is left behind.
func MustTempDir(tb testing.TB) string {
	tb.Helper()

	dir, err := TempDir()
	if err != nil {
		tb.Fatal("failed to create temporary directory:", err)
	}
	return dir
}

// MustNew creates a fixture for a database file named name inside a new
// temporary directory. A zero backend selects the default one.
func MustNew(tb testing.TB, b Backend, name string) *Fixture {
	tb.Helper()

	path := filepath.Join(MustTempDir(tb), name)

	var f *Fixture
	var err error

	if b == 0 {
		f, err = New(path)
	} else {
		f, err = NewWithBackend(b, path)
	}

	if err != nil {
		tb.Fatal("failed to create fixture:", err)
	}
	return f
}

// MustConnect connects to the fixture's database and closes it when the test
// finishes.
func (f *Fixture) MustConnect(tb testing.TB) *ldb.Database {
	tb.Helper()

	db, err := f.Connect()
	if err != nil {
		tb.Fatalf("failed to connect to %s: %v", f.URL(), err)
	}
	tb.Cleanup(func() { db.Close() })

	return db
}

// ForEachBackend runs fn as a subtest once per known backend, each with its
// own fixture.
func ForEachBackend(t *testing.T, name string, fn func(t *testing.T, f *Fixture)) {
	for _, b := range Backends() {
		b := b
		t.Run(b.String(), func(t *testing.T) {
			fn(t, MustNew(t, b, name))
		})
	}
}
