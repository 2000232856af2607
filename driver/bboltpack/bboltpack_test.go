package bboltpack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/diamondburned/ldb"
	"github.com/diamondburned/ldb/driver"
	"github.com/diamondburned/ldb/driver/tests"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

func mustOpen(tb testing.TB, name string) *ldb.Database {
	temp := tb.TempDir()

	opts := &bbolt.Options{
		Timeout:      0,
		NoSync:       true,
		NoGrowSync:   true,
		FreelistType: bbolt.FreelistArrayType,
	}

	path := filepath.Join(temp, name)

	d, err := OpenWithOptions(path, os.ModePerm, opts)
	if err != nil {
		tb.Fatal("failed to open bbolt:", err)
	}
	tb.Cleanup(func() { d.Close() })

	return ldb.NewDatabase(d, Scheme+"://"+path, driver.FlagNoSync)
}

func TestSuite(t *testing.T) {
	tests.DoTests(t, mustOpen(t, "tests.ldb"))
}

func BenchmarkSuite(b *testing.B) {
	tests.DoBenchmark(b, mustOpen(b, "benchmarks.ldb"))
}

func TestOptions(t *testing.T) {
	opts := Options(0)
	if opts.NoSync || opts.NoGrowSync || opts.ReadOnly {
		t.Errorf("unexpected options without flags: %+v", opts)
	}

	opts = Options(driver.FlagNoSync)
	if !opts.NoSync || !opts.NoGrowSync {
		t.Errorf("sync not relaxed with FlagNoSync: %+v", opts)
	}

	opts = Options(driver.FlagReadOnly | driver.FlagNoMmap)
	if !opts.ReadOnly {
		t.Errorf("not read-only with FlagReadOnly: %+v", opts)
	}
}

func TestConnect(t *testing.T) {
	url := Scheme + "://" + filepath.Join(t.TempDir(), "connect.ldb")

	db, err := ldb.Connect(url, ldb.FlagNoSync)
	if err != nil {
		t.Fatal("failed to connect:", err)
	}

	if err := db.Add(tests.NewTestMessage("cn=connect")); err != nil {
		t.Fatal("failed to add:", err)
	}
	if err := db.Close(); err != nil {
		t.Fatal("failed to close:", err)
	}

	db, err = ldb.Connect(url, ldb.FlagReadOnly)
	if err != nil {
		t.Fatal("failed to reconnect read-only:", err)
	}
	defer db.Close()

	if _, err := db.Search("cn=connect"); err != nil {
		t.Fatal("record did not survive reopening:", err)
	}

	if err := db.Add(tests.NewTestMessage("cn=other")); !errors.Is(err, ldb.ErrReadOnly) {
		t.Fatal("expected ErrReadOnly, got", err)
	}
}

func TestConnectReadOnlyMissing(t *testing.T) {
	url := Scheme + "://" + filepath.Join(t.TempDir(), "missing.ldb")

	if _, err := ldb.Connect(url, ldb.FlagReadOnly); err == nil {
		t.Fatal("read-only connect to a missing file succeeded")
	}
}
