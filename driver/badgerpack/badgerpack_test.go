package badgerpack

import (
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/diamondburned/ldb"
	"github.com/diamondburned/ldb/driver"
	"github.com/diamondburned/ldb/driver/tests"
	"github.com/pkg/errors"
)

func mustOpenInMemory(tb testing.TB) *ldb.Database {
	opts := badger.DefaultOptions("")
	opts.Logger = nil
	opts.InMemory = true
	opts.Compression = options.None
	opts.DetectConflicts = false

	d, err := OpenWithOptions(opts)
	if err != nil {
		tb.Fatal("failed to open in-memory badgerDB:", err)
	}
	tb.Cleanup(func() { d.Close() })

	return ldb.NewDatabase(d, "tdb://memory", 0)
}

func TestSuite(t *testing.T) {
	tests.DoTests(t, mustOpenInMemory(t))
}

func BenchmarkSuite(b *testing.B) {
	tests.DoBenchmark(b, mustOpenInMemory(b))
}

func TestOptions(t *testing.T) {
	opts := Options("/x", 0)
	if !opts.SyncWrites {
		t.Error("writes are not synced without FlagNoSync")
	}
	if opts.ReadOnly {
		t.Error("read-only without FlagReadOnly")
	}

	opts = Options("/x", driver.FlagNoSync|driver.FlagReadOnly)
	if opts.SyncWrites {
		t.Error("writes are synced with FlagNoSync")
	}
	if !opts.ReadOnly {
		t.Error("not read-only with FlagReadOnly")
	}
	if opts.Dir != "/x" || opts.ValueDir != "/x" {
		t.Errorf("unexpected dirs %q, %q", opts.Dir, opts.ValueDir)
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

func TestCommitReleasesTransaction(t *testing.T) {
	opts := badger.DefaultOptions("")
	opts.Logger = nil
	opts.InMemory = true

	d, err := OpenWithOptions(opts)
	if err != nil {
		t.Fatal("failed to open in-memory badgerDB:", err)
	}
	defer d.Close()

	for _, ro := range []bool{true, false} {
		tx, err := d.Begin(ro)
		if err != nil {
			t.Fatal("failed to begin:", err)
		}

		// Nothing is written, so badger has no pending writes to commit.
		if err := tx.Commit(); err != nil {
			t.Fatalf("read-only %v: failed to commit: %v", ro, err)
		}

		_, err = tx.(*Txn).Txn.Get([]byte("key"))
		if !errors.Is(err, badger.ErrDiscardedTxn) {
			t.Errorf("read-only %v: transaction still live after commit: %v", ro, err)
		}
	}
}
