package mock

import (
	"testing"

	"github.com/diamondburned/ldb"
	"github.com/diamondburned/ldb/driver"
	"github.com/diamondburned/ldb/driver/tests"
	"github.com/pkg/errors"
)

func TestSuite(t *testing.T) {
	tests.DoTests(t, ldb.NewDatabase(NewDatabase(), "mock://suite", 0))
}

func BenchmarkSuite(b *testing.B) {
	tests.DoBenchmark(b, ldb.NewDatabase(NewDatabase(), "mock://bench", 0))
}

func TestLayout(t *testing.T) {
	mockDB := NewDatabase()
	db := ldb.NewDatabase(mockDB, "mock://layout", 0)

	msg := ldb.NewMessage(ldb.IndexListDN)
	msg.AddString(ldb.IdxOne, "1")
	msg.AddString(ldb.IdxGUID, "objectUUID")

	if err := db.Add(msg); err != nil {
		t.Fatal("failed to add:", err)
	}

	person := ldb.NewMessage("cn=Foo,dc=test")
	person.AddString("objectClass", "top", "person")

	if err := db.Add(person); err != nil {
		t.Fatal("failed to add:", err)
	}

	mockDB.Expect(t, map[string]string{
		"DN=@INDEXLIST\x00":                     "@INDEXLIST",
		"DN=@INDEXLIST\x00@IDXONE\x000":         "1",
		"DN=@INDEXLIST\x00@IDXGUID\x000":        "objectUUID",
		"DN=CN=FOO,DC=TEST\x00":                 "cn=Foo,dc=test",
		"DN=CN=FOO,DC=TEST\x00objectClass\x000": "top",
		"DN=CN=FOO,DC=TEST\x00objectClass\x001": "person",
	})
}

func TestTransactionDeletePrefix(t *testing.T) {
	db := NewDatabase()

	tx, err := db.Begin(false)
	if err != nil {
		t.Fatal("failed to begin:", err)
	}

	tx.Put([]byte("a/1"), []byte("1"))
	tx.Put([]byte("a/2"), []byte("2"))
	tx.Put([]byte("b/1"), []byte("3"))

	if err := tx.Commit(); err != nil {
		t.Fatal("failed to commit:", err)
	}

	tx, _ = db.Begin(false)
	tx.Put([]byte("a/3"), []byte("4"))

	if err := tx.DeletePrefix([]byte("a/")); err != nil {
		t.Fatal("failed to delete prefix:", err)
	}

	// Written after the delete, so it survives.
	tx.Put([]byte("a/4"), []byte("5"))

	if _, err := tx.Get([]byte("a/1")); !errors.Is(err, driver.ErrKeyNotFound) {
		t.Error("a/1 still visible inside the transaction:", err)
	}

	var n int
	tx.Iterate([]byte("a/"), func(k, v []byte) error {
		n++
		if string(k) != "a/4" {
			t.Errorf("unexpected key %q", k)
		}
		return nil
	})
	if n != 1 {
		t.Errorf("expected 1 key under a/, got %d", n)
	}

	if err := tx.Commit(); err != nil {
		t.Fatal("failed to commit:", err)
	}

	db.Expect(t, map[string]string{
		"a/4": "5",
		"b/1": "3",
	})
}

func TestReadOnlyTransaction(t *testing.T) {
	tx, _ := NewDatabase().Begin(true)

	if err := tx.Put([]byte("k"), []byte("v")); err == nil {
		t.Error("put in a read-only transaction succeeded")
	}
	if err := tx.DeletePrefix([]byte("k")); err == nil {
		t.Error("delete in a read-only transaction succeeded")
	}
}

func TestConnectShared(t *testing.T) {
	db1, err := ldb.Connect("mock://shared", 0)
	if err != nil {
		t.Fatal("failed to connect:", err)
	}

	if err := db1.Add(ldb.NewMessage("cn=shared")); err != nil {
		t.Fatal("failed to add:", err)
	}

	db2, err := ldb.Connect("mock://shared", ldb.FlagReadOnly)
	if err != nil {
		t.Fatal("failed to reconnect:", err)
	}

	if _, err := db2.Search("cn=shared"); err != nil {
		t.Fatal("record not visible on second connection:", err)
	}

	if _, err := ldb.Connect("mock://never-created", ldb.FlagReadOnly); err == nil {
		t.Fatal("read-only connect to a missing mock database succeeded")
	}
}
