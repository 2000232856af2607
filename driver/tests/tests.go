// Package tests provides a test suite and a benchmark suite for any driver.
package tests

import (
	"fmt"
	"testing"

	"github.com/diamondburned/ldb"
	"github.com/go-test/deep"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// suite is the test suite.
type suite struct {
	db *ldb.Database
}

// DoTests runs all tests in the suite. The database must be empty and
// writable.
func DoTests(t *testing.T, db *ldb.Database) {
	s := suite{
		db: db,
	}

	t.Run("Add", func(t *testing.T) {
		t.Run("new", s.testAdd)
		t.Run("duplicate", s.testAddDuplicate)
		t.Run("invalid", s.testAddInvalid)
	})
	t.Run("Search", func(t *testing.T) {
		t.Run("casefold", s.testSearchCaseFold)
		t.Run("missing", s.testSearchMissing)
		t.Run("siblings", s.testSearchSiblings)
		t.Run("concurrent", s.testSearchConcurrent)
	})
	t.Run("Delete", s.testDelete)
	t.Run("Rollback", s.testRollback)
	t.Run("IndexList", s.testIndexList)
}

// NewTestMessage creates the message the suite uses as its main record.
func NewTestMessage(dn string) *ldb.Message {
	msg := ldb.NewMessage(dn)
	msg.AddString("cn", "test")
	msg.AddString("objectClass", "top", "person", "organizationalPerson")
	msg.AddString("objectUUID", "0123456789abcdef")
	msg.Add("jpegPhoto", []byte{0x00, 0xFF, 0x00})
	return msg
}

func (s suite) mustSearch(t *testing.T, dn string, expect *ldb.Message) {
	t.Helper()

	got, err := s.db.Search(dn)
	if err != nil {
		t.Fatalf("failed to search %q: %v", dn, err)
	}

	if ineqs := deep.Equal(expect, got); ineqs != nil {
		for _, ineq := range ineqs {
			t.Errorf("expect != got: %q", ineq)
		}
	}
}

func (s suite) testAdd(t *testing.T) {
	msg := NewTestMessage("cn=add,dc=test")

	if err := s.db.Add(msg); err != nil {
		t.Fatal("failed to add:", err)
	}

	// Elements come back sorted by name.
	expect := ldb.NewMessage("cn=add,dc=test")
	expect.AddString("cn", "test")
	expect.Add("jpegPhoto", []byte{0x00, 0xFF, 0x00})
	expect.AddString("objectClass", "top", "person", "organizationalPerson")
	expect.AddString("objectUUID", "0123456789abcdef")

	s.mustSearch(t, "cn=add,dc=test", expect)
}

func (s suite) testAddDuplicate(t *testing.T) {
	msg := NewTestMessage("cn=dup,dc=test")

	if err := s.db.Add(msg); err != nil {
		t.Fatal("failed to add:", err)
	}

	if err := s.db.Add(msg); !errors.Is(err, ldb.ErrEntryAlreadyExists) {
		t.Fatal("expected ErrEntryAlreadyExists, got", err)
	}

	// Different case, same record.
	msg.DN = "CN=Dup,DC=Test"
	if err := s.db.Add(msg); !errors.Is(err, ldb.ErrEntryAlreadyExists) {
		t.Fatal("expected ErrEntryAlreadyExists for case-folded DN, got", err)
	}
}

func (s suite) testAddInvalid(t *testing.T) {
	msgs := map[string]*ldb.Message{
		"empty dn":     ldb.NewMessage(""),
		"nul in dn":    ldb.NewMessage("cn=a\x00b"),
		"empty name":   {DN: "cn=invalid", Elements: []ldb.Element{{Name: ""}}},
		"nul in name":  {DN: "cn=invalid", Elements: []ldb.Element{{Name: "c\x00n"}}},
		"dup elements": {DN: "cn=invalid", Elements: []ldb.Element{{Name: "cn"}, {Name: "cn"}}},
	}

	for name, msg := range msgs {
		if err := s.db.Add(msg); err == nil {
			t.Errorf("%s: expected an error, got none", name)
		}
	}

	if _, err := s.db.Search("cn=invalid"); !errors.Is(err, ldb.ErrNoSuchObject) {
		t.Error("invalid message was stored:", err)
	}
}

func (s suite) testSearchCaseFold(t *testing.T) {
	msg := ldb.NewMessage("cn=Mixed,dc=Test")
	msg.AddString("cn", "Mixed")

	if err := s.db.Add(msg); err != nil {
		t.Fatal("failed to add:", err)
	}

	// The original DN is preserved regardless of how it is looked up.
	s.mustSearch(t, "CN=MIXED,DC=TEST", msg)
	s.mustSearch(t, "cn=mixed,dc=test", msg)
}

func (s suite) testSearchMissing(t *testing.T) {
	if _, err := s.db.Search("cn=missing,dc=test"); !errors.Is(err, ldb.ErrNoSuchObject) {
		t.Fatal("expected ErrNoSuchObject, got", err)
	}
}

func (s suite) testSearchSiblings(t *testing.T) {
	// "dc=sib" is a prefix of "dc=sib2"; neither may see the other's elements.
	first := ldb.NewMessage("dc=sib")
	first.AddString("dc", "sib")
	second := ldb.NewMessage("dc=sib2")
	second.AddString("dc", "sib2")

	for _, msg := range []*ldb.Message{first, second} {
		if err := s.db.Add(msg); err != nil {
			t.Fatalf("failed to add %q: %v", msg.DN, err)
		}
	}

	s.mustSearch(t, "dc=sib", first)
	s.mustSearch(t, "dc=sib2", second)

	// Bytes that are not valid UTF-8 must not be folded together.
	high := ldb.NewMessage("cn=\xff")
	high.AddString("cn", "\xff")
	low := ldb.NewMessage("cn=\xfe")
	low.AddString("cn", "\xfe")

	for _, msg := range []*ldb.Message{high, low} {
		if err := s.db.Add(msg); err != nil {
			t.Fatalf("failed to add %q: %v", msg.DN, err)
		}
	}

	s.mustSearch(t, "cn=\xff", high)
	s.mustSearch(t, "cn=\xfe", low)
}

func (s suite) testSearchConcurrent(t *testing.T) {
	const n = 16

	for i := 0; i < n; i++ {
		if err := s.db.Add(NewTestMessage(fmt.Sprintf("cn=c%d,dc=test", i))); err != nil {
			t.Fatal("failed to add:", err)
		}
	}

	var g errgroup.Group

	for i := 0; i < n; i++ {
		dn := fmt.Sprintf("cn=c%d,dc=test", i)

		g.Go(func() error {
			msg, err := s.db.Search(dn)
			if err != nil {
				return err
			}
			if msg.DN != dn {
				return errors.Errorf("searched %q, got %q", dn, msg.DN)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal("concurrent search failed:", err)
	}
}

func (s suite) testDelete(t *testing.T) {
	if err := s.db.Add(NewTestMessage("cn=delete,dc=test")); err != nil {
		t.Fatal("failed to add:", err)
	}

	if err := s.db.Delete("cn=delete,dc=test"); err != nil {
		t.Fatal("failed to delete:", err)
	}

	if _, err := s.db.Search("cn=delete,dc=test"); !errors.Is(err, ldb.ErrNoSuchObject) {
		t.Fatal("expected ErrNoSuchObject after delete, got", err)
	}

	if err := s.db.Delete("cn=delete,dc=test"); !errors.Is(err, ldb.ErrNoSuchObject) {
		t.Fatal("expected ErrNoSuchObject deleting twice, got", err)
	}

	// The DN can be reused.
	if err := s.db.Add(NewTestMessage("cn=delete,dc=test")); err != nil {
		t.Fatal("failed to re-add:", err)
	}
}

func (s suite) testRollback(t *testing.T) {
	errAbort := errors.New("abort")

	err := s.db.Update(func(tx *ldb.Transaction) error {
		if err := tx.Add(NewTestMessage("cn=rollback,dc=test")); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatal("expected the abort error, got", err)
	}

	if _, err := s.db.Search("cn=rollback,dc=test"); !errors.Is(err, ldb.ErrNoSuchObject) {
		t.Fatal("rolled back record is visible:", err)
	}
}

func (s suite) testIndexList(t *testing.T) {
	msg := ldb.NewMessage(ldb.IndexListDN)
	msg.AddString(ldb.IdxOne, "1")
	msg.AddString(ldb.IdxGUID, "objectUUID")
	msg.AddString(ldb.IdxDNGUID, "GUID")

	if err := s.db.Add(msg); err != nil {
		t.Fatal("failed to add index list:", err)
	}

	got, err := s.db.IndexList()
	if err != nil {
		t.Fatal("failed to get index list:", err)
	}

	for _, el := range msg.Elements {
		gotEl := got.Find(el.Name)
		if gotEl == nil {
			t.Errorf("index list is missing %s", el.Name)
			continue
		}
		if ineqs := deep.Equal(el.Values, gotEl.Values); ineqs != nil {
			t.Errorf("%s: %q", el.Name, ineqs)
		}
	}
}
