// Package mock implements an in-memory ldb backend registered under the
// "mock" scheme. Connecting twice to the same path yields the same data.
package mock

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/diamondburned/ldb"
	"github.com/diamondburned/ldb/driver"
	"github.com/pkg/errors"
)

// Scheme is the URL scheme this backend is registered under.
const Scheme = "mock"

var (
	namedMu sync.Mutex
	named   = map[string]*Database{}
)

func init() {
	ldb.Register(Scheme, func(path string, flags driver.Flags) (driver.Database, error) {
		namedMu.Lock()
		defer namedMu.Unlock()

		db, ok := named[path]
		if !ok {
			if flags.Has(driver.FlagReadOnly) {
				return nil, errors.Errorf("mock: %q does not exist", path)
			}
			db = NewDatabase()
			named[path] = db
		}

		return db, nil
	})
}

// Database is thread-safe.
type Database struct {
	m sync.RWMutex
	v map[string]string
}

var _ driver.Database = (*Database)(nil)

// NewDatabase makes a new empty database.
func NewDatabase() *Database {
	return &Database{
		v: make(map[string]string),
	}
}

// Begin starts a transaction.
func (db *Database) Begin(ro bool) (driver.Transaction, error) {
	if ro {
		return &Transaction{db: db}, nil
	}

	return &Transaction{
		tmp: make([]kvPair, 0, 128),
		db:  db,
	}, nil
}

// Keys returns all keys in the database, sorted.
func (db *Database) Keys() []string {
	db.m.RLock()
	defer db.m.RUnlock()

	keys := make([]string, 0, len(db.v))
	for k := range db.v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Expect verifies that the database contains exactly the given keys and
// values.
func (db *Database) Expect(t *testing.T, o map[string]string) {
	t.Helper()

	db.m.RLock()
	defer db.m.RUnlock()

	for k, v := range o {
		got, ok := db.v[k]
		if !ok {
			t.Errorf("missing key %q value %q", k, v)
			continue
		}

		if got != v {
			t.Errorf("key %q value expected %q, got %q", k, v, got)
		}
	}

	for k, v := range db.v {
		if _, ok := o[k]; !ok {
			t.Errorf("excess key %q value %q", k, v)
		}
	}
}

// Transaction is not thread-safe.
type Transaction struct {
	tmp []kvPair
	del [][]byte // prefixes
	db  *Database
}

type kvPair [2][]byte

var _ driver.Transaction = (*Transaction)(nil)

func (tx *Transaction) isRO() bool { return tx.tmp == nil }

// Commit saves changes in the transaction to the database. If the transaction
// is read-only, then Commit does nothing.
func (tx *Transaction) Commit() error {
	if tx.isRO() {
		// Already committed.
		return nil
	}

	tx.db.m.Lock()
	defer tx.db.m.Unlock()

	for _, prefix := range tx.del {
		prefixString := string(prefix)

		for k := range tx.db.v {
			if strings.HasPrefix(k, prefixString) {
				delete(tx.db.v, k)
			}
		}
	}

	for _, pair := range tx.tmp {
		if pair[1] == nil {
			// Deleted within the transaction.
			continue
		}
		tx.db.v[string(pair[0])] = string(pair[1])
	}

	// Invalidate.
	tx.tmp = nil
	tx.del = nil

	return nil
}

// Rollback invalidates the transaction and does not commit data to the
// database.
func (tx *Transaction) Rollback() error {
	tx.tmp = nil
	tx.del = nil
	return nil
}

// deleted returns true if the key falls under a prefix deleted within the
// transaction.
func (tx *Transaction) deleted(k []byte) bool {
	for _, prefix := range tx.del {
		if bytes.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Get checks both the changes made during the transaction and before it.
func (tx *Transaction) Get(k []byte) ([]byte, error) {
	for _, pair := range tx.tmp {
		if bytes.Equal(pair[0], k) {
			if pair[1] == nil {
				return nil, driver.ErrKeyNotFound
			}
			return pair[1], nil
		}
	}

	if tx.deleted(k) {
		return nil, driver.ErrKeyNotFound
	}

	tx.db.m.RLock()
	defer tx.db.m.RUnlock()

	s, ok := tx.db.v[string(k)]
	if ok {
		return []byte(s), nil
	}

	return nil, driver.ErrKeyNotFound
}

// Put adds the given key and value pair into the uncommitted list.
func (tx *Transaction) Put(k, v []byte) error {
	if tx.isRO() {
		return errors.New("mock: cannot put in a read-only transaction")
	}

	pair := kvPair{
		append([]byte(nil), k...),
		append([]byte{}, v...),
	}

	for i := range tx.tmp {
		if bytes.Equal(tx.tmp[i][0], k) {
			tx.tmp[i] = pair
			return nil
		}
	}

	tx.tmp = append(tx.tmp, pair)
	return nil
}

// Iterate iterates over both the uncommitted transaction store and the
// committed database region in undefined order.
func (tx *Transaction) Iterate(prefix []byte, fn func(k, v []byte) error) error {
	seen := make(map[string]struct{}, len(tx.tmp))

	for _, pair := range tx.tmp {
		seen[string(pair[0])] = struct{}{}

		if pair[1] != nil && bytes.HasPrefix(pair[0], prefix) {
			if err := fn(pair[0], pair[1]); err != nil {
				return err
			}
		}
	}

	tx.db.m.RLock()
	defer tx.db.m.RUnlock()

	prefixString := string(prefix)

	for k, v := range tx.db.v {
		if _, ok := seen[k]; ok || !strings.HasPrefix(k, prefixString) {
			continue
		}
		if tx.deleted([]byte(k)) {
			continue
		}
		if err := fn([]byte(k), []byte(v)); err != nil {
			return err
		}
	}

	return nil
}

// DeletePrefix registers the given prefix to be deleted once committed.
func (tx *Transaction) DeletePrefix(prefix []byte) error {
	if tx.isRO() {
		return errors.New("mock: cannot delete prefix in a read-only transaction")
	}

	prefix = append([]byte(nil), prefix...)

	// Drop pending writes under the prefix, since deletes apply before writes
	// on commit.
	for i := range tx.tmp {
		if bytes.HasPrefix(tx.tmp[i][0], prefix) {
			tx.tmp[i][1] = nil
		}
	}

	tx.del = append(tx.del, prefix)
	return nil
}
