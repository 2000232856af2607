// Package badgerpack implements the ldb "tdb" backend using BadgerDB.
package badgerpack

import (
	"log"

	"github.com/dgraph-io/badger/v3"
	"github.com/diamondburned/ldb"
	"github.com/diamondburned/ldb/driver"
	"github.com/pkg/errors"
)

// Scheme is the URL scheme this backend is registered under.
const Scheme = "tdb"

func init() {
	ldb.Register(Scheme, func(path string, flags driver.Flags) (driver.Database, error) {
		return Open(path, flags)
	})
}

// Options returns the Badger options used for the given path and flags.
// Writes are synced unless FlagNoSync is given.
func Options(path string, flags driver.Flags) badger.Options {
	opts := badger.DefaultOptions(path)
	opts.Logger = logger{}
	opts.SyncWrites = !flags.Has(driver.FlagNoSync)
	opts.ReadOnly = flags.Has(driver.FlagReadOnly)
	return opts
}

// DB implements driver.Database.
type DB struct {
	*badger.DB
}

var _ driver.Database = (*DB)(nil)

// Open opens a new Badger database at the given directory wrapped inside a
// driver.Database-compatible implementation.
func Open(path string, flags driver.Flags) (*DB, error) {
	return OpenWithOptions(Options(path, flags))
}

// OpenWithOptions opens a Badger database with the given options as-is.
func OpenWithOptions(opts badger.Options) (*DB, error) {
	d, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DB{d}, nil
}

// Begin starts a transaction.
func (db *DB) Begin(ro bool) (driver.Transaction, error) {
	return &Txn{db.NewTransaction(!ro)}, nil
}

// Txn implements driver.Transaction.
type Txn struct {
	*badger.Txn
}

// Commit commits the current transaction. Badger skips the discard when there
// is nothing to write, so it is always done here to release read-only
// transactions.
func (txn *Txn) Commit() error {
	defer txn.Txn.Discard()
	return txn.Txn.Commit()
}

// Rollback discards the current transaction.
func (txn *Txn) Rollback() error {
	txn.Txn.Discard()
	return nil
}

// Get gets the value with the given key.
func (txn *Txn) Get(k []byte) ([]byte, error) {
	item, err := txn.Txn.Get(k)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, driver.ErrKeyNotFound
		}
		return nil, err
	}

	return item.ValueCopy(nil)
}

// Put puts the given value into the given key.
func (txn *Txn) Put(k, v []byte) error {
	// Badger keeps the slices until commit, so hand it copies.
	return txn.Txn.Set(append([]byte(nil), k...), append([]byte(nil), v...))
}

// DeletePrefix deletes all keys with the given prefix.
func (txn *Txn) DeletePrefix(prefix []byte) error {
	iter := txn.Txn.NewIterator(badger.IteratorOptions{
		Prefix: prefix,
	})
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		// We have to copy the key here, because Delete will retain the key
		// buffer, while the iterator will change the key buffer.
		key := iter.Item().KeyCopy(nil)

		if err := txn.Txn.Delete(key); err != nil {
			return errors.Wrapf(err, "failed to delete key %q", key)
		}
	}

	return nil
}

// Iterate iterates over all keys with the given prefix in lexicographic order.
func (txn *Txn) Iterate(prefix []byte, fn func(k, v []byte) error) error {
	iter := txn.Txn.NewIterator(badger.IteratorOptions{
		Prefix:         prefix,
		PrefetchSize:   10,
		PrefetchValues: true,
	})
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()

		if err := item.Value(func(v []byte) error {
			return fn(item.Key(), v)
		}); err != nil {
			return err
		}
	}

	return nil
}

// logger routes Badger's warnings and errors into the standard logger. Info
// and debug messages are dropped.
type logger struct{}

func (logger) Errorf(f string, v ...interface{})   { log.Printf("badgerpack: error: "+f, v...) }
func (logger) Warningf(f string, v ...interface{}) { log.Printf("badgerpack: warning: "+f, v...) }
func (logger) Infof(string, ...interface{})        {}
func (logger) Debugf(string, ...interface{})       {}
