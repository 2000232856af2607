// Package bboltpack implements the ldb "mdb" backend using Bolt, a
// memory-mapped B+tree store.
package bboltpack

import (
	"bytes"
	"log"
	"os"

	"github.com/diamondburned/ldb"
	"github.com/diamondburned/ldb/driver"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// Scheme is the URL scheme this backend is registered under.
const Scheme = "mdb"

// Bucket is the name of the bucket all records are kept in.
const Bucket = "ldb"

// FileMode is the mode new database files are created with.
const FileMode os.FileMode = 0o600

func init() {
	ldb.Register(Scheme, func(path string, flags driver.Flags) (driver.Database, error) {
		return Open(path, flags)
	})
}

// Options returns the Bolt options used for the given flags. FlagNoSync turns
// off both fsync on commit and on file growth. FlagNoMmap cannot be honored by
// Bolt and is ignored.
func Options(flags driver.Flags) *bbolt.Options {
	return &bbolt.Options{
		Timeout:      0,
		NoSync:       flags.Has(driver.FlagNoSync),
		NoGrowSync:   flags.Has(driver.FlagNoSync),
		ReadOnly:     flags.Has(driver.FlagReadOnly),
		FreelistType: bbolt.FreelistArrayType,
	}
}

// DB implements driver.Database.
type DB struct {
	*bbolt.DB
	bucket []byte
}

var _ driver.Database = (*DB)(nil)

// Open opens a new Bolt database file wrapped inside a driver.Database-compatible
// implementation.
func Open(path string, flags driver.Flags) (*DB, error) {
	return OpenWithOptions(path, FileMode, Options(flags))
}

// OpenWithOptions opens a Bolt database with the given mode and options as-is.
func OpenWithOptions(path string, mode os.FileMode, opts *bbolt.Options) (*DB, error) {
	d, err := bbolt.Open(path, mode, opts)
	if err != nil {
		return nil, err
	}

	db := DB{d, []byte(Bucket)}

	if opts != nil && opts.ReadOnly {
		return &db, nil
	}

	if err := d.Update(func(tx *bbolt.Tx) error {
		// Create our own bucket.
		_, err = tx.CreateBucketIfNotExists(db.bucket)
		if err != nil {
			return errors.Wrap(err, "failed to create bucket")
		}

		return nil
	}); err != nil {
		d.Close()
		return nil, err
	}

	return &db, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.DB.Close()
}

// Begin starts a transaction.
func (db *DB) Begin(ro bool) (driver.Transaction, error) {
	tx, err := db.DB.Begin(!ro)
	if err != nil {
		return nil, err
	}

	bucket := tx.Bucket(db.bucket)
	if bucket == nil {
		tx.Rollback()
		return nil, errors.New("bucket not found")
	}

	return &Tx{
		Bucket: bucket,
		done:   false,
	}, nil
}

// Tx implements driver.Transaction.
type Tx struct {
	*bbolt.Bucket
	done bool
}

var _ driver.Transaction = (*Tx)(nil)

// Commit commits the current transaction. Calling Commit multiple times does
// nothing and will return nil. Committing a read-only transaction releases it.
func (tx *Tx) Commit() error {
	if tx.done {
		return nil
	}

	tx.done = true

	if !tx.Bucket.Tx().Writable() {
		return tx.Bucket.Tx().Rollback()
	}
	return tx.Bucket.Tx().Commit()
}

// Rollback discards the current transaction.
func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}

	tx.done = true
	return tx.Bucket.Tx().Rollback()
}

// Get gets the value with the given key.
func (tx *Tx) Get(k []byte) ([]byte, error) {
	defer func() {
		if v := recover(); v != nil {
			log.Printf("repanicking... root %v, tx id %v", tx.Bucket.Root(), tx.Bucket.Tx().ID())
			panic(v)
		}
	}()
	v := tx.Bucket.Get(k)
	if v != nil {
		return v, nil
	}
	return nil, driver.ErrKeyNotFound
}

// Put puts the given value into the given key. Bolt treats a nil value as
// missing, so nil values are stored as empty ones.
func (tx *Tx) Put(k, v []byte) error {
	if v == nil {
		v = []byte{}
	}
	return tx.Bucket.Put(k, v)
}

// DeletePrefix deletes all keys with the given prefix.
func (tx *Tx) DeletePrefix(prefix []byte) error {
	cursor := tx.Bucket.Cursor()

	for k, _ := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); {
		if err := cursor.Delete(); err != nil {
			return errors.Wrapf(err, "failed to delete key %q", k)
		}
		// Delete leaves the cursor in an undefined spot, so seek again.
		k, _ = cursor.Seek(prefix)
	}

	return nil
}

// Iterate iterates over all keys with the given prefix in lexicographic order.
func (tx *Tx) Iterate(prefix []byte, fn func(k, v []byte) error) error {
	cursor := tx.Bucket.Cursor()

	for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}

	return nil
}
