// Package ldb is a small directory store that keeps DN-addressed records on top
// of any transactional key-value backend. Backends are selected by the scheme
// of the connection URL, for example "tdb:///tmp/x.ldb" or "mdb:///tmp/x.ldb".
package ldb

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/diamondburned/ldb/driver"
	"github.com/pkg/errors"
)

// DefaultScheme is used for URLs that do not name a scheme.
const DefaultScheme = "tdb"

// Open flags, re-exported for convenience.
const (
	FlagReadOnly  = driver.FlagReadOnly
	FlagNoSync    = driver.FlagNoSync
	FlagReconnect = driver.FlagReconnect
	FlagNoMmap    = driver.FlagNoMmap
)

var (
	// ErrUnknownScheme is returned when no backend is registered for the
	// scheme of a connection URL.
	ErrUnknownScheme = errors.New("unknown backend scheme")
	// ErrEmptyPath is returned when a connection URL has no path.
	ErrEmptyPath = errors.New("connection URL has an empty path")
	// ErrNoSuchObject is returned when a record does not exist.
	ErrNoSuchObject = errors.New("no such object")
	// ErrEntryAlreadyExists is returned when adding a record whose DN is taken.
	ErrEntryAlreadyExists = errors.New("entry already exists")
	// ErrReadOnly is returned when writing to a read-only connection.
	ErrReadOnly = errors.New("database is read-only")
)

var (
	openersMu sync.RWMutex
	openers   = map[string]driver.Opener{}
)

// Register makes a backend available under the given scheme. It panics if the
// scheme is empty, the opener is nil or the scheme is already registered, just
// like database/sql does for drivers.
func Register(scheme string, opener driver.Opener) {
	if scheme == "" || opener == nil {
		panic("ldb: Register called with an empty scheme or a nil opener")
	}

	openersMu.Lock()
	defer openersMu.Unlock()

	if _, dup := openers[scheme]; dup {
		panic("ldb: Register called twice for scheme " + scheme)
	}
	openers[scheme] = opener
}

// Schemes returns the sorted list of registered schemes.
func Schemes() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()

	schemes := make([]string, 0, len(openers))
	for scheme := range openers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)

	return schemes
}

// SplitURL splits a connection URL into its scheme and path. A URL without
// "://" uses DefaultScheme.
func SplitURL(url string) (scheme, path string) {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i], url[i+3:]
	}
	return DefaultScheme, url
}

// Database describes a directory database on top of a backend. A Database is
// safe to use concurrently if its backend is.
type Database struct {
	db    driver.Database
	url   string
	flags driver.Flags
}

// Connect opens the database at the given URL using the backend registered for
// the URL's scheme.
func Connect(url string, flags driver.Flags) (*Database, error) {
	scheme, path := SplitURL(url)
	if path == "" {
		return nil, errors.Wrapf(ErrEmptyPath, "url %q", url)
	}

	openersMu.RLock()
	opener, ok := openers[scheme]
	openersMu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownScheme, "scheme %q", scheme)
	}

	db, err := opener(path, flags)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", url)
	}

	return NewDatabase(db, url, flags), nil
}

// NewDatabase creates a new database from an existing backend instance. This is
// useful for backends that are not registered.
func NewDatabase(db driver.Database, url string, flags driver.Flags) *Database {
	return &Database{
		db:    db,
		url:   url,
		flags: flags,
	}
}

// URL returns the URL the database was opened with.
func (db *Database) URL() string { return db.url }

// Flags returns the flags the database was opened with.
func (db *Database) Flags() driver.Flags { return db.flags }

// Close closes the backend if it can be closed.
func (db *Database) Close() error {
	if closer, ok := db.db.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Begin starts a transaction.
func (db *Database) Begin(readOnly bool) (*Transaction, error) {
	if !readOnly && db.flags.Has(driver.FlagReadOnly) {
		return nil, ErrReadOnly
	}

	tx, err := db.db.Begin(readOnly)
	if err != nil {
		return nil, err
	}

	return NewTransaction(tx), nil
}

// View runs fn inside a read-only transaction.
func (db *Database) View(fn func(*Transaction) error) error {
	tx, err := db.Begin(true)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	return fn(tx)
}

// Update runs fn inside a read-write transaction and commits it if fn returns
// no error.
func (db *Database) Update(fn func(*Transaction) error) error {
	tx, err := db.Begin(false)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	return nil
}

// Add adds the message in a single transaction.
func (db *Database) Add(msg *Message) error {
	return db.Update(func(tx *Transaction) error { return tx.Add(msg) })
}

// Delete deletes the message with the given DN in a single transaction.
func (db *Database) Delete(dn string) error {
	return db.Update(func(tx *Transaction) error { return tx.Delete(dn) })
}

// Search returns the message with the given DN.
func (db *Database) Search(dn string) (*Message, error) {
	var msg *Message

	err := db.View(func(tx *Transaction) (err error) {
		msg, err = tx.Search(dn)
		return
	})

	return msg, err
}

// IndexList returns the @INDEXLIST record.
func (db *Database) IndexList() (*Message, error) {
	return db.Search(IndexListDN)
}
