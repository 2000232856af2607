package ldb

import (
	"sort"
	"strings"

	"github.com/diamondburned/ldb/driver"
	"github.com/diamondburned/ldb/internal/key"
	"github.com/pkg/errors"
)

// Transaction describes a transaction of a database managed by ldb.
type Transaction struct {
	tx   driver.Transaction
	done bool
}

// NewTransaction creates a new transaction from an existing one. This is useful
// for working around Database's limited APIs.
func NewTransaction(tx driver.Transaction) *Transaction {
	return &Transaction{tx: tx}
}

// Commit commits the transaction. Calling Commit or Rollback after the
// transaction is done does nothing.
func (tx *Transaction) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true
	return tx.tx.Commit()
}

// Rollback discards the transaction.
func (tx *Transaction) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	return tx.tx.Rollback()
}

// Exists returns true if a record with the given DN exists.
func (tx *Transaction) Exists(dn string) (bool, error) {
	_, err := tx.tx.Get(key.Record(dn))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, driver.ErrKeyNotFound) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to look up %q", dn)
}

// Add stores a new record. It fails with ErrEntryAlreadyExists if the DN is
// already taken.
func (tx *Transaction) Add(msg *Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	exists, err := tx.Exists(msg.DN)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ErrEntryAlreadyExists, "dn %q", msg.DN)
	}

	return tx.put(msg)
}

func (tx *Transaction) put(msg *Message) error {
	if err := tx.tx.Put(key.Record(msg.DN), []byte(msg.DN)); err != nil {
		return errors.Wrapf(err, "failed to write record %q", msg.DN)
	}

	for _, el := range msg.Elements {
		for i, v := range el.Values {
			if err := tx.tx.Put(key.Element(msg.DN, el.Name, i), v); err != nil {
				return errors.Wrapf(err, "record %q element %s index %d", msg.DN, el.Name, i)
			}
		}
	}

	return nil
}

// Delete removes the record with the given DN along with all of its elements.
func (tx *Transaction) Delete(dn string) error {
	exists, err := tx.Exists(dn)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(ErrNoSuchObject, "dn %q", dn)
	}

	if err := tx.tx.DeletePrefix(key.Record(dn)); err != nil {
		return errors.Wrapf(err, "failed to delete %q", dn)
	}

	return nil
}

// Search reads back the record with the given DN. Element and value order
// follow the order the record was added in, except that elements are sorted by
// name.
func (tx *Transaction) Search(dn string) (*Message, error) {
	record := key.Record(dn)

	orig, err := tx.tx.Get(record)
	if err != nil {
		if errors.Is(err, driver.ErrKeyNotFound) {
			return nil, errors.Wrapf(ErrNoSuchObject, "dn %q", dn)
		}
		return nil, errors.Wrapf(err, "failed to look up %q", dn)
	}

	msg := NewMessage(string(orig))
	values := map[string]map[int][]byte{}

	err = tx.tx.Iterate(record, func(k, v []byte) error {
		if len(k) == len(record) {
			// The presence marker itself.
			return nil
		}

		attr, i, err := key.SplitElement(record, k)
		if err != nil {
			return err
		}

		if values[attr] == nil {
			values[attr] = map[int][]byte{}
		}
		values[attr][i] = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read elements of %q", dn)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		indices := make([]int, 0, len(values[name]))
		for i := range values[name] {
			indices = append(indices, i)
		}
		sort.Ints(indices)

		el := Element{Name: name, Values: make([][]byte, len(indices))}
		for j, i := range indices {
			el.Values[j] = values[name][i]
		}
		msg.Elements = append(msg.Elements, el)
	}

	return msg, nil
}

// validName reports whether an element name can be embedded into a key.
func validName(name string) bool {
	return name != "" && !strings.Contains(name, key.Separator)
}
