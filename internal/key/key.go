// Package key builds the storage keys ldb uses for directory records.
//
// A record with the DN "cn=foo" and the attribute "mail" is laid out as:
//
//	DN=CN=FOO\x00              -> original DN
//	DN=CN=FOO\x00mail\x000     -> first value
//	DN=CN=FOO\x00mail\x001     -> second value
//
// The trailing separator on the record key keeps "DN=CN=FOO" from matching
// "DN=CN=FOOBAR" when deleting or iterating by prefix.
package key

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// Prefix is prepended to the DN of every record key.
	Prefix = "DN="
	// Separator is the delimiter between key fields.
	Separator = "\x00"
)

// ErrMalformed is returned when a key does not follow the record layout.
var ErrMalformed = errors.New("malformed record key")

// FoldDN returns the DN in the form used inside keys. Special DNs starting
// with "@" are kept verbatim; everything else has its ASCII letters
// upper-cased. Other bytes, including invalid UTF-8, are kept as-is so that
// distinct DNs never share a key.
func FoldDN(dn string) string {
	if strings.HasPrefix(dn, "@") {
		return dn
	}

	folded := []byte(dn)
	for i, c := range folded {
		if 'a' <= c && c <= 'z' {
			folded[i] = c - 'a' + 'A'
		}
	}
	return string(folded)
}

// Record returns the key holding the presence marker of a record. It is also
// the prefix of all of the record's element keys.
func Record(dn string) []byte {
	folded := FoldDN(dn)

	k := make([]byte, 0, len(Prefix)+len(folded)+len(Separator))
	k = append(k, Prefix...)
	k = append(k, folded...)
	k = append(k, Separator...)
	return k
}

// Element returns the key of the i-th value of the given attribute.
func Element(dn, attr string, i int) []byte {
	k := Record(dn)
	k = append(k, attr...)
	k = append(k, Separator...)
	return strconv.AppendInt(k, int64(i), 10)
}

// SplitElement parses the attribute name and the value index out of an
// element key that starts with the given record key.
func SplitElement(record, k []byte) (attr string, i int, err error) {
	if !bytes.HasPrefix(k, record) {
		return "", 0, errors.Wrapf(ErrMalformed, "key %q outside record %q", k, record)
	}

	tail := k[len(record):]

	sep := bytes.LastIndex(tail, []byte(Separator))
	if sep < 1 {
		return "", 0, errors.Wrapf(ErrMalformed, "key %q has no attribute", k)
	}

	i, err = strconv.Atoi(string(tail[sep+len(Separator):]))
	if err != nil || i < 0 {
		return "", 0, errors.Wrapf(ErrMalformed, "key %q has a bad index", k)
	}

	return string(tail[:sep]), i, nil
}
