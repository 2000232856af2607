package ldb

import (
	"strings"

	"github.com/diamondburned/ldb/internal/key"
	"github.com/pkg/errors"
)

// IndexListDN is the DN of the special record that tells the database which
// attributes to index.
const IndexListDN = "@INDEXLIST"

// Index attribute names understood inside the @INDEXLIST record.
const (
	IdxAttr   = "@IDXATTR"
	IdxOne    = "@IDXONE"
	IdxGUID   = "@IDXGUID"
	IdxDNGUID = "@IDX_DN_GUID"
)

// Element is a single attribute of a message along with its ordered values.
type Element struct {
	Name   string
	Values [][]byte
}

// Message is a directory record: a DN and its ordered list of elements.
type Message struct {
	DN       string
	Elements []Element
}

// NewMessage creates an empty message with the given DN.
func NewMessage(dn string) *Message {
	return &Message{DN: dn}
}

// Find returns the element with the given name, or nil if there is none.
func (msg *Message) Find(name string) *Element {
	for i := range msg.Elements {
		if msg.Elements[i].Name == name {
			return &msg.Elements[i]
		}
	}
	return nil
}

// Add appends values to the element with the given name, creating it if
// needed. The values are copied.
func (msg *Message) Add(name string, values ...[]byte) {
	el := msg.Find(name)
	if el == nil {
		msg.Elements = append(msg.Elements, Element{Name: name})
		el = &msg.Elements[len(msg.Elements)-1]
	}

	for _, v := range values {
		el.Values = append(el.Values, append([]byte(nil), v...))
	}
}

// AddString is a convenient function around Add for string values.
func (msg *Message) AddString(name string, values ...string) {
	bytes := make([][]byte, len(values))
	for i, v := range values {
		bytes[i] = []byte(v)
	}
	msg.Add(name, bytes...)
}

// Copy returns a deep copy of the message.
func (msg *Message) Copy() *Message {
	cpy := &Message{
		DN:       msg.DN,
		Elements: make([]Element, len(msg.Elements)),
	}

	for i, el := range msg.Elements {
		cpy.Elements[i].Name = el.Name
		cpy.Elements[i].Values = make([][]byte, len(el.Values))
		for j, v := range el.Values {
			cpy.Elements[i].Values[j] = append([]byte(nil), v...)
		}
	}

	return cpy
}

// validate checks that the message can be stored.
func (msg *Message) validate() error {
	if msg.DN == "" {
		return errors.New("message has an empty DN")
	}
	if strings.Contains(msg.DN, key.Separator) {
		return errors.Errorf("message DN %q contains a NUL byte", msg.DN)
	}

	seen := make(map[string]struct{}, len(msg.Elements))

	for _, el := range msg.Elements {
		if !validName(el.Name) {
			return errors.Errorf("message %q has an invalid element name %q", msg.DN, el.Name)
		}
		if _, dup := seen[el.Name]; dup {
			return errors.Errorf("message %q has duplicate element %q", msg.DN, el.Name)
		}
		seen[el.Name] = struct{}{}
	}

	return nil
}
