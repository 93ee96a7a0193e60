// Package values defines the in-memory form of entities: a tagged union of
// element values keyed by field name, the identifier types used to address
// entities, and the mapping between parsed entities and Go structs.
package values

import (
	"time"
)

// ElementValue is one of String, Number, Bool, Bytes, Date, GeneratedID,
// CustomID, IDTuple, ParsedEntity, Array or Null.
type ElementValue interface {
	isElementValue()
}

// String is a text value.
type String string

// Number is an integer value.
type Number int64

// Bool is a boolean value.
type Bool bool

// Bytes is a binary value. Encrypted fields hold their ciphertext as Bytes
// until they are decrypted.
type Bytes []byte

// Date is a point in time with millisecond precision, stored as
// milliseconds since the Unix epoch.
type Date int64

// DateOf converts t to a Date, truncating to milliseconds.
func DateOf(t time.Time) Date {
	return Date(t.UnixMilli())
}

// Time returns the date as a UTC time.
func (d Date) Time() time.Time {
	return time.UnixMilli(int64(d)).UTC()
}

// Array is an ordered sequence of values.
type Array []ElementValue

// Null marks an absent optional value.
type Null struct{}

// ParsedEntity maps field names to typed values. It is also the value kind
// of a nested aggregate.
type ParsedEntity map[string]ElementValue

func (String) isElementValue()       {}
func (Number) isElementValue()       {}
func (Bool) isElementValue()         {}
func (Bytes) isElementValue()        {}
func (Date) isElementValue()         {}
func (GeneratedID) isElementValue()  {}
func (CustomID) isElementValue()     {}
func (IDTuple) isElementValue()      {}
func (ParsedEntity) isElementValue() {}
func (Array) isElementValue()        {}
func (Null) isElementValue()         {}

// IsNull reports whether v is absent or Null.
func IsNull(v ElementValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// GeneratedID returns the named field if it holds a GeneratedID.
func (e ParsedEntity) GeneratedID(name string) (GeneratedID, bool) {
	id, ok := e[name].(GeneratedID)
	return id, ok
}

// Bytes returns the named field if it holds non-null Bytes.
func (e ParsedEntity) Bytes(name string) (Bytes, bool) {
	b, ok := e[name].(Bytes)
	return b, ok
}

// Number returns the named field if it holds a Number.
func (e ParsedEntity) Number(name string) (Number, bool) {
	n, ok := e[name].(Number)
	return n, ok
}

// Clone returns a deep copy of e.
func (e ParsedEntity) Clone() ParsedEntity {
	out := make(ParsedEntity, len(e))
	for k, v := range e {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v ElementValue) ElementValue {
	switch v := v.(type) {
	case Bytes:
		if v == nil {
			return Bytes(nil)
		}
		return append(Bytes{}, v...)
	case ParsedEntity:
		return v.Clone()
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
