package metamodel

import (
	"fmt"
	"sort"
)

// TypeRef identifies a schema by application and type name.
type TypeRef struct {
	App  string
	Type string
}

func (r TypeRef) String() string {
	return r.App + "/" + r.Type
}

// ElementType is the storage shape of an entity type.
type ElementType string

const (
	// Element is a singleton instance addressed by its own id.
	Element ElementType = "ELEMENT_TYPE"
	// ListElement is a member of an ordered list, addressed by (list id, element id).
	ListElement ElementType = "LIST_ELEMENT_TYPE"
	// BlobElement is a member of a blob archive, addressed like a ListElement.
	BlobElement ElementType = "BLOB_ELEMENT_TYPE"
	// Aggregated types only exist nested inside another entity.
	Aggregated ElementType = "AGGREGATED_TYPE"
)

// UnmarshalText rejects unknown element types.
func (t *ElementType) UnmarshalText(text []byte) error {
	switch v := ElementType(text); v {
	case Element, ListElement, BlobElement, Aggregated:
		*t = v
		return nil
	default:
		return fmt.Errorf("unknown element type %q", text)
	}
}

// ValueType is the declared kind of a scalar field.
type ValueType string

const (
	String      ValueType = "String"
	Number      ValueType = "Number"
	Bytes       ValueType = "Bytes"
	Date        ValueType = "Date"
	Boolean     ValueType = "Boolean"
	GeneratedID ValueType = "GeneratedId"
	CustomID    ValueType = "CustomId"
)

// UnmarshalText rejects unknown value types.
func (t *ValueType) UnmarshalText(text []byte) error {
	switch v := ValueType(text); v {
	case String, Number, Bytes, Date, Boolean, GeneratedID, CustomID:
		*t = v
		return nil
	default:
		return fmt.Errorf("unknown value type %q", text)
	}
}

// Cardinality describes how many values a field holds.
type Cardinality string

const (
	One       Cardinality = "One"
	ZeroOrOne Cardinality = "ZeroOrOne"
	Any       Cardinality = "Any"
)

// UnmarshalText rejects unknown cardinalities.
func (c *Cardinality) UnmarshalText(text []byte) error {
	switch v := Cardinality(text); v {
	case One, ZeroOrOne, Any:
		*c = v
		return nil
	default:
		return fmt.Errorf("unknown cardinality %q", text)
	}
}

// AssociationType describes what an association points at.
type AssociationType string

const (
	Aggregation            AssociationType = "AGGREGATION"
	ElementAssociation     AssociationType = "ELEMENT_ASSOCIATION"
	ListAssociation        AssociationType = "LIST_ASSOCIATION"
	ListElementAssociation AssociationType = "LIST_ELEMENT_ASSOCIATION"
	BlobElementAssociation AssociationType = "BLOB_ELEMENT_ASSOCIATION"
)

// UnmarshalText rejects unknown association types.
func (t *AssociationType) UnmarshalText(text []byte) error {
	switch v := AssociationType(text); v {
	case Aggregation, ElementAssociation, ListAssociation, ListElementAssociation, BlobElementAssociation:
		*t = v
		return nil
	default:
		return fmt.Errorf("unknown association type %q", text)
	}
}

// ModelValue describes a scalar field.
type ModelValue struct {
	Type        ValueType   `json:"type"`
	Cardinality Cardinality `json:"cardinality"`
	Encrypted   bool        `json:"encrypted"`
	Final       bool        `json:"final"`
}

// Mandatory reports whether the field must be present.
func (v ModelValue) Mandatory() bool {
	return v.Cardinality == One
}

// ModelAssociation describes a reference or nested aggregate.
type ModelAssociation struct {
	Type        AssociationType `json:"type"`
	Cardinality Cardinality     `json:"cardinality"`
	RefType     string          `json:"refType"`
	// Dependency names the app owning RefType when it differs from the
	// declaring type's app.
	Dependency string `json:"dependency,omitempty"`
	Final      bool   `json:"final"`
}

// Mandatory reports whether the association must be present.
func (a ModelAssociation) Mandatory() bool {
	return a.Cardinality == One
}

// TypeModel is the versioned schema of one entity type.
type TypeModel struct {
	App          string                      `json:"app"`
	Name         string                      `json:"name"`
	Version      int                         `json:"version"`
	ElementType  ElementType                 `json:"type"`
	Values       map[string]ModelValue       `json:"values"`
	Associations map[string]ModelAssociation `json:"associations"`
}

// Ref returns the TypeRef of the model.
func (m *TypeModel) Ref() TypeRef {
	return TypeRef{App: m.App, Type: m.Name}
}

// ValueNames returns the declared value names in a stable order.
func (m *TypeModel) ValueNames() []string {
	return sortedKeys(m.Values)
}

// AssociationNames returns the declared association names in a stable order.
func (m *TypeModel) AssociationNames() []string {
	return sortedKeys(m.Associations)
}

// HasEncryptedValues reports whether any value of this type (not counting
// nested aggregates) is encrypted.
func (m *TypeModel) HasEncryptedValues() bool {
	for _, v := range m.Values {
		if v.Encrypted {
			return true
		}
	}
	return false
}

// RefTypeRef resolves the TypeRef an association points at.
func (m *TypeModel) RefTypeRef(assoc ModelAssociation) TypeRef {
	app := m.App
	if assoc.Dependency != "" {
		app = assoc.Dependency
	}
	return TypeRef{App: app, Type: assoc.RefType}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
