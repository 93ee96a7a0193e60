// Package codec converts entities between their wire JSON form (RawEntity)
// and the typed in-memory form (values.ParsedEntity), driven by the type
// models of a metamodel.Catalog.
//
// Parse is strict about declared fields and lenient about undeclared ones:
// a missing mandatory field or a value that cannot be coerced to its declared
// kind fails the call, while fields unknown to the schema are dropped so that
// newer servers do not break older clients. Serialize is the structural
// inverse and re-produces the exact wire value of everything Parse accepted.
package codec

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/tutasdk/client-go/internal/apierrors"
	"github.com/tutasdk/client-go/internal/metamodel"
	"github.com/tutasdk/client-go/internal/values"
)

// RawEntity is an entity exactly as transported: field name to wire value
// (string, nested object, array or nil).
type RawEntity = map[string]any

// IDField is the name of the identifier field of every entity.
const IDField = "_id"

var strictBase64 = base64.StdEncoding.Strict()

// Serializer parses and serializes entities of the types in its catalog.
// It holds no mutable state and is safe for concurrent use.
type Serializer struct {
	catalog metamodel.Catalog
}

// NewSerializer creates a Serializer backed by catalog.
func NewSerializer(catalog metamodel.Catalog) *Serializer {
	return &Serializer{catalog: catalog}
}

func (s *Serializer) model(ref metamodel.TypeRef) (*metamodel.TypeModel, error) {
	model, ok := s.catalog.TypeModel(ref.App, ref.Type)
	if !ok {
		return nil, apierrors.Internalf("model %s not found in app %s", ref.Type, ref.App)
	}
	return model, nil
}

// Parse converts a wire entity of type ref into a ParsedEntity.
func (s *Serializer) Parse(ref metamodel.TypeRef, raw RawEntity) (values.ParsedEntity, error) {
	model, err := s.model(ref)
	if err != nil {
		return nil, err
	}
	return s.parseEntity(model, raw)
}

func (s *Serializer) parseEntity(model *metamodel.TypeModel, raw RawEntity) (values.ParsedEntity, error) {
	typeName := model.Ref().String()
	out := make(values.ParsedEntity, len(model.Values)+len(model.Associations))

	for _, name := range model.ValueNames() {
		mv := model.Values[name]
		wire, present := raw[name]
		if !present || wire == nil {
			if mv.Mandatory() {
				return nil, &apierrors.MissingFieldError{Type: typeName, Field: name}
			}
			out[name] = values.Null{}
			continue
		}

		var (
			value values.ElementValue
			err   error
		)
		switch {
		case mv.Encrypted:
			value, err = parseBytes(wire)
		case name == IDField && isListLike(model.ElementType):
			value, err = parseIDTuple(wire)
		default:
			value, err = parseValue(mv.Type, wire)
		}
		if err != nil {
			return nil, &apierrors.MalformedFieldError{Type: typeName, Field: name, Reason: err.Error()}
		}
		out[name] = value
	}

	for _, name := range model.AssociationNames() {
		assoc := model.Associations[name]
		value, err := s.parseAssociation(model, name, assoc, raw[name])
		if err != nil {
			return nil, err
		}
		out[name] = value
	}

	return out, nil
}

func (s *Serializer) parseAssociation(model *metamodel.TypeModel, name string, assoc metamodel.ModelAssociation, wire any) (values.ElementValue, error) {
	typeName := model.Ref().String()
	malformed := func(reason string) error {
		return &apierrors.MalformedFieldError{Type: typeName, Field: name, Reason: reason}
	}

	parseOne := func(item any) (values.ElementValue, error) {
		if assoc.Type == metamodel.Aggregation {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, malformed(fmt.Sprintf("expected object, got %T", item))
			}
			ref := model.RefTypeRef(assoc)
			target, err := s.model(ref)
			if err != nil {
				return nil, err
			}
			return s.parseEntity(target, obj)
		}
		var (
			value values.ElementValue
			err   error
		)
		if isListElementAssociation(assoc.Type) {
			value, err = parseIDTuple(item)
		} else {
			value, err = parseValue(metamodel.GeneratedID, item)
		}
		if err != nil {
			return nil, malformed(err.Error())
		}
		return value, nil
	}

	switch assoc.Cardinality {
	case metamodel.Any:
		if wire == nil {
			return values.Array{}, nil
		}
		items, ok := wire.([]any)
		if !ok {
			return nil, malformed(fmt.Sprintf("expected array, got %T", wire))
		}
		arr := make(values.Array, 0, len(items))
		for _, item := range items {
			v, err := parseOne(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case metamodel.ZeroOrOne:
		if wire == nil {
			return values.Null{}, nil
		}
		return parseOne(wire)
	default:
		if wire == nil {
			return nil, &apierrors.MissingFieldError{Type: typeName, Field: name}
		}
		return parseOne(wire)
	}
}

func parseValue(kind metamodel.ValueType, wire any) (values.ElementValue, error) {
	if kind == metamodel.Bytes {
		return parseBytes(wire)
	}

	s, ok := wire.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", wire)
	}

	switch kind {
	case metamodel.String:
		return values.String(s), nil
	case metamodel.Number:
		n, err := parseCanonicalInt(s)
		if err != nil {
			return nil, err
		}
		return values.Number(n), nil
	case metamodel.Date:
		n, err := parseCanonicalInt(s)
		if err != nil {
			return nil, err
		}
		return values.Date(n), nil
	case metamodel.Boolean:
		switch s {
		case "0":
			return values.Bool(false), nil
		case "1":
			return values.Bool(true), nil
		default:
			return nil, fmt.Errorf("invalid boolean %q", s)
		}
	case metamodel.GeneratedID:
		if s == "" {
			return nil, fmt.Errorf("empty id")
		}
		return values.GeneratedID(s), nil
	case metamodel.CustomID:
		if s == "" {
			return nil, fmt.Errorf("empty id")
		}
		return values.CustomID(s), nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", kind)
	}
}

func parseCanonicalInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if strconv.FormatInt(n, 10) != s {
		return 0, fmt.Errorf("non-canonical number %q", s)
	}
	return n, nil
}

func parseBytes(wire any) (values.ElementValue, error) {
	s, ok := wire.(string)
	if !ok {
		return nil, fmt.Errorf("expected base64 string, got %T", wire)
	}
	if strings.ContainsAny(s, "\r\n") {
		return nil, fmt.Errorf("invalid base64: contains line breaks")
	}
	b, err := strictBase64.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %v", err)
	}
	return values.Bytes(b), nil
}

func parseIDTuple(wire any) (values.ElementValue, error) {
	parts, ok := wire.([]any)
	if !ok || len(parts) != 2 {
		return nil, fmt.Errorf("expected [listId, elementId], got %v", wire)
	}
	listID, ok1 := parts[0].(string)
	elementID, ok2 := parts[1].(string)
	if !ok1 || !ok2 || listID == "" || elementID == "" {
		return nil, fmt.Errorf("expected two non-empty id strings, got %v", wire)
	}
	return values.NewIDTuple(values.GeneratedID(listID), values.GeneratedID(elementID)), nil
}

// Serialize converts a ParsedEntity of type ref into its wire form.
func (s *Serializer) Serialize(ref metamodel.TypeRef, entity values.ParsedEntity) (RawEntity, error) {
	model, err := s.model(ref)
	if err != nil {
		return nil, err
	}
	return s.serializeEntity(model, entity)
}

func (s *Serializer) serializeEntity(model *metamodel.TypeModel, entity values.ParsedEntity) (RawEntity, error) {
	typeName := model.Ref().String()
	out := make(RawEntity, len(model.Values)+len(model.Associations))

	for _, name := range model.ValueNames() {
		mv := model.Values[name]
		value := entity[name]
		if values.IsNull(value) {
			if mv.Mandatory() {
				return nil, &apierrors.MissingFieldError{Type: typeName, Field: name}
			}
			out[name] = nil
			continue
		}

		var (
			wire any
			err  error
		)
		switch {
		case mv.Encrypted:
			wire, err = serializeValue(metamodel.Bytes, value)
		case name == IDField && isListLike(model.ElementType):
			wire, err = serializeIDTuple(value)
		default:
			wire, err = serializeValue(mv.Type, value)
		}
		if err != nil {
			return nil, &apierrors.MalformedFieldError{Type: typeName, Field: name, Reason: err.Error()}
		}
		out[name] = wire
	}

	for _, name := range model.AssociationNames() {
		assoc := model.Associations[name]
		wire, err := s.serializeAssociation(model, name, assoc, entity[name])
		if err != nil {
			return nil, err
		}
		out[name] = wire
	}

	return out, nil
}

func (s *Serializer) serializeAssociation(model *metamodel.TypeModel, name string, assoc metamodel.ModelAssociation, value values.ElementValue) (any, error) {
	typeName := model.Ref().String()
	malformed := func(reason string) error {
		return &apierrors.MalformedFieldError{Type: typeName, Field: name, Reason: reason}
	}

	serializeOne := func(item values.ElementValue) (any, error) {
		if assoc.Type == metamodel.Aggregation {
			nested, ok := item.(values.ParsedEntity)
			if !ok {
				return nil, malformed(fmt.Sprintf("expected aggregate, got %T", item))
			}
			target, err := s.model(model.RefTypeRef(assoc))
			if err != nil {
				return nil, err
			}
			return s.serializeEntity(target, nested)
		}
		var (
			wire any
			err  error
		)
		if isListElementAssociation(assoc.Type) {
			wire, err = serializeIDTuple(item)
		} else {
			wire, err = serializeValue(metamodel.GeneratedID, item)
		}
		if err != nil {
			return nil, malformed(err.Error())
		}
		return wire, nil
	}

	switch assoc.Cardinality {
	case metamodel.Any:
		if values.IsNull(value) {
			return []any{}, nil
		}
		arr, ok := value.(values.Array)
		if !ok {
			return nil, malformed(fmt.Sprintf("expected array, got %T", value))
		}
		out := make([]any, 0, len(arr))
		for _, item := range arr {
			wire, err := serializeOne(item)
			if err != nil {
				return nil, err
			}
			out = append(out, wire)
		}
		return out, nil
	case metamodel.ZeroOrOne:
		if values.IsNull(value) {
			return nil, nil
		}
		return serializeOne(value)
	default:
		if values.IsNull(value) {
			return nil, &apierrors.MissingFieldError{Type: typeName, Field: name}
		}
		return serializeOne(value)
	}
}

func serializeValue(kind metamodel.ValueType, value values.ElementValue) (any, error) {
	switch kind {
	case metamodel.String:
		if v, ok := value.(values.String); ok {
			return string(v), nil
		}
	case metamodel.Number:
		if v, ok := value.(values.Number); ok {
			return strconv.FormatInt(int64(v), 10), nil
		}
	case metamodel.Date:
		if v, ok := value.(values.Date); ok {
			return strconv.FormatInt(int64(v), 10), nil
		}
	case metamodel.Boolean:
		if v, ok := value.(values.Bool); ok {
			if v {
				return "1", nil
			}
			return "0", nil
		}
	case metamodel.Bytes:
		if v, ok := value.(values.Bytes); ok {
			return base64.StdEncoding.EncodeToString(v), nil
		}
	case metamodel.GeneratedID:
		if v, ok := value.(values.GeneratedID); ok {
			return string(v), nil
		}
	case metamodel.CustomID:
		if v, ok := value.(values.CustomID); ok {
			return string(v), nil
		}
	default:
		return nil, fmt.Errorf("unsupported value type %s", kind)
	}
	return nil, fmt.Errorf("expected %s, got %T", kind, value)
}

func serializeIDTuple(value values.ElementValue) (any, error) {
	id, ok := value.(values.IDTuple)
	if !ok {
		return nil, fmt.Errorf("expected id tuple, got %T", value)
	}
	return []any{string(id.ListID), string(id.ElementID)}, nil
}

func isListLike(t metamodel.ElementType) bool {
	return t == metamodel.ListElement || t == metamodel.BlobElement
}

func isListElementAssociation(t metamodel.AssociationType) bool {
	return t == metamodel.ListElementAssociation || t == metamodel.BlobElementAssociation
}
