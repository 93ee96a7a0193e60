package values

import (
	"fmt"
	"reflect"
	"time"
)

// TagName is the struct tag naming the entity field a Go field maps to.
const TagName = "entity"

var (
	timeType        = reflect.TypeOf(time.Time{})
	generatedIDType = reflect.TypeOf(GeneratedID(""))
	customIDType    = reflect.TypeOf(CustomID(""))
	idTupleType     = reflect.TypeOf(IDTuple{})
	byteSliceType   = reflect.TypeOf([]byte(nil))
)

// Materialize copies a fully decrypted entity into the struct pointed to by
// out. Only fields carrying an `entity:"name"` tag are populated. Optional
// values map to pointer fields, Any-cardinality values to slices and
// aggregates to nested structs.
func Materialize(entity ParsedEntity, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("materialize: want pointer to struct, got %T", out)
	}
	return materializeStruct(entity, rv.Elem())
}

func materializeStruct(entity ParsedEntity, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name, ok := field.Tag.Lookup(TagName)
		if !ok || name == "-" || !field.IsExported() {
			continue
		}
		value, present := entity[name]
		if !present {
			value = Null{}
		}
		if err := assign(rv.Field(i), value); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

func assign(dst reflect.Value, value ElementValue) error {
	if dst.Kind() == reflect.Pointer {
		if IsNull(value) {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if IsNull(value) {
		if dst.Kind() == reflect.Slice {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return fmt.Errorf("null value for non-optional %s", dst.Type())
	}

	switch dst.Type() {
	case timeType:
		d, ok := value.(Date)
		if !ok {
			return mismatch(dst, value)
		}
		dst.Set(reflect.ValueOf(d.Time()))
		return nil
	case generatedIDType:
		id, ok := value.(GeneratedID)
		if !ok {
			return mismatch(dst, value)
		}
		dst.Set(reflect.ValueOf(id))
		return nil
	case customIDType:
		id, ok := value.(CustomID)
		if !ok {
			return mismatch(dst, value)
		}
		dst.Set(reflect.ValueOf(id))
		return nil
	case idTupleType:
		id, ok := value.(IDTuple)
		if !ok {
			return mismatch(dst, value)
		}
		dst.Set(reflect.ValueOf(id))
		return nil
	case byteSliceType:
		b, ok := value.(Bytes)
		if !ok {
			return mismatch(dst, value)
		}
		dst.SetBytes(append([]byte{}, b...))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		s, ok := value.(String)
		if !ok {
			return mismatch(dst, value)
		}
		dst.SetString(string(s))
	case reflect.Int64, reflect.Int:
		n, ok := value.(Number)
		if !ok {
			return mismatch(dst, value)
		}
		dst.SetInt(int64(n))
	case reflect.Bool:
		b, ok := value.(Bool)
		if !ok {
			return mismatch(dst, value)
		}
		dst.SetBool(bool(b))
	case reflect.Struct:
		nested, ok := value.(ParsedEntity)
		if !ok {
			return mismatch(dst, value)
		}
		return materializeStruct(nested, dst)
	case reflect.Slice:
		arr, ok := value.(Array)
		if !ok {
			return mismatch(dst, value)
		}
		out := reflect.MakeSlice(dst.Type(), len(arr), len(arr))
		for i, item := range arr {
			if err := assign(out.Index(i), item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		dst.Set(out)
	default:
		return fmt.Errorf("unsupported field type %s", dst.Type())
	}
	return nil
}

func mismatch(dst reflect.Value, value ElementValue) error {
	return fmt.Errorf("cannot assign %T to %s", value, dst.Type())
}

// Dematerialize is the inverse of Materialize: it converts a tagged struct
// (or pointer to one) back into a ParsedEntity. Nil pointers and nil byte
// slices become Null.
func Dematerialize(in any) (ParsedEntity, error) {
	rv := reflect.ValueOf(in)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("dematerialize: nil %T", in)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("dematerialize: want struct, got %T", in)
	}
	return dematerializeStruct(rv)
}

func dematerializeStruct(rv reflect.Value) (ParsedEntity, error) {
	rt := rv.Type()
	out := make(ParsedEntity)
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name, ok := field.Tag.Lookup(TagName)
		if !ok || name == "-" || !field.IsExported() {
			continue
		}
		value, err := extract(rv.Field(i))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		out[name] = value
	}
	return out, nil
}

func extract(src reflect.Value) (ElementValue, error) {
	if src.Kind() == reflect.Pointer {
		if src.IsNil() {
			return Null{}, nil
		}
		return extract(src.Elem())
	}

	switch src.Type() {
	case timeType:
		return DateOf(src.Interface().(time.Time)), nil
	case generatedIDType:
		return src.Interface().(GeneratedID), nil
	case customIDType:
		return src.Interface().(CustomID), nil
	case idTupleType:
		return src.Interface().(IDTuple), nil
	case byteSliceType:
		if src.IsNil() {
			return Null{}, nil
		}
		return Bytes(append([]byte{}, src.Bytes()...)), nil
	}

	switch src.Kind() {
	case reflect.String:
		return String(src.String()), nil
	case reflect.Int64, reflect.Int:
		return Number(src.Int()), nil
	case reflect.Bool:
		return Bool(src.Bool()), nil
	case reflect.Struct:
		return dematerializeStruct(src)
	case reflect.Slice:
		arr := make(Array, src.Len())
		for i := 0; i < src.Len(); i++ {
			item, err := extract(src.Index(i))
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = item
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported field type %s", src.Type())
	}
}
