package cryptoentity

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/tutasdk/client-go/internal/metamodel"
	"github.com/tutasdk/client-go/internal/values"
)

// encodePlaintext renders a value as the bytes that get encrypted.
func encodePlaintext(kind metamodel.ValueType, value values.ElementValue) ([]byte, error) {
	switch kind {
	case metamodel.String:
		if v, ok := value.(values.String); ok {
			return []byte(v), nil
		}
	case metamodel.Number:
		if v, ok := value.(values.Number); ok {
			return []byte(strconv.FormatInt(int64(v), 10)), nil
		}
	case metamodel.Date:
		if v, ok := value.(values.Date); ok {
			return []byte(strconv.FormatInt(int64(v), 10)), nil
		}
	case metamodel.Boolean:
		if v, ok := value.(values.Bool); ok {
			if v {
				return []byte("1"), nil
			}
			return []byte("0"), nil
		}
	case metamodel.Bytes:
		if v, ok := value.(values.Bytes); ok {
			return []byte(v), nil
		}
	default:
		return nil, fmt.Errorf("%s values cannot be encrypted", kind)
	}
	return nil, fmt.Errorf("expected %s, got %T", kind, value)
}

// decodePlaintext is the inverse of encodePlaintext. An empty plaintext
// of a non-string kind decodes to the zero value.
func decodePlaintext(kind metamodel.ValueType, plain []byte) (values.ElementValue, error) {
	switch kind {
	case metamodel.String:
		if !utf8.Valid(plain) {
			return nil, fmt.Errorf("plaintext is not valid UTF-8")
		}
		return values.String(plain), nil
	case metamodel.Bytes:
		return values.Bytes(plain), nil
	}

	if len(plain) == 0 {
		return zeroValue(kind)
	}
	s := string(plain)
	switch kind {
	case metamodel.Number:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return values.Number(n), nil
	case metamodel.Date:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", s)
		}
		return values.Date(n), nil
	case metamodel.Boolean:
		switch s {
		case "0":
			return values.Bool(false), nil
		case "1":
			return values.Bool(true), nil
		}
		return nil, fmt.Errorf("invalid boolean %q", s)
	}
	return nil, fmt.Errorf("%s values cannot be encrypted", kind)
}

// zeroValue is what an empty ciphertext stands for.
func zeroValue(kind metamodel.ValueType) (values.ElementValue, error) {
	switch kind {
	case metamodel.String:
		return values.String(""), nil
	case metamodel.Number:
		return values.Number(0), nil
	case metamodel.Date:
		return values.Date(0), nil
	case metamodel.Boolean:
		return values.Bool(false), nil
	case metamodel.Bytes:
		return values.Bytes{}, nil
	}
	return nil, fmt.Errorf("%s values cannot be encrypted", kind)
}
