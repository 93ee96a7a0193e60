package cryptoentity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutasdk/client-go/internal/metamodel"
	"github.com/tutasdk/client-go/internal/values"
)

func TestPlaintext_RoundTrip(t *testing.T) {
	tests := []struct {
		kind    metamodel.ValueType
		value   values.ElementValue
		encoded string
	}{
		{metamodel.String, values.String("Grüße"), "Grüße"},
		{metamodel.String, values.String(""), ""},
		{metamodel.Number, values.Number(-42), "-42"},
		{metamodel.Date, values.Date(1700000000000), "1700000000000"},
		{metamodel.Boolean, values.Bool(true), "1"},
		{metamodel.Boolean, values.Bool(false), "0"},
		{metamodel.Bytes, values.Bytes{0, 1, 2}, "\x00\x01\x02"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.encoded, func(t *testing.T) {
			encoded, err := encodePlaintext(tt.kind, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.encoded, string(encoded))

			decoded, err := decodePlaintext(tt.kind, encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.value, decoded)
		})
	}
}

func TestDecodePlaintext_EmptyIsZero(t *testing.T) {
	for _, kind := range []metamodel.ValueType{metamodel.Number, metamodel.Date, metamodel.Boolean} {
		got, err := decodePlaintext(kind, nil)
		require.NoError(t, err)
		want, err := zeroValue(kind)
		require.NoError(t, err)
		assert.Equal(t, want, got, kind)
	}
}

func TestPlaintext_Errors(t *testing.T) {
	_, err := encodePlaintext(metamodel.Number, values.String("1"))
	assert.Error(t, err)
	_, err = encodePlaintext(metamodel.GeneratedID, values.GeneratedID("x"))
	assert.Error(t, err)

	for _, tt := range []struct {
		kind  metamodel.ValueType
		plain string
	}{
		{metamodel.Number, "4.2"},
		{metamodel.Date, "yesterday"},
		{metamodel.Boolean, "true"},
		{metamodel.String, "\xff\xfe"},
		{metamodel.CustomID, "id"},
	} {
		_, err := decodePlaintext(tt.kind, []byte(tt.plain))
		assert.Error(t, err, "%s %q", tt.kind, tt.plain)
	}

	_, err = zeroValue(metamodel.CustomID)
	assert.Error(t, err)
}
