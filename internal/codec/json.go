package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeRaw decodes a single wire entity. Numbers are kept as json.Number so
// nothing is lost before Parse inspects them.
func DecodeRaw(body []byte) (RawEntity, error) {
	var raw RawEntity
	if err := decode(body, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("decode entity: body is null")
	}
	return raw, nil
}

// DecodeRawList decodes a JSON array of wire entities.
func DecodeRawList(body []byte) ([]RawEntity, error) {
	var list []RawEntity
	if err := decode(body, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// EncodeRaw encodes a wire entity as JSON.
func EncodeRaw(raw RawEntity) ([]byte, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	return data, nil
}

func decode(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode entity: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("decode entity: trailing data after JSON value")
	}
	return nil
}
