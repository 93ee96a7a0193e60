package crypto

import (
	"encoding/base64"
	"fmt"
)

// ToBase64 encodes bytes to standard base64 with padding, the encoding
// keys and ciphertexts travel in.
func ToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes base64 leniently: standard or URL-safe alphabet,
// with or without padding. Meant for keys typed or pasted by a user.
func DecodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("invalid base64")
}

// ParseSymmetricKey decodes a base64 AES-256 key.
func ParseSymmetricKey(s string) (SymmetricKey, error) {
	data, err := DecodeBase64(s)
	if err != nil {
		return nil, err
	}
	return NewSymmetricKey(data)
}

// ParseKeyPair decodes a base64 ML-KEM-768 secret key and derives the pair.
func ParseKeyPair(s string) (*KeyPair, error) {
	data, err := DecodeBase64(s)
	if err != nil {
		return nil, err
	}
	return KeyPairFromSecretKey(data)
}
