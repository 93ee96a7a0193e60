package crypto

import (
	"fmt"
)

// SymmetricKey is an AES-256 key: a group key or an entity session key.
type SymmetricKey []byte

// NewSymmetricKey validates the size of b and returns it as a key.
func NewSymmetricKey(b []byte) (SymmetricKey, error) {
	if len(b) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(b), AESKeySize)
	}
	return SymmetricKey(b), nil
}

// GenerateKey creates a random AES-256 key.
func GenerateKey() (SymmetricKey, error) {
	b, err := randomBytes(AESKeySize)
	if err != nil {
		return nil, err
	}
	return SymmetricKey(b), nil
}

// EncryptValue encrypts a field value under a session key with a fresh
// random nonce.
func EncryptValue(key SymmetricKey, plaintext []byte) ([]byte, error) {
	nonce, err := randomBytes(AESNonceSize)
	if err != nil {
		return nil, err
	}
	return encryptAESGCM(key, nonce, valueAAD, plaintext)
}

// DecryptValue decrypts the output of EncryptValue.
func DecryptValue(key SymmetricKey, ciphertext []byte) ([]byte, error) {
	return decryptAESGCM(key, valueAAD, ciphertext)
}

// EncryptKey wraps key under wrappingKey, as done for the owner-encrypted
// session key of an entity.
func EncryptKey(wrappingKey, key SymmetricKey) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}
	nonce, err := randomBytes(AESNonceSize)
	if err != nil {
		return nil, err
	}
	return encryptAESGCM(wrappingKey, nonce, keyWrapAAD, key)
}

// DecryptKey unwraps a key produced by EncryptKey.
func DecryptKey(wrappingKey SymmetricKey, wrapped []byte) (SymmetricKey, error) {
	plain, err := decryptAESGCM(wrappingKey, keyWrapAAD, wrapped)
	if err != nil {
		return nil, err
	}
	return NewSymmetricKey(plain)
}

// EncapsulateKey protects key for the holder of publicKey.
//
// The process:
//  1. ML-KEM-768 encapsulation against publicKey yields ctKem and a shared secret
//  2. HKDF-SHA-512 derives an AES-256 key from the shared secret, salted with SHA-256(ctKem)
//  3. AES-256-GCM encrypts key under the derived key
//
// The result is ctKem (1088 bytes) || nonce || ciphertext || tag.
func EncapsulateKey(publicKey []byte, key SymmetricKey) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}

	ctKem, sharedSecret, err := Encapsulate(publicKey)
	if err != nil {
		return nil, fmt.Errorf("encapsulate: %w", err)
	}

	wrappingKey, err := deriveWrappingKey(sharedSecret, ctKem)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	nonce, err := randomBytes(AESNonceSize)
	if err != nil {
		return nil, err
	}
	sealed, err := encryptAESGCM(wrappingKey, nonce, encapsulationAAD, key)
	if err != nil {
		return nil, err
	}

	return append(ctKem, sealed...), nil
}

// DecapsulateKey reverses EncapsulateKey with the matching key pair.
func (k *KeyPair) DecapsulateKey(encapsulated []byte) (SymmetricKey, error) {
	if len(encapsulated) < MLKEMCiphertextSize+AESNonceSize+AESTagSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCiphertextSize, len(encapsulated))
	}
	ctKem := encapsulated[:MLKEMCiphertextSize]

	sharedSecret, err := k.Decapsulate(ctKem)
	if err != nil {
		return nil, fmt.Errorf("decapsulate: %w", err)
	}

	wrappingKey, err := deriveWrappingKey(sharedSecret, ctKem)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	plain, err := decryptAESGCM(wrappingKey, encapsulationAAD, encapsulated[MLKEMCiphertextSize:])
	if err != nil {
		return nil, err
	}
	return NewSymmetricKey(plain)
}
