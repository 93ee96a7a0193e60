package crypto

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
)

// randReader is the random source used for key generation, nonces and
// encapsulation seeds. It defaults to nil (which uses crypto/rand) but can
// be overridden for testing.
var randReader io.Reader

func randomBytes(n int) ([]byte, error) {
	r := randReader
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// KeyPair is an ML-KEM-768 key pair. Session keys of entities addressed to
// a group's public key are encapsulated against PublicKey.
type KeyPair struct {
	PublicKey []byte
	SecretKey []byte
}

// GenerateKeyPair creates a new ML-KEM-768 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := mlkem768.GenerateKeyPair(randReader)
	if err != nil {
		return nil, err
	}

	// MarshalBinary never fails for valid keys from GenerateKeyPair
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &KeyPair{PublicKey: pubBytes, SecretKey: privBytes}, nil
}

// KeyPairFromSecretKey reconstructs a key pair from the secret key alone.
// The public key is embedded in the secret key at PublicKeyOffset.
func KeyPairFromSecretKey(secretKey []byte) (*KeyPair, error) {
	if len(secretKey) != MLKEMSecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}

	publicKey := make([]byte, MLKEMPublicKeySize)
	copy(publicKey, secretKey[PublicKeyOffset:PublicKeyOffset+MLKEMPublicKeySize])

	return &KeyPair{PublicKey: publicKey, SecretKey: secretKey}, nil
}

// NewKeyPair validates and wraps raw key bytes.
func NewKeyPair(secretKey, publicKey []byte) (*KeyPair, error) {
	if len(secretKey) != MLKEMSecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}
	if len(publicKey) != MLKEMPublicKeySize {
		return nil, ErrInvalidPublicKeySize
	}

	priv := &mlkem768.PrivateKey{}
	if err := priv.Unpack(secretKey); err != nil {
		return nil, err
	}

	kp := &KeyPair{PublicKey: publicKey, SecretKey: secretKey}
	if !kp.Valid() {
		return nil, fmt.Errorf("public key does not belong to secret key")
	}
	return kp, nil
}

// Valid reports whether the key pair has the right sizes and its public key
// matches the copy embedded in the secret key.
func (k *KeyPair) Valid() bool {
	if k == nil {
		return false
	}
	if len(k.PublicKey) != MLKEMPublicKeySize || len(k.SecretKey) != MLKEMSecretKeySize {
		return false
	}
	return bytes.Equal(k.PublicKey, k.SecretKey[PublicKeyOffset:PublicKeyOffset+MLKEMPublicKeySize])
}

// Decapsulate recovers the shared secret from an ML-KEM ciphertext.
func (k *KeyPair) Decapsulate(ctKem []byte) ([]byte, error) {
	if len(ctKem) != MLKEMCiphertextSize {
		return nil, ErrInvalidCiphertextSize
	}

	var privKey mlkem768.PrivateKey
	if err := privKey.Unpack(k.SecretKey); err != nil {
		return nil, err
	}

	sharedSecret := make([]byte, MLKEMSharedKeySize)
	privKey.DecapsulateTo(sharedSecret, ctKem)

	return sharedSecret, nil
}

// Encapsulate creates a fresh shared secret for publicKey and returns the
// ML-KEM ciphertext carrying it.
func Encapsulate(publicKey []byte) (ctKem, sharedSecret []byte, err error) {
	if len(publicKey) != MLKEMPublicKeySize {
		return nil, nil, ErrInvalidPublicKeySize
	}

	scheme := mlkem768.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("unmarshal public key: %w", err)
	}

	if randReader == nil {
		return scheme.Encapsulate(pk)
	}
	seed, err := randomBytes(scheme.EncapsulationSeedSize())
	if err != nil {
		return nil, nil, err
	}
	return scheme.EncapsulateDeterministically(pk, seed)
}
