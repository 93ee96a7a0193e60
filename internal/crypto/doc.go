// Package crypto provides the primitives behind entity encryption.
//
// # Algorithm Suite
//
//   - AES-256-GCM: encryption of field values under an entity's session key,
//     and wrapping of session keys under a group key.
//
//   - ML-KEM-768 (NIST FIPS 203): post-quantum key encapsulation for session
//     keys addressed to a group's public key.
//
//   - HKDF-SHA-512 (RFC 5869): derivation of the AES key protecting an
//     encapsulated session key from the ML-KEM shared secret.
//
// # Ciphertext Layout
//
// Every AES-GCM ciphertext is nonce (12 bytes) || ciphertext || tag (16 bytes).
// Values, wrapped keys and encapsulated keys each bind their own additional
// data, so one kind cannot be decrypted as another. An encapsulated key is
// the ML-KEM ciphertext (1088 bytes) followed by such an AES-GCM ciphertext.
//
// AES-GCM nonces MUST be unique for each encryption with the same key.
// [EncryptValue], [EncryptKey] and [EncapsulateKey] draw a fresh random nonce
// on every call.
//
// # Key Management
//
// Use [GenerateKey] for session and group keys and [GenerateKeyPair] for
// ML-KEM-768 key pairs. The secret key contains an embedded copy of the
// public key at offset 1152, which [KeyPairFromSecretKey] extracts.
//
// Keys should never be logged, transmitted in plaintext, or stored in
// version control.
package crypto
