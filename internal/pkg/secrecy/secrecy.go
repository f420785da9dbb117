// Package secrecy protects OTP shared secrets at rest.
//
// Secrets are sealed with AES-256-GCM and bound to the owning user and token
// reason via AAD, so a ciphertext lifted from one row cannot be decrypted in
// the context of another.
package secrecy

// Encryptor defines the interface for encrypting/decrypting.
type Encryptor interface {
	// Encrypt returns ciphertext for the given plaintext and scope.
	Encrypt(plaintext []byte, scope Scope) (ciphertext []byte, err error)
	// Decrypt returns plaintext for the given ciphertext and scope.
	Decrypt(ciphertext []byte, scope Scope) (plaintext []byte, err error)
}

// KeyProvider provides raw AES keys.
// For AES-256-GCM, keys must be 32 bytes.
type KeyProvider interface {
	// Key returns the raw AES key to use for this scope.
	// Implementations may return per-tenant or per-environment keys.
	Key(scope Scope) ([]byte, error)
}
