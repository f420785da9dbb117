package secrecy

// Scope binds a ciphertext to the identifiers it belongs to.
// It is used as AAD (Additional Authenticated Data) in AES-GCM.
type Scope struct {
	// UserID is the owning user identifier.
	UserID int64
	// Reason is the token reason the secret was issued for.
	Reason string
}
