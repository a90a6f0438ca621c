// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher hashes and verifies passwords. Stored hashes are self-describing,
// so verification never needs externally stored parameters.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Verify reports whether password matches storedHash. A mismatch is (false, nil);
	// a structurally invalid storedHash is ErrInternal.
	Verify(password, storedHash string) (bool, error)

	// NeedsRehash reports whether storedHash was produced with other parameters than
	// the ones Hash currently uses.
	NeedsRehash(storedHash string) (bool, error)
}
