package crypto

import (
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the on-disk salt length in bytes.
	SaltSize = 16
	// KeySize is the derived symmetric key length (AES-256).
	KeySize = 32

	// Tunable work factor. Changing it breaks nothing at the format level:
	// the key is re-derived from the stored salt on every open.
	pbkdf2Iterations = 390000
)

// NewSalt returns a fresh random salt. A new one is drawn for every save so
// the same master password never maps to the same key twice on disk.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey stretches a master password into a 256-bit key with
// PBKDF2-HMAC-SHA256. Deterministic over (password, salt); the intermediate
// slice is wiped before returning.
func DeriveKey(password, salt []byte) (key [KeySize]byte) {
	k := pbkdf2.Key(password, salt, pbkdf2Iterations, KeySize, sha256.New)
	copy(key[:], k)
	Zero(k)
	return
}
