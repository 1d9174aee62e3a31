package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

const (
	// NonceSize is the standard 96-bit GCM nonce length.
	NonceSize = 12
	// TagSize is the GCM authentication tag length appended to the ciphertext.
	TagSize = 16
)

// ErrAuthentication is the single failure signal for Open: wrong key,
// flipped bits and truncated input all look identical to the caller, so a
// decryption oracle cannot tell "wrong password" from "tampered data".
var ErrAuthentication = errors.New("crypto: message authentication failed")

// Seal encrypts plaintext under key with AES-256-GCM and a fresh random
// nonce. The returned layout is nonce || ciphertext || tag.
func Seal(key [KeySize]byte, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, NonceSize+len(plaintext)+TagSize)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Open reverses Seal. Any failure collapses into ErrAuthentication.
func Open(key [KeySize]byte, sealed []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < NonceSize+TagSize {
		return nil, ErrAuthentication
	}
	nonce := sealed[:NonceSize]
	ct := sealed[NonceSize:]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return pt, nil
}

func newGCM(key [KeySize]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
