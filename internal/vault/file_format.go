package vault

import (
	"encoding/json"
	"fmt"

	cr "github.com/PyPartners/MindVault/internal/crypto"
)

// On-disk layout: salt(16) || nonce(12) || ciphertext || tag(16), where the
// ciphertext is the JSON-encoded Document under AES-256-GCM with a key
// derived from (master password, salt). No magic number or version byte;
// vaults written by older releases stay readable.

const blobMinSize = cr.SaltSize + cr.NonceSize

// EncodeBlob serializes and encrypts a document under the master password.
// A fresh salt is drawn on every call, so two saves of the same document
// never share key material.
func EncodeBlob(doc *Document, master []byte) ([]byte, error) {
	salt, err := cr.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	key := cr.DeriveKey(master, salt)
	defer cr.Zero32(&key)

	pt, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	defer cr.Zero(pt)

	sealed, err := cr.Seal(key, pt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	out := make([]byte, 0, len(salt)+len(sealed))
	out = append(out, salt...)
	out = append(out, sealed...)
	return out, nil
}

// DecodeBlob decrypts and deserializes a vault blob. Every failure mode —
// short blob, wrong password, flipped bit, malformed JSON — collapses into
// ErrAuthentication so callers cannot build a corruption oracle.
func DecodeBlob(blob, master []byte) (*Document, error) {
	if len(blob) < blobMinSize {
		return nil, ErrAuthentication
	}
	salt := blob[:cr.SaltSize]
	sealed := blob[cr.SaltSize:]

	key := cr.DeriveKey(master, salt)
	defer cr.Zero32(&key)

	pt, err := cr.Open(key, sealed)
	if err != nil {
		return nil, ErrAuthentication
	}
	defer cr.Zero(pt)

	var doc Document
	if err := json.Unmarshal(pt, &doc); err != nil {
		return nil, ErrAuthentication
	}
	doc.normalize()
	return &doc, nil
}
