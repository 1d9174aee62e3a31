package vault

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	cr "github.com/PyPartners/MindVault/internal/crypto"
)

func testDocument() *Document {
	doc := NewDocument()
	doc.Accounts = append(doc.Accounts,
		Record{ID: "a", Site: "example.com", Username: "me", Password: "p@ss", Notes: "hi"},
		Record{ID: "b", Site: "other.org", Username: "you", Password: "x", Notes: ""},
	)
	doc.Config[ConfigTwoFactorSecret] = "GEZDGNBVGY3TQOJQ"
	return doc
}

func TestBlobRoundTrip(t *testing.T) {
	doc := testDocument()
	master := []byte("CorrectHorse1!")
	blob, err := EncodeBlob(doc, master)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBlob(blob, master)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(doc, got) {
		t.Fatalf("document mismatch:\n got %+v\nwant %+v", got, doc)
	}
}

func TestBlobWrongPassword(t *testing.T) {
	blob, err := EncodeBlob(testDocument(), []byte("CorrectHorse1!"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeBlob(blob, []byte("wrongpass")); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestBlobTamper(t *testing.T) {
	master := []byte("CorrectHorse1!")
	blob, err := EncodeBlob(testDocument(), master)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// One byte from each region: salt, nonce, ciphertext, tag.
	for _, idx := range []int{0, cr.SaltSize, blobMinSize + 1, len(blob) - 1} {
		mut := append([]byte(nil), blob...)
		mut[idx] ^= 0x01
		if _, err := DecodeBlob(mut, master); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("flip at %d: expected ErrAuthentication, got %v", idx, err)
		}
	}
}

func TestBlobTooShort(t *testing.T) {
	for _, n := range []int{0, 1, blobMinSize - 1} {
		if _, err := DecodeBlob(make([]byte, n), []byte("pw")); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("len %d: expected ErrAuthentication, got %v", n, err)
		}
	}
}

func TestBlobFreshSaltAndNonce(t *testing.T) {
	doc := testDocument()
	master := []byte("CorrectHorse1!")
	b1, err := EncodeBlob(doc, master)
	if err != nil {
		t.Fatalf("encode1: %v", err)
	}
	b2, err := EncodeBlob(doc, master)
	if err != nil {
		t.Fatalf("encode2: %v", err)
	}
	if bytes.Equal(b1[:cr.SaltSize], b2[:cr.SaltSize]) {
		t.Fatal("expected distinct salts across saves")
	}
	if bytes.Equal(b1[cr.SaltSize:blobMinSize], b2[cr.SaltSize:blobMinSize]) {
		t.Fatal("expected distinct nonces across saves")
	}
}

func TestDecodeNormalizesMissingContainers(t *testing.T) {
	// A bare "{}" document must come back with empty accounts and config,
	// not nils.
	master := []byte("CorrectHorse1!")
	salt, err := cr.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	key := cr.DeriveKey(master, salt)
	sealed, err := cr.Seal(key, []byte("{}"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	blob := append(append([]byte(nil), salt...), sealed...)

	doc, err := DecodeBlob(blob, master)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Accounts == nil || len(doc.Accounts) != 0 {
		t.Fatalf("expected empty accounts, got %#v", doc.Accounts)
	}
	if doc.Config == nil || len(doc.Config) != 0 {
		t.Fatalf("expected empty config, got %#v", doc.Config)
	}
}
