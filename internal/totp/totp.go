// Package totp implements the time-based one-time password second factor:
// 6-digit SHA1 codes over 30-second steps, verified with one step of clock
// tolerance either way.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	Step   = 30 * time.Second
	Digits = 6

	secretSize = 20 // 160-bit shared secret
	skewSteps  = 1
)

// GenerateSecret returns a fresh random base32 secret for enrollment. The
// secret lives inside the vault's config section, never beside it.
func GenerateSecret() (string, error) {
	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// Verify reports whether code matches the secret at the given time,
// accepting one step of skew in either direction.
func Verify(secret, code string, when time.Time) bool {
	code = strings.TrimSpace(code)
	if len(code) != Digits {
		return false
	}
	key, err := decodeSecret(secret)
	if err != nil {
		return false
	}
	defer zero(key)

	counter := when.Unix() / int64(Step/time.Second)
	for i := int64(-skewSteps); i <= skewSteps; i++ {
		cur := counter + i
		if cur < 0 {
			continue
		}
		if hotp(key, uint64(cur)) == code {
			return true
		}
	}
	return false
}

// Code returns the current code for a secret. Used during enrollment to
// confirm the authenticator was configured correctly.
func Code(secret string, when time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	defer zero(key)
	counter := when.Unix() / int64(Step/time.Second)
	return hotp(key, uint64(counter)), nil
}

// ProvisionURI builds the otpauth:// enrollment URI consumed by
// authenticator apps.
func ProvisionURI(account, issuer, secret string) string {
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", Digits))
	q.Set("period", fmt.Sprintf("%d", int(Step/time.Second)))
	label := url.PathEscape(issuer) + ":" + url.PathEscape(account)
	return "otpauth://totp/" + label + "?" + q.Encode()
}

func hotp(key []byte, counter uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0F
	trunc := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7FFFFFFF
	return fmt.Sprintf("%0*d", Digits, trunc%1000000)
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
