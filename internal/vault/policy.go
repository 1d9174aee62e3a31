package vault

import (
	"fmt"
	"unicode"
)

// MinMasterPasswordLen is the setup-time policy floor. The KDF itself
// accepts anything; this gate lives above it.
const MinMasterPasswordLen = 8

// Strength is a UI-facing label, not an invariant: a weak-but-long-enough
// master password is still accepted.
type Strength int

const (
	StrengthVeryWeak Strength = iota
	StrengthWeak
	StrengthMedium
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthMedium:
		return "medium"
	case StrengthStrong:
		return "strong"
	default:
		return "very weak"
	}
}

// CheckStrength scores a password on length and character-class coverage.
func CheckStrength(password string) Strength {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	score := 0
	if len(password) >= 8 {
		score++
	}
	if len(password) >= 12 {
		score++
	}
	if hasUpper && hasLower {
		score++
	}
	if hasDigit {
		score++
	}
	if hasSymbol {
		score++
	}

	switch {
	case score >= 4:
		return StrengthStrong
	case score == 3:
		return StrengthMedium
	case score == 2:
		return StrengthWeak
	default:
		return StrengthVeryWeak
	}
}

// ValidateMasterPassword enforces the setup-time length policy.
func ValidateMasterPassword(master []byte) error {
	if len(master) < MinMasterPasswordLen {
		return fmt.Errorf("%w: master password must be at least %d characters",
			ErrValidation, MinMasterPasswordLen)
	}
	return nil
}
