package vault

import (
	"errors"
	"testing"
)

func TestValidateMasterPassword(t *testing.T) {
	if err := ValidateMasterPassword([]byte("1234567")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for 7 chars, got %v", err)
	}
	if err := ValidateMasterPassword([]byte("12345678")); err != nil {
		t.Fatalf("expected 8 chars to pass, got %v", err)
	}
}

func TestCheckStrength(t *testing.T) {
	cases := []struct {
		pw   string
		want Strength
	}{
		{"", StrengthVeryWeak},
		{"abc", StrengthVeryWeak},
		{"abcdefgh", StrengthVeryWeak},
		{"abcdefg1", StrengthWeak},
		{"Abcdefg1", StrengthMedium},
		{"Abcdefg1!", StrengthStrong},
		{"CorrectHorse1!", StrengthStrong},
	}
	for _, c := range cases {
		if got := CheckStrength(c.pw); got != c.want {
			t.Fatalf("CheckStrength(%q) = %v, want %v", c.pw, got, c.want)
		}
	}
}

func TestStrengthLabels(t *testing.T) {
	if StrengthStrong.String() != "strong" || StrengthVeryWeak.String() != "very weak" {
		t.Fatal("unexpected strength labels")
	}
}
