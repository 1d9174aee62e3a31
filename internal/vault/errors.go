package vault

import "errors"

var (
	// ErrValidation marks caller-supplied data that violates a precondition
	// (empty required field, master password too short). Re-prompt and retry.
	ErrValidation = errors.New("vault: validation failed")

	// ErrAuthentication covers both a wrong master password and a
	// corrupted or tampered vault file. The two cases are deliberately
	// indistinguishable.
	ErrAuthentication = errors.New("vault: wrong master password or corrupt vault")

	// ErrEncryption marks a failed AEAD seal. Near-impossible with a
	// well-formed key; the triggering mutation is aborted and rolled back.
	ErrEncryption = errors.New("vault: encryption failed")

	// ErrVaultNotFound means no vault file exists at the store's path.
	ErrVaultNotFound = errors.New("vault: vault file not found")

	// ErrRecordNotFound means the referenced record id does not exist.
	ErrRecordNotFound = errors.New("vault: record not found")
)
