//go:build !linux && !darwin

package crypto

// No mlock equivalent is wired on this platform; locking is advisory anyway.

func LockBuffer(b []byte) error   { return nil }
func UnlockBuffer(b []byte) error { return nil }
