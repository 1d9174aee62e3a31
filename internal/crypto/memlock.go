//go:build linux || darwin

package crypto

import "golang.org/x/sys/unix"

// LockBuffer pins a sensitive buffer into RAM so it cannot be swapped to
// disk. Callers treat failure as advisory (RLIMIT_MEMLOCK may be 0).
func LockBuffer(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Mlock(b)
}

// UnlockBuffer releases a buffer pinned by LockBuffer.
func UnlockBuffer(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munlock(b)
}
