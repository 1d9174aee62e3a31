//go:build linux || darwin

// Package platform holds OS-level hardening used at process startup.
package platform

import "golang.org/x/sys/unix"

// DisableCoreDumps sets RLIMIT_CORE to zero so a crash never writes
// decrypted vault memory to disk.
func DisableCoreDumps() error {
	rlim := unix.Rlimit{Cur: 0, Max: 0}
	return unix.Setrlimit(unix.RLIMIT_CORE, &rlim)
}
