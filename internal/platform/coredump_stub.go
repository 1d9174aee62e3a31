//go:build !linux && !darwin

package platform

// No core-dump limit to set on this platform.
func DisableCoreDumps() error { return nil }
