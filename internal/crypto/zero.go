package crypto

// Zero overwrites a byte slice in memory with zeros. Best effort: the Go
// runtime may have copied the data elsewhere before this runs.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Zero32 wipes a fixed-size key array in place.
func Zero32(k *[KeySize]byte) {
	for i := range k {
		k[i] = 0
	}
}
