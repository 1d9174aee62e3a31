package vault

import (
	"fmt"
	"os"
)

// Backup copies the vault file byte-for-byte to dst, preserving the file
// mode and modification time. The blob stays encrypted; no key material is
// involved.
func (s *FileStore) Backup(dst string) error {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return ErrVaultNotFound
	}
	if err != nil {
		return fmt.Errorf("vault: stat vault file: %w", err)
	}
	blob, err := s.Read()
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, blob, info.Mode().Perm()); err != nil {
		return fmt.Errorf("vault: write backup: %w", err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("vault: preserve backup mtime: %w", err)
	}
	return nil
}

// Restore copies src byte-for-byte over the vault path via the atomic write
// path. The restored vault's key material is unknown until someone
// authenticates again, so callers must force a lock/relogin afterwards.
func (s *FileStore) Restore(src string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("vault: stat backup: %w", err)
	}
	blob, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("vault: read backup: %w", err)
	}
	if err := s.Write(blob); err != nil {
		return err
	}
	if err := os.Chtimes(s.path, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("vault: preserve vault mtime: %w", err)
	}
	return nil
}
