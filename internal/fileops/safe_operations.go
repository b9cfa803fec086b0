// file: internal/fileops/safe_operations.go
// version: 1.1.0
// guid: 8f7e6d5c-4b3a-2918-7f6e-5d4c3b2a1908

package fileops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SafeCopy copies src to dst, creating parent directories as needed and
// syncing the destination before returning.
func SafeCopy(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to sync destination file: %w", err)
	}
	return nil
}

// SafeMove renames src to dst, falling back to copy+remove when the rename
// crosses filesystems.
func SafeMove(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Cross-device rename fails; copy then remove.
	if err := SafeCopy(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove source after copy: %w", err)
	}
	return nil
}

// SafeReplace atomically swaps dst with replacement, keeping a backup of dst
// until the swap succeeds. On any failure the original dst is left in place.
func SafeReplace(dst, replacement string) error {
	backupPath := dst + ".backup"
	if err := SafeCopy(dst, backupPath); err != nil {
		return fmt.Errorf("failed to back up original: %w", err)
	}

	if err := os.Rename(replacement, dst); err != nil {
		if copyErr := SafeCopy(replacement, dst); copyErr != nil {
			// Restore the original before surfacing the failure.
			_ = SafeCopy(backupPath, dst)
			_ = os.Remove(backupPath)
			return fmt.Errorf("failed to replace file: %w", copyErr)
		}
		_ = os.Remove(replacement)
	}

	_ = os.Remove(backupPath)
	return nil
}
