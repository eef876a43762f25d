// BYZRA ⸻ internal/util/security.go
// overwrite-before-delete for backups and originals

package util

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
)

// overwrites a file three times before deletion
// helps prevent data recovery of the pre-clean bytes
func SecureOverwriteFile(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file for secure overwrite: %w", err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("refusing to overwrite a directory: %s", path)
	}

	size := fileInfo.Size()

	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open file for secure overwrite: %w", err)
	}

	if err := overwritePasses(file, size); err != nil {
		file.Close()
		return err
	}

	// close before deletion
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file after secure overwrite: %w", err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove file after secure overwrite: %w", err)
	}

	return nil
}

// zeros, ones, random
func overwritePasses(file *os.File, size int64) error {
	if err := overwriteWithPattern(file, size, 0x00); err != nil {
		return err
	}
	if err := overwriteWithPattern(file, size, 0xFF); err != nil {
		return err
	}
	if err := overwriteWithRandom(file, size); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync during secure overwrite: %w", err)
	}
	return nil
}

const maxBufSize int64 = 1024 * 1024 // 1MB

// overwrites a file with a specific byte pattern
func overwriteWithPattern(file *os.File, size int64, pattern byte) error {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to beginning: %w", err)
	}

	bufSize := min(size, maxBufSize)
	buf := make([]byte, bufSize)
	for i := range buf {
		buf[i] = pattern
	}

	remaining := size
	for remaining > 0 {
		writeSize := min(remaining, bufSize)

		if _, err := file.Write(buf[:writeSize]); err != nil {
			return fmt.Errorf("failed to write pattern: %w", err)
		}

		remaining -= writeSize
	}

	return nil
}

// overwrites a file with random data
func overwriteWithRandom(file *os.File, size int64) error {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to beginning: %w", err)
	}

	bufSize := min(size, maxBufSize)
	buf := make([]byte, bufSize)

	remaining := size
	for remaining > 0 {
		writeSize := min(remaining, bufSize)

		if _, err := io.ReadFull(rand.Reader, buf[:writeSize]); err != nil {
			return fmt.Errorf("failed to generate random data: %w", err)
		}

		if _, err := file.Write(buf[:writeSize]); err != nil {
			return fmt.Errorf("failed to write random data: %w", err)
		}

		remaining -= writeSize
	}

	return nil
}
