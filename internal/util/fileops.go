// BYZRA ⸻ internal/util/fileops.go
// file operation utilities

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	BackupSuffix = ".bak"
	CleanSuffix  = ".clean"
)

// copies a file with integrity verification
func SafeCopy(src, dst string) error {
	return copyFile(src, dst, os.O_TRUNC)
}

// excl: os.O_TRUNC replaces dst, os.O_EXCL fails when dst exists and
// removes the half-written dst on failure
func copyFile(src, dst string, excl int) (err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	// destination file
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|excl, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	if excl == os.O_EXCL {
		defer func() {
			if err != nil {
				os.Remove(dst)
			}
		}()
	}
	defer dstFile.Close()

	// copy contents
	if _, err = io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	// sync to ensure writes are flushed
	if err = dstFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync destination file: %w", err)
	}

	// verify integrity
	if err = verifyFileIntegrity(src, dst); err != nil {
		return err
	}

	return nil
}

// WriteFileAtomic replaces path with data through a temp file in the same
// directory. An existing file keeps its mode; on any failure it is untouched.
func WriteFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("path is a directory, expected a file: %s", path)
		}
		// rename would bypass the file's own permissions
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("file is not writable: %w", err)
		}
		f.Close()
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}

	return nil
}

// a taken <name>.bak is never reused; the next free <name>.<n>.bak is
const maxBackupNames = 100

// CreateBackup copies path to a backup file that did not exist before the
// call, so removing it later can only ever remove our own copy.
func CreateBackup(path string) (string, error) {
	for n := 0; n < maxBackupNames; n++ {
		backupPath := path + BackupSuffix
		if n > 0 {
			backupPath = fmt.Sprintf("%s.%d%s", path, n, BackupSuffix)
		}

		err := copyFile(path, backupPath, os.O_EXCL)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create backup: %w", err)
		}
		return backupPath, nil
	}

	return "", fmt.Errorf("failed to create backup: no free backup name for %s", path)
}

// puts the backup contents back at originalPath
func RestoreBackup(backupPath, originalPath string) error {
	if !strings.HasSuffix(backupPath, BackupSuffix) {
		return fmt.Errorf("invalid backup path: %s", backupPath)
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	if err := WriteFileAtomic(originalPath, data); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}

	return nil
}

// creates the output path with clean suffix
func GenerateOutputPath(path string) string {
	ext := filepath.Ext(path)
	basePath := strings.TrimSuffix(path, ext)
	return basePath + CleanSuffix + ext
}

// readable and writable regular file
func ValidatePath(path string) error {
	if err := ValidateReadable(path); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("file is not writable: %w", err)
	}
	file.Close()

	return nil
}

func ValidateReadable(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, expected a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file is not readable: %w", err)
	}
	file.Close()

	return nil
}

// deletes a file safely
func RemoveFile(path string) error {
	return os.Remove(path)
}

// checks if two files have the same content using SHA-256
func verifyFileIntegrity(file1, file2 string) error {
	hash1, err := FileSHA256(file1)
	if err != nil {
		return err
	}

	hash2, err := FileSHA256(file2)
	if err != nil {
		return err
	}

	if hash1 != hash2 {
		return fmt.Errorf("integrity verification failed: file checksums don't match")
	}

	return nil
}

// computes the SHA-256 hash of a file
func FileSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate file hash: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
