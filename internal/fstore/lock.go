// Package fstore provides the on-disk primitives shared by the durable
// stores: a lock file guarding cross-process access and an atomic
// write-then-rename file update.
package fstore

import (
	"fmt"
	"os"
	"time"
)

const (
	lockRetries    = 50
	lockRetryDelay = 100 * time.Millisecond
	lockStaleAfter = 30 * time.Second
)

// Lock is a held lock on a store file.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive lock for the given store file. A separate
// ".lock" file coordinates access across processes; locks older than 30
// seconds are considered abandoned and reaped.
func Acquire(filePath string) (*Lock, error) {
	lockPath := filePath + ".lock"

	for i := 0; i < lockRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			// PID in the lock file for debugging
			fmt.Fprintf(f, "%d", os.Getpid())
			return &Lock{file: f, path: lockPath}, nil
		}

		if os.IsExist(err) {
			if info, statErr := os.Stat(lockPath); statErr == nil {
				if time.Since(info.ModTime()) > lockStaleAfter {
					if remErr := os.Remove(lockPath); remErr != nil && !os.IsNotExist(remErr) {
						return nil, fmt.Errorf(
							"failed to remove stale lock file %s: %w",
							lockPath,
							remErr,
						)
					}
					continue
				}
			}

			// Held by another process, wait and retry
			time.Sleep(lockRetryDelay)
			continue
		}

		return nil, fmt.Errorf("failed to acquire file lock: %w", err)
	}

	return nil, fmt.Errorf(
		"timeout waiting for file lock after %v",
		time.Duration(lockRetries)*lockRetryDelay,
	)
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
	}
	return os.Remove(l.path)
}

// WriteAtomic replaces the file at path with data, writing to a temp file
// first and renaming it over the original so readers never see a partial
// document.
func WriteAtomic(path string, data []byte) error {
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		if removeErr := os.Remove(tempFile); removeErr != nil {
			return fmt.Errorf(
				"failed to rename temp file: %v; additionally failed to remove temp file: %w",
				err,
				removeErr,
			)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
