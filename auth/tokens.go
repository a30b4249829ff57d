// Package auth implements the authentication core: durable token storage,
// token refresh, the auth API service, an authenticated request client with
// refresh-once-and-retry on 401, and the session controller that owns the
// in-memory authentication state.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/rs/zerolog"

	"github.com/moviedex/movies-cli/internal/fstore"
)

// TokenPair is the access/refresh bearer credential pair issued by the auth
// server. It is an immutable value: a refresh replaces the whole pair, fields
// are never mutated in place.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenStore persists a single TokenPair, the durable projection of the
// session. Get reports absent or unreadable data as no session; only real
// I/O failures are errors.
type TokenStore interface {
	Get(ctx context.Context) (*TokenPair, error)
	Set(ctx context.Context, tokens TokenPair) error
	Clear(ctx context.Context) error
}

// FileTokenStore keeps the token pair as a JSON document on disk, written
// atomically under a cross-process lock file.
type FileTokenStore struct {
	path string
	log  zerolog.Logger
}

// NewFileTokenStore creates a token store backed by the file at path.
func NewFileTokenStore(path string, log zerolog.Logger) *FileTokenStore {
	return &FileTokenStore{path: path, log: log}
}

// Get loads the stored token pair. A missing file or corrupt JSON is "no
// session", not an error.
func (s *FileTokenStore) Get(ctx context.Context) (*TokenPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("corrupt token file, treating as no session")
		return nil, nil
	}
	if pair.Access == "" && pair.Refresh == "" {
		return nil, nil
	}

	return &pair, nil
}

// Set replaces the stored token pair.
func (s *FileTokenStore) Set(ctx context.Context, tokens TokenPair) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	lock, err := fstore.Acquire(s.path)
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			s.log.Warn().Err(releaseErr).Msg("failed to release token file lock")
		}
	}()

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	if err := fstore.WriteAtomic(s.path, data); err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	return nil
}

// Clear removes the stored token pair. Clearing an already-empty store is
// not an error.
func (s *FileTokenStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}

	lock, err := fstore.Acquire(s.path)
	if err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			s.log.Warn().Err(releaseErr).Msg("failed to release token file lock")
		}
	}()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Op: "clear", Err: err}
	}

	return nil
}
