package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *FileTokenStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	return NewFileTokenStore(path, zerolog.Nop())
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := TokenPair{Access: "access-token", Refresh: "refresh-token"}
	if err := store.Set(ctx, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected tokens, got nil")
	}
	if *got != want {
		t.Errorf("Expected %+v, got %+v", want, *got)
	}
}

func TestFileTokenStore_MissingFile(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing file, got %+v", got)
	}
}

func TestFileTokenStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}
	store := NewFileTokenStore(path, zerolog.Nop())

	got, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for corrupt file, got %+v", got)
	}
}

func TestFileTokenStore_Clear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, TokenPair{Access: "a", Refresh: "r"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get after Clear failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil after Clear, got %+v", got)
	}

	// Clearing an already-empty store is not an error
	if err := store.Clear(ctx); err != nil {
		t.Errorf("Second Clear failed: %v", err)
	}
}

func TestFileTokenStore_ConcurrentWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const goroutines = 10
	var wg sync.WaitGroup

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			pair := TokenPair{
				Access:  fmt.Sprintf("access-%d", id),
				Refresh: fmt.Sprintf("refresh-%d", id),
			}
			if err := store.Set(ctx, pair); err != nil {
				t.Errorf("Goroutine %d: Set failed: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	// Whichever write won, the file must be a complete valid document
	data, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatalf("Failed to read token file: %v", err)
	}
	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		t.Fatalf("Token file is not valid JSON after concurrent writes: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Errorf("Token file incomplete after concurrent writes: %+v", pair)
	}

	// Verify no lock files remain
	lockPath := store.path + ".lock"
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("Lock file still exists after all saves completed")
	}
}
