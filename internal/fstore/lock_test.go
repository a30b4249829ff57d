package fstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLock_BasicAcquireRelease(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "store.json")

	lock, err := Acquire(testFile)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	lockPath := testFile + ".lock"
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Errorf("Lock file was not created")
	}

	if err := lock.Release(); err != nil {
		t.Errorf("Failed to release lock: %v", err)
	}

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("Lock file was not removed after release")
	}
}

func TestLock_ConcurrentAccess(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "store.json")

	const goroutines = 10
	const iterations = 5

	var (
		successCount atomic.Int32
		wg           sync.WaitGroup
	)

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()

			for j := 0; j < iterations; j++ {
				lock, err := Acquire(testFile)
				if err != nil {
					t.Errorf("Goroutine %d iteration %d: Failed to acquire lock: %v", id, j, err)
					return
				}

				// Simulate work while holding lock
				time.Sleep(10 * time.Millisecond)
				successCount.Add(1)

				if err := lock.Release(); err != nil {
					t.Errorf("Goroutine %d iteration %d: Failed to release lock: %v", id, j, err)
					return
				}
			}
		}(i)
	}

	wg.Wait()

	expected := int32(goroutines * iterations)
	if successCount.Load() != expected {
		t.Errorf("Expected %d successful operations, got %d", expected, successCount.Load())
	}

	lockPath := testFile + ".lock"
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("Lock file still exists after all goroutines finished")
	}
}

func TestLock_StaleLockCleanup(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "store.json")
	lockPath := testFile + ".lock"

	staleLock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("Failed to create stale lock: %v", err)
	}
	staleLock.Close()

	// Past the 30-second staleness threshold
	staleTime := time.Now().Add(-35 * time.Second)
	if err := os.Chtimes(lockPath, staleTime, staleTime); err != nil {
		t.Fatalf("Failed to set stale lock time: %v", err)
	}

	lock, err := Acquire(testFile)
	if err != nil {
		t.Fatalf("Failed to acquire lock after stale lock: %v", err)
	}
	defer lock.Release()

	if lock.file == nil {
		t.Errorf("Lock file handle is nil")
	}
}

func TestLock_BlockedByActiveLock(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "store.json")

	lock1, err := Acquire(testFile)
	if err != nil {
		t.Fatalf("Failed to acquire first lock: %v", err)
	}
	defer lock1.Release()

	errChan := make(chan error, 1)
	go func() {
		lock2, err := Acquire(testFile)
		if err != nil {
			errChan <- err
			return
		}
		lock2.Release()
		errChan <- nil
	}()

	// Give the second goroutine time to start blocking
	time.Sleep(200 * time.Millisecond)

	select {
	case <-errChan:
		t.Errorf("Second lock acquired while first lock was active")
	default:
		// Expected: still blocked
	}

	lock1.Release()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Second lock failed after first lock released: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Errorf("Second lock timed out after first lock released")
	}
}

func TestWriteAtomic_ReplacesWholeDocument(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "store.json")

	if err := WriteAtomic(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := WriteAtomic(path, []byte(`{"b":2}`)); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}

	var doc map[string]int
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse written file: %v", err)
	}
	if _, ok := doc["a"]; ok {
		t.Errorf("Old document contents survived the replace")
	}
	if doc["b"] != 2 {
		t.Errorf("Expected b=2, got %v", doc)
	}

	// No temp file left behind
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file still exists after write")
	}
}
