package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestComputeHash(t *testing.T) {
	// Create temp file with known content
	tmpDir := t.TempDir()
	file1 := filepath.Join(tmpDir, "test1.txt")
	file2 := filepath.Join(tmpDir, "test2.txt")
	file3 := filepath.Join(tmpDir, "test1_copy.txt")

	os.WriteFile(file1, []byte("Hello, World!"), 0644)
	os.WriteFile(file2, []byte("Different content"), 0644)
	os.WriteFile(file3, []byte("Hello, World!"), 0644) // Same as file1

	hash1, err := ComputeHash(file1)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}

	hash2, err := ComputeHash(file2)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}

	hash3, err := ComputeHash(file3)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}

	// Same content = same hash
	if hash1 != hash3 {
		t.Errorf("Same content should produce same hash: %s != %s", hash1, hash3)
	}

	// Different content = different hash
	if hash1 == hash2 {
		t.Errorf("Different content should produce different hash")
	}

	// Hash should be 32 hex chars
	if len(hash1) != 32 {
		t.Errorf("Hash should be 32 chars, got %d", len(hash1))
	}
}

func TestComputeHashSmallFile(t *testing.T) {
	tmpDir := t.TempDir()
	smallFile := filepath.Join(tmpDir, "small.txt")
	os.WriteFile(smallFile, []byte("tiny"), 0644)

	hash, err := ComputeHash(smallFile)
	if err != nil {
		t.Fatalf("ComputeHash failed on small file: %v", err)
	}

	if len(hash) != 32 {
		t.Errorf("Hash should be 32 chars even for small files, got %d", len(hash))
	}
}

func TestStore(t *testing.T) {
	// Use temp directory for state
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if want := filepath.Join(tmpDir, "prr", stateFileName); store.Path() != want {
		t.Errorf("Path() = %s, want %s", store.Path(), want)
	}

	testHash := "abcdef1234567890abcdef1234567890"

	// Location returns 0 for unknown hash
	if pos := store.Location(testHash); pos != 0 {
		t.Errorf("Expected 0 for unknown hash, got %d", pos)
	}
	if _, ok := store.Get(testHash); ok {
		t.Error("Get reported state for unknown hash")
	}

	// Set/Get roundtrip
	if err := store.Set(testHash, 1234, "Chapter 3"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	st, ok := store.Get(testHash)
	if !ok || st.Location != 1234 || st.Chapter != "Chapter 3" {
		t.Errorf("Get = %+v, %v", st, ok)
	}
	if st.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}

	// Clear removes entry
	if err := store.Clear(testHash); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if pos := store.Location(testHash); pos != 0 {
		t.Errorf("Expected 0 after clear, got %d", pos)
	}
}

func TestStorePersistence(t *testing.T) {
	tmpDir := t.TempDir()

	testHash := "abcdef1234567890abcdef1234567890"

	// Create store and set position
	store1, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store1.Set(testHash, 5678, "")

	// Create new store instance - should load persisted data
	store2, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if pos := store2.Location(testHash); pos != 5678 {
		t.Errorf("Expected 5678 from persisted state, got %d", pos)
	}
}

func TestStoreCorruptFile(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, stateFileName), []byte("{not json"), 0644)

	store, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := store.Get("anything"); ok {
		t.Error("corrupt state should start empty")
	}
	if err := store.Set("anything", 1, ""); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
}
