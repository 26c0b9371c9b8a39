package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testTime is a fixed timestamp with millisecond precision.
var testTime = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
