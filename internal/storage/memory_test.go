package storage

import (
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	s, err := NewMemoryStorage(Config{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory storage: %v", err)
	}
	defer s.Close()

	runStorageContract(t, s)
}
