package memzero_test

import (
	"testing"

	"nexus/internal/util/memzero"
)

func TestZero_ClearsEveryByte(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	memzero.Zero(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d = %d, want 0", i, v)
		}
	}
}

func TestZero_EmptyAndNil(t *testing.T) {
	memzero.Zero(nil)
	memzero.Zero([]byte{})
}
