package security

import (
	"strings"
	"testing"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4)
	password := []byte("Secret123!")
	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" {
		t.Fatal("Hash returned empty")
	}
	if err := h.Compare(hash, password); err != nil {
		t.Fatalf("Compare: %v", err)
	}
}

func TestHasher_CompareWrongPassword(t *testing.T) {
	h := NewHasher(4)
	hash, _ := h.Hash([]byte("Secret123!"))
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Fatal("Compare with wrong password should fail")
	}
}

func TestHasher_Cost(t *testing.T) {
	h := NewHasher(12)
	if h.Cost != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost)
	}
	h0 := NewHasher(0)
	if h0.Cost < 4 {
		t.Errorf("zero cost should be clamped to at least MinCost, got %d", h0.Cost)
	}
}

func TestHasher_LongPasswordRejected(t *testing.T) {
	h := NewHasher(4)
	long := strings.Repeat("a", MaxPasswordBytes+1)
	if _, err := h.Hash([]byte(long)); err != ErrPasswordTooLong {
		t.Fatalf("Hash of %d bytes: want ErrPasswordTooLong, got %v", len(long), err)
	}

	// Exactly 72 bytes is still accepted.
	exact := strings.Repeat("a", MaxPasswordBytes)
	if _, err := h.Hash([]byte(exact)); err != nil {
		t.Fatalf("Hash of %d bytes: %v", len(exact), err)
	}
}
