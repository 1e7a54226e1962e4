package security

import (
	"testing"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4)
	password := []byte("placeholder-credential")
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
	hash, _ := h.Hash([]byte("placeholder-credential"))
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Fatal("Compare with wrong password should fail")
	}
}

func TestHasher_CostClamping(t *testing.T) {
	if h := NewHasher(12); h.Cost != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost)
	}
	if h := NewHasher(0); h.Cost < 4 {
		t.Errorf("zero cost should be clamped to at least MinCost, got %d", h.Cost)
	}
	if h := NewHasher(99); h.Cost > 31 {
		t.Errorf("oversized cost should be clamped to MaxCost, got %d", h.Cost)
	}
}
