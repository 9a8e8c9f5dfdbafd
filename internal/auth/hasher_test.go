package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("pw123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "pw123456" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !h.Verify("pw123456", hash) {
		t.Fatal("expected password to verify")
	}
	if h.Verify("wrong", hash) {
		t.Fatal("wrong password verified")
	}
	other, _ := h.Hash("pw123456")
	if other == hash {
		t.Fatal("expected salted hashes to differ")
	}
}

func TestHasherMalformedHashFailsClosed(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, bad := range []string{"", "not-a-hash", "$2a$10$short"} {
		if h.Verify("pw123456", bad) {
			t.Fatalf("malformed hash %q verified", bad)
		}
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	if got := NewHasher(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("zero cost: got %d", got)
	}
	if got := NewHasher(1).cost; got != bcrypt.MinCost {
		t.Fatalf("low cost: got %d", got)
	}
	if got := NewHasher(99).cost; got != bcrypt.MaxCost {
		t.Fatalf("high cost: got %d", got)
	}
}
