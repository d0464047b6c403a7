package security

import "testing"

func TestBcryptPassphrase(t *testing.T) {
	t.Parallel()

	h := NewBcryptPassphrase(4)
	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.Compare(hash, "correct horse"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "battery staple"); err == nil {
		t.Fatalf("expected mismatch")
	}
	if _, err := h.Hash(""); err == nil {
		t.Fatalf("expected empty passphrase to be rejected")
	}
}

func TestBcryptCostOutOfRangeFallsBack(t *testing.T) {
	t.Parallel()

	if got := NewBcryptPassphrase(99).cost; got != 10 {
		t.Fatalf("expected default cost, got %d", got)
	}
}
