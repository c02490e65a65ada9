package tickets

import (
	"strings"
	"testing"
)

func TestNewTicketID(t *testing.T) {
	id1 := NewTicketID()
	id2 := NewTicketID()

	if id1 == "" {
		t.Fatal("Expected non-empty ticket ID")
	}
	if id1 == id2 {
		t.Errorf("Expected distinct ticket IDs, got %s twice", id1)
	}
}

func TestNewTicketCodeLength(t *testing.T) {
	code := NewTicketCode()
	if len(code) != codeLength {
		t.Errorf("Expected code of length %d, got %d (%s)", codeLength, len(code), code)
	}
}

func TestNewTicketCodeAlphabet(t *testing.T) {
	// Codes must only use the restricted alphabet so they stay readable
	for i := 0; i < 100; i++ {
		code := NewTicketCode()
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("Code %s contains character %q outside the alphabet", code, c)
			}
		}
	}
}

func TestNewTicketCodeVariety(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		seen[NewTicketCode()] = true
	}
	// Collisions in 1000 draws from a 32^8 space indicate a broken generator
	if len(seen) < 1000 {
		t.Errorf("Expected 1000 distinct codes, got %d", len(seen))
	}
}
