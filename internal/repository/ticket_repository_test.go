package repository

import (
	"regexp"
	"testing"
)

func TestGenerateTicketNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^EVT42-[0-9A-F]{8}$`)
	for i := 0; i < 20; i++ {
		n, err := GenerateTicketNumber(42)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !pattern.MatchString(n) {
			t.Fatalf("number %q does not match %s", n, pattern)
		}
	}
}

func TestGenerateTicketNumberIsEventScoped(t *testing.T) {
	a, err := GenerateTicketNumber(1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateTicketNumber(2)
	if err != nil {
		t.Fatal(err)
	}
	if a[:5] == b[:5] {
		t.Errorf("prefixes should differ per event: %q vs %q", a, b)
	}
}

func TestGenerateTicketNumberVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n, err := GenerateTicketNumber(7)
		if err != nil {
			t.Fatal(err)
		}
		seen[n] = true
	}
	// 32 random bits: 100 draws colliding would indicate a broken source.
	if len(seen) < 99 {
		t.Errorf("only %d distinct numbers out of 100", len(seen))
	}
}
