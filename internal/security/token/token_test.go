package token

import (
	"regexp"
	"testing"
)

func TestGenerateNumericCode(t *testing.T) {
	re := regexp.MustCompile(`^[0-9]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		c, err := GenerateNumericCode(6)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !re.MatchString(c) {
			t.Fatalf("bad code %q", c)
		}
		seen[c] = true
	}
	if len(seen) < 150 {
		t.Fatalf("too many collisions: %d unique of 200", len(seen))
	}
	if _, err := GenerateNumericCode(0); err == nil {
		t.Fatal("expected error for 0 digits")
	}
}

func TestGenerateOpaque(t *testing.T) {
	a, err := GenerateOpaque(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := GenerateOpaque(32)
	if a == b {
		t.Fatal("tokens should differ")
	}
	if len(a) != 43 {
		t.Fatalf("unexpected length %d", len(a))
	}
}

func TestSHA256Hex(t *testing.T) {
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := SHA256Hex("abc"); got != want {
		t.Fatalf("got %s", got)
	}
}
