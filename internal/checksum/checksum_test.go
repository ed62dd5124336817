package checksum

import (
	"strings"
	"testing"
)

func TestSumStable(t *testing.T) {
	a := Sum([]byte("head 1.1;"))
	b := Sum([]byte("head 1.1;"))
	if a != b {
		t.Errorf("Sum not deterministic: %q vs %q", a, b)
	}
	if c := Sum([]byte("head 1.2;")); c == a {
		t.Errorf("different content produced same sum %q", c)
	}
}

func TestSumIsCIDv1(t *testing.T) {
	s := Sum([]byte("x"))
	// base32 multibase prefix for CIDv1.
	if !strings.HasPrefix(s, "b") {
		t.Errorf("Sum = %q, want base32 CIDv1", s)
	}
	if !Valid(s) {
		t.Errorf("Valid(%q) = false", s)
	}
	if Valid("not-a-cid") {
		t.Error("Valid accepted garbage")
	}
	c, err := CID([]byte("x"))
	if err != nil {
		t.Fatalf("CID: %v", err)
	}
	if c.Version() != 1 {
		t.Errorf("version = %d, want 1", c.Version())
	}
}
