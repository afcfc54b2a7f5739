package addr_test

import (
	"testing"

	"github.com/dantte-lp/alohamac/internal/addr"
)

func TestNullIsZero(t *testing.T) {
	if !addr.Null.IsNull() {
		t.Fatal("Null must report IsNull")
	}
	var zero addr.Addr
	if !zero.IsNull() {
		t.Fatal("zero-value Addr must report IsNull")
	}
}

func TestEqual(t *testing.T) {
	a := addr.Addr{0x03, 0x00}
	b := addr.Addr{0x03, 0x00}
	c := addr.Addr{0x04, 0x00}
	if !a.Equal(b) {
		t.Fatal("equal addresses must compare equal")
	}
	if a.Equal(c) {
		t.Fatal("different addresses must not compare equal")
	}
}

func TestString(t *testing.T) {
	a := addr.Addr{0x03, 0x0a}
	if got, want := a.String(), "03:0a"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestFromBytes(t *testing.T) {
	got, err := addr.FromBytes([]byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if want := (addr.Addr{0x01, 0x02}); got != want {
		t.Fatalf("FromBytes = %v, want %v", got, want)
	}

	if _, err := addr.FromBytes([]byte{0x01}); err == nil {
		t.Fatal("FromBytes with wrong length must error")
	}
}

func TestParse(t *testing.T) {
	got, err := addr.Parse("03:0a")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := (addr.Addr{0x03, 0x0a}); got != want {
		t.Fatalf("Parse = %v, want %v", got, want)
	}

	if a, err := addr.Parse(got.String()); err != nil || a != got {
		t.Fatalf("Parse(String()) round-trip failed: a=%v, err=%v", a, err)
	}

	for _, bad := range []string{"", "01", "01:02:03", "zz:00"} {
		if _, err := addr.Parse(bad); err == nil {
			t.Fatalf("Parse(%q) = nil error, want error", bad)
		}
	}
}
