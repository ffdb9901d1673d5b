package hashutil

import "testing"

func TestHashStringsSeparatesParts(t *testing.T) {
	if HashStrings("ab", "c") == HashStrings("a", "bc") {
		t.Fatal("part boundaries should change the hash")
	}
	if HashStrings("x") != HashStrings("x") {
		t.Fatal("hash should be deterministic")
	}
	if got := len(HashStrings("x")); got != 64 {
		t.Errorf("len = %d, want 64", got)
	}
}

func TestShortHash(t *testing.T) {
	full := HashStrings("ev", "fanduel")
	if got := ShortHash("ev", "fanduel"); got != full[:16] {
		t.Errorf("ShortHash = %q, want %q", got, full[:16])
	}
}

func TestFormatPoint(t *testing.T) {
	p := 5.5
	z := 0.0
	if got := FormatPoint(&p); got != "5.5" {
		t.Errorf("FormatPoint(5.5) = %q", got)
	}
	if got := FormatPoint(&z); got != "0" {
		t.Errorf("FormatPoint(0) = %q", got)
	}
	if got := FormatPoint(nil); got != "-" {
		t.Errorf("FormatPoint(nil) = %q", got)
	}
}
