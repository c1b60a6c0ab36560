package target

import (
	"testing"
)

func TestNew_DataModels(t *testing.T) {
	tests := []struct {
		goos, goarch string
		triple       string
		big          bool
		ptr, long    int
	}{
		{"linux", "amd64", "x86_64-linux-gnu", false, 8, 8},
		{"linux", "386", "i686-linux-gnu", false, 4, 4},
		{"linux", "arm", "arm-linux-gnueabihf", false, 4, 4},
		{"linux", "s390x", "s390x-linux-gnu", true, 8, 8},
		{"linux", "mips", "mips-linux-gnu", true, 4, 4},
		{"windows", "amd64", "x86_64-pc-windows-msvc", false, 8, 4},
		{"windows", "arm64", "aarch64-pc-windows-msvc", false, 8, 4},
		{"darwin", "arm64", "aarch64-apple-darwin", false, 8, 8},
		{"freebsd", "ppc64", "powerpc64-unknown-freebsd", true, 8, 8},
		{"js", "wasm", "wasm32-unknown-js", false, 4, 4},
	}
	for _, tt := range tests {
		got, err := New(tt.goos, tt.goarch)
		if err != nil {
			t.Fatalf("New(%s, %s): %v", tt.goos, tt.goarch, err)
		}
		if got.Triple != tt.triple || got.BigEndian != tt.big || got.PtrSize != tt.ptr || got.LongSize != tt.long {
			t.Errorf("New(%s, %s) = %+v", tt.goos, tt.goarch, got)
		}
	}
}

func TestParse_TriplesAndPairs(t *testing.T) {
	tests := []struct {
		in           string
		goos, goarch string
	}{
		{"x86_64-linux-gnu", "linux", "amd64"},
		{"linux/arm64", "linux", "arm64"},
		{"aarch64-apple-darwin", "darwin", "arm64"},
		{"x86_64-w64-mingw32", "windows", "amd64"},
		{"powerpc64-unknown-freebsd13.2", "freebsd", "ppc64"},
		{"wasm32-wasi", "wasip1", "wasm"},
		{"wasm32-unknown-unknown", "js", "wasm"},
		{"s390x-ibm-linux", "linux", "s390x"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got.GOOS != tt.goos || got.GOARCH != tt.goarch {
			t.Errorf("Parse(%q) = %s/%s, want %s/%s", tt.in, got.GOOS, got.GOARCH, tt.goos, tt.goarch)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "z80-linux-gnu", "x86_64-unknown-none", "linux/z80", "/amd64"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestKnown_IsSortedAndComplete(t *testing.T) {
	known := Known()
	if len(known) != len(arches)+2 {
		t.Fatalf("expected %d targets, got %d", len(arches)+2, len(known))
	}
	for i := 1; i < len(known); i++ {
		if known[i-1].Triple >= known[i].Triple {
			t.Fatalf("targets not sorted: %s before %s", known[i-1].Triple, known[i].Triple)
		}
	}
}

func TestHost_IsKnown(t *testing.T) {
	h := Host()
	if h.PtrSize != 4 && h.PtrSize != 8 {
		t.Fatalf("unexpected host pointer size %d", h.PtrSize)
	}
	if h.LongSize <= 0 {
		t.Fatalf("host long size must be positive, got %d", h.LongSize)
	}
}

func TestTarget_Pair(t *testing.T) {
	tg, err := Parse("aarch64-apple-darwin")
	if err != nil {
		t.Fatal(err)
	}
	if tg.Pair() != "darwin/arm64" || tg.String() != "aarch64-apple-darwin" {
		t.Fatalf("Pair=%q String=%q", tg.Pair(), tg.String())
	}
}
