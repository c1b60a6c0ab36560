package capability

import (
	"encoding/binary"
	"testing"
	"unsafe"
)

func TestHost_MatchesRuntime(t *testing.T) {
	h := Host()
	if h != Host() {
		t.Fatal("Host must resolve once")
	}

	var probe uint16 = 0x0102
	big := (*[2]byte)(unsafe.Pointer(&probe))[0] == 0x01
	if h.IsDefined(WordsBigEndian) != big {
		t.Fatalf("WORDS_BIGENDIAN = %v, runtime says big=%v", h.IsDefined(WordsBigEndian), big)
	}
	if BigEndian != (binary.NativeEndian.Uint16([]byte{0x01, 0x02}) == 0x0102) {
		t.Fatal("BigEndian disagrees with binary.NativeEndian")
	}

	size, ok := h.ValueOf(SizeofLong)
	if !ok || size != NativeLongSize {
		t.Fatalf("SIZEOF_LONG = %d, %v; want %d", size, ok, NativeLongSize)
	}
	if size != 4 && size != 8 {
		t.Fatalf("unexpected long width %d", size)
	}
	if !h.IsDefined(HaveUint64T) || !h.IsDefined(HaveLongLong) {
		t.Fatal("host must report native 64-bit integers")
	}
	if h.IsDefined(HaveStdintH) {
		t.Fatal("header facts require probing")
	}
}
