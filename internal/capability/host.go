package capability

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// BigEndian is true when this binary is compiled for a big-endian GOARCH.
const BigEndian = cpu.IsBigEndian

// hostOrigin marks facts resolved from build constraints.
var hostOrigin = Origin{Source: "host"}

// Host returns the type facts of the platform this binary was compiled for.
// Header availability is not known without probing and is left absent.
var Host = sync.OnceValue(func() *Descriptor {
	b := NewBuilder()
	if BigEndian {
		mustDefine(b, WordsBigEndian, 1)
	} else {
		_ = b.MarkAbsent(WordsBigEndian, hostOrigin)
	}
	// Go guarantees a native uint64 on every port.
	mustDefine(b, HaveUint64T, 1)
	mustDefine(b, HaveLongLong, 1)
	_ = b.MarkAbsent(HaveInt8, hostOrigin)
	mustDefine(b, SizeofLong, NativeLongSize)
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
})

func mustDefine(b *Builder, n Name, v int64) {
	if err := b.Define(n, v, hostOrigin); err != nil {
		panic(err)
	}
}
