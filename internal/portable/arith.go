package portable

import (
	"math/bits"

	"platcap/internal/capability"
)

// U64 is a 64-bit unsigned value kept as two 32-bit halves, so that the same
// value can flow through native and emulated arithmetic.
type U64 struct {
	Hi, Lo uint32
}

func FromUint64(v uint64) U64 {
	return U64{Hi: uint32(v >> 32), Lo: uint32(v)}
}

func (u U64) Uint64() uint64 {
	return uint64(u.Hi)<<32 | uint64(u.Lo)
}

// Ops is 64-bit unsigned arithmetic modulo 2^64.
type Ops interface {
	Name() string
	Add(a, b U64) U64
	Sub(a, b U64) U64
	Mul(a, b U64) U64
	And(a, b U64) U64
	Or(a, b U64) U64
	Xor(a, b U64) U64
	Shl(a U64, n uint) U64
	Shr(a U64, n uint) U64
}

// SelectOps returns native arithmetic when the platform has a 64-bit integer
// type, and the emulated form otherwise.
func SelectOps(desc *capability.Descriptor) Ops {
	if desc.IsDefined(capability.HaveUint64T) || desc.IsDefined(capability.HaveLongLong) {
		return Native{}
	}
	return Emulated{}
}

// Native uses the machine's 64-bit integers.
type Native struct{}

func (Native) Name() string { return "native" }

func (Native) Add(a, b U64) U64 { return FromUint64(a.Uint64() + b.Uint64()) }
func (Native) Sub(a, b U64) U64 { return FromUint64(a.Uint64() - b.Uint64()) }
func (Native) Mul(a, b U64) U64 { return FromUint64(a.Uint64() * b.Uint64()) }
func (Native) And(a, b U64) U64 { return FromUint64(a.Uint64() & b.Uint64()) }
func (Native) Or(a, b U64) U64  { return FromUint64(a.Uint64() | b.Uint64()) }
func (Native) Xor(a, b U64) U64 { return FromUint64(a.Uint64() ^ b.Uint64()) }

func (Native) Shl(a U64, n uint) U64 { return FromUint64(a.Uint64() << (n & 63)) }
func (Native) Shr(a U64, n uint) U64 { return FromUint64(a.Uint64() >> (n & 63)) }

// Emulated works on 32-bit halves only.
type Emulated struct{}

func (Emulated) Name() string { return "emulated" }

func (Emulated) Add(a, b U64) U64 {
	lo, carry := bits.Add32(a.Lo, b.Lo, 0)
	hi, _ := bits.Add32(a.Hi, b.Hi, carry)
	return U64{Hi: hi, Lo: lo}
}

func (Emulated) Sub(a, b U64) U64 {
	lo, borrow := bits.Sub32(a.Lo, b.Lo, 0)
	hi, _ := bits.Sub32(a.Hi, b.Hi, borrow)
	return U64{Hi: hi, Lo: lo}
}

func (Emulated) Mul(a, b U64) U64 {
	hi, lo := bits.Mul32(a.Lo, b.Lo)
	hi += a.Hi*b.Lo + a.Lo*b.Hi
	return U64{Hi: hi, Lo: lo}
}

func (Emulated) And(a, b U64) U64 { return U64{Hi: a.Hi & b.Hi, Lo: a.Lo & b.Lo} }
func (Emulated) Or(a, b U64) U64  { return U64{Hi: a.Hi | b.Hi, Lo: a.Lo | b.Lo} }
func (Emulated) Xor(a, b U64) U64 { return U64{Hi: a.Hi ^ b.Hi, Lo: a.Lo ^ b.Lo} }

func (Emulated) Shl(a U64, n uint) U64 {
	n &= 63
	switch {
	case n == 0:
		return a
	case n >= 32:
		return U64{Hi: a.Lo << (n - 32)}
	default:
		return U64{Hi: a.Hi<<n | a.Lo>>(32-n), Lo: a.Lo << n}
	}
}

func (Emulated) Shr(a U64, n uint) U64 {
	n &= 63
	switch {
	case n == 0:
		return a
	case n >= 32:
		return U64{Lo: a.Hi >> (n - 32)}
	default:
		return U64{Hi: a.Hi >> n, Lo: a.Lo>>n | a.Hi<<(32-n)}
	}
}
