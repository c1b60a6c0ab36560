// Package portable turns a capability descriptor into the choices a
// consumer makes at build time: byte order, how to do 64-bit arithmetic,
// the width of a native long, and which system headers to include.
package portable

import (
	"encoding/binary"

	"fortio.org/safecast"

	"platcap/internal/capability"
)

// ByteOrder returns the byte order described by WORDS_BIGENDIAN. An absent
// fact means little-endian.
func ByteOrder(desc *capability.Descriptor) binary.ByteOrder {
	if desc.IsDefined(capability.WordsBigEndian) {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// minLongSize is the narrowest long C allows.
const minLongSize = 4

// LongSize returns SIZEOF_LONG, or 4 when it is absent.
func LongSize(desc *capability.Descriptor) int {
	v, ok := desc.ValueOf(capability.SizeofLong)
	if !ok || v < minLongSize {
		return minLongSize
	}
	n, err := safecast.Conv[int](v)
	if err != nil {
		return minLongSize
	}
	return n
}

// LongBits returns the width of a native long in bits.
func LongBits(desc *capability.Descriptor) int {
	return LongSize(desc) * 8
}

// LongMask returns a mask covering a native long, saturated at 64 bits.
func LongMask(desc *capability.Descriptor) uint64 {
	bits := LongBits(desc)
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(bits) - 1
}

// NeedInt8Alias reports whether the consumer has to declare its own int8.
func NeedInt8Alias(desc *capability.Descriptor) bool {
	return !desc.IsDefined(capability.HaveInt8)
}

// Includes lists the system headers to include, in dependency order.
func Includes(desc *capability.Descriptor) []string {
	var out []string
	for _, h := range []struct {
		name capability.Name
		file string
	}{
		{capability.HaveSysTypesH, "sys/types.h"},
		{capability.HaveStdintH, "stdint.h"},
		{capability.HaveInttypesH, "inttypes.h"},
	} {
		if desc.IsDefined(h.name) {
			out = append(out, h.file)
		}
	}
	return out
}
