package capability

import (
	"strings"
	"unicode"
)

// Name is the canonical identifier of a capability.
type Name string

const (
	WordsBigEndian Name = "WORDS_BIGENDIAN"
	HaveUint64T    Name = "HAVE_UINT64_T"
	HaveLongLong   Name = "HAVE_LONG_LONG"
	HaveInt8       Name = "HAVE_INT8"
	SizeofLong     Name = "SIZEOF_LONG"
	HaveInttypesH  Name = "HAVE_INTTYPES_H"
	HaveStdintH    Name = "HAVE_STDINT_H"
	HaveSysTypesH  Name = "HAVE_SYS_TYPES_H"
)

// Kind distinguishes boolean facts from numeric ones.
type Kind uint8

const (
	// KindFlag facts are either defined (present) or absent.
	KindFlag Kind = iota + 1
	// KindNumeric facts carry an integer value when present.
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindFlag:
		return "flag"
	case KindNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// Info describes a catalogued capability.
type Info struct {
	Name Name
	Kind Kind
	// GoName is the exported identifier used in generated Go sources.
	GoName string
	// Comment is the header comment emitted above the definition.
	Comment string
	// Fallback is what consumers do when the capability is absent.
	Fallback string
}

// catalogue is kept in emission order.
var catalogue = []Info{
	{
		Name:   WordsBigEndian,
		Kind:   KindFlag,
		GoName: "WordsBigEndian",
		Comment: "Define if your processor stores words with the most significant\n" +
			"   byte first (like Motorola and SPARC, unlike Intel and VAX).",
		Fallback: "little-endian byte order for serialization",
	},
	{
		Name:     HaveUint64T,
		Kind:     KindFlag,
		GoName:   "HaveUint64T",
		Comment:  `Define if your compiler supports "uint64_t" for 64 bit integers`,
		Fallback: "use HAVE_LONG_LONG, else emulated 64-bit arithmetic",
	},
	{
		Name:     HaveLongLong,
		Kind:     KindFlag,
		GoName:   "HaveLongLong",
		Comment:  `Define if your compiler supports "long long" for 64 bit integers`,
		Fallback: "use HAVE_UINT64_T, else emulated 64-bit arithmetic",
	},
	{
		Name:     HaveInt8,
		Kind:     KindFlag,
		GoName:   "HaveInt8",
		Comment:  `Define if type "int8" is defined already`,
		Fallback: "define a local int8 alias",
	},
	{
		Name:     SizeofLong,
		Kind:     KindNumeric,
		GoName:   "SizeofLong",
		Comment:  "The size of a `long', as computed by sizeof.",
		Fallback: "assume the 4-byte minimum width of long",
	},
	{
		Name:     HaveInttypesH,
		Kind:     KindFlag,
		GoName:   "HaveInttypesH",
		Comment:  "Check if we have/need the inttypes include file",
		Fallback: "do not include <inttypes.h>",
	},
	{
		Name:     HaveStdintH,
		Kind:     KindFlag,
		GoName:   "HaveStdintH",
		Comment:  "Check if we have/need the stdint include file",
		Fallback: "do not include <stdint.h>",
	},
	{
		Name:     HaveSysTypesH,
		Kind:     KindFlag,
		GoName:   "HaveSysTypesH",
		Comment:  "Check if we have/need the sys/types include file",
		Fallback: "do not include <sys/types.h>",
	},
}

var catalogueIndex = func() map[Name]int {
	idx := make(map[Name]int, len(catalogue))
	for i := range catalogue {
		idx[catalogue[i].Name] = i
	}
	return idx
}()

// Catalogue returns every known capability in emission order.
func Catalogue() []Info {
	return append([]Info(nil), catalogue...)
}

// Lookup returns the catalogue entry for n.
func Lookup(n Name) (Info, bool) {
	i, ok := catalogueIndex[n]
	if !ok {
		return Info{}, false
	}
	return catalogue[i], true
}

// Known reports whether n is a catalogued capability.
func (n Name) Known() bool {
	_, ok := catalogueIndex[n]
	return ok
}

// Kind returns the catalogued kind. Names outside the catalogue are treated
// as flags.
func (n Name) Kind() Kind {
	if info, ok := Lookup(n); ok {
		return info.Kind
	}
	return KindFlag
}

// Valid reports whether n is a well-formed C identifier.
func (n Name) Valid() bool {
	if n == "" {
		return false
	}
	for i, r := range string(n) {
		if r > unicode.MaxASCII {
			return false
		}
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// GoName returns the exported Go identifier for n.
func (n Name) GoName() string {
	if info, ok := Lookup(n); ok {
		return info.GoName
	}
	var b strings.Builder
	for _, part := range strings.Split(strings.ToLower(string(n)), "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	out := b.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "C" + out
	}
	return out
}

// less orders names by catalogue position, then lexically.
func less(a, b Name) bool {
	ia, oka := catalogueIndex[a]
	ib, okb := catalogueIndex[b]
	switch {
	case oka && okb:
		return ia < ib
	case oka:
		return true
	case okb:
		return false
	default:
		return a < b
	}
}

// ParseName converts user input into a Name. Input is upper-cased so that
// "sizeof_long" and "SIZEOF_LONG" refer to the same capability.
func ParseName(s string) (Name, bool) {
	n := Name(strings.ToUpper(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", false
	}
	return n, true
}
