package capability

import (
	"fortio.org/safecast"
)

// Record is the struct view of the catalogued capabilities. A false flag or a
// zero NativeLongSizeBytes means the capability is absent.
type Record struct {
	BigEndian                  bool `json:"bigEndian"`
	Has64BitUnsignedInteger    bool `json:"has64BitUnsignedInteger"`
	Has64BitExtendedInteger    bool `json:"has64BitExtendedInteger"`
	Has8BitIntegerAlias        bool `json:"has8BitIntegerAlias"`
	NativeLongSizeBytes        int  `json:"nativeLongSizeBytes,omitempty"`
	HasFixedWidthIntegerHeader bool `json:"hasFixedWidthIntegerHeader"`
	HasStandardIntegerHeader   bool `json:"hasStandardIntegerHeader"`
	HasSystemTypesHeader       bool `json:"hasSystemTypesHeader"`
}

// Record returns the struct view of d.
func (d *Descriptor) Record() Record {
	r := Record{
		BigEndian:                  d.IsDefined(WordsBigEndian),
		Has64BitUnsignedInteger:    d.IsDefined(HaveUint64T),
		Has64BitExtendedInteger:    d.IsDefined(HaveLongLong),
		Has8BitIntegerAlias:        d.IsDefined(HaveInt8),
		HasFixedWidthIntegerHeader: d.IsDefined(HaveInttypesH),
		HasStandardIntegerHeader:   d.IsDefined(HaveStdintH),
		HasSystemTypesHeader:       d.IsDefined(HaveSysTypesH),
	}
	if v, ok := d.ValueOf(SizeofLong); ok {
		if n, err := safecast.Conv[int](v); err == nil {
			r.NativeLongSizeBytes = n
		}
	}
	return r
}

// Apply feeds r into b. Present flags and a non-zero long size are defined,
// everything else is marked absent. With guarded set, existing definitions
// win; otherwise any disagreement, including present against absent, fails.
func (r Record) Apply(b *Builder, origin Origin, guarded bool) error {
	flags := []struct {
		name Name
		set  bool
	}{
		{WordsBigEndian, r.BigEndian},
		{HaveUint64T, r.Has64BitUnsignedInteger},
		{HaveLongLong, r.Has64BitExtendedInteger},
		{HaveInt8, r.Has8BitIntegerAlias},
		{HaveInttypesH, r.HasFixedWidthIntegerHeader},
		{HaveStdintH, r.HasStandardIntegerHeader},
		{HaveSysTypesH, r.HasSystemTypesHeader},
	}
	define := func(n Name, v int64) error {
		if guarded {
			_, err := b.DefineGuarded(n, v, origin)
			return err
		}
		return b.Define(n, v, origin)
	}
	absent := func(n Name) error {
		if guarded {
			return b.MarkAbsent(n, origin)
		}
		return b.DefineAbsent(n, origin)
	}
	for _, f := range flags {
		if !f.set {
			if err := absent(f.name); err != nil {
				return err
			}
			continue
		}
		if err := define(f.name, 1); err != nil {
			return err
		}
	}
	if r.NativeLongSizeBytes == 0 {
		return absent(SizeofLong)
	}
	size, err := safecast.Conv[int64](r.NativeLongSizeBytes)
	if err != nil {
		return &Error{Kind: ErrMalformed, Name: SizeofLong, Origin: origin, Reason: err.Error()}
	}
	return define(SizeofLong, size)
}
