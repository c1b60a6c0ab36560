package capability

import (
	"errors"
	"testing"
)

func TestDescriptor_UnsetCapabilitiesAreFalse(t *testing.T) {
	d, err := NewBuilder().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	names := append(d.Names(), "NOT_A_REAL_CAPABILITY", "lower_case", "")
	for _, n := range names {
		if d.IsDefined(n) {
			t.Errorf("IsDefined(%q) = true on empty descriptor", n)
		}
		if v, ok := d.ValueOf(n); ok || v != 0 {
			t.Errorf("ValueOf(%q) = %d, %v; want 0, false", n, v, ok)
		}
	}

	var nilDesc *Descriptor
	if nilDesc.IsDefined(SizeofLong) {
		t.Fatal("nil descriptor reports SIZEOF_LONG defined")
	}
	if err := nilDesc.Require(); err != nil {
		t.Fatalf("empty Require on nil descriptor: %v", err)
	}
}

func TestBuilder_DefineSameValueIsIdempotent(t *testing.T) {
	b := NewBuilder()
	first := Origin{Source: "a.h", Line: 3}
	if err := b.Define(SizeofLong, 8, first); err != nil {
		t.Fatalf("first define: %v", err)
	}
	if err := b.Define(SizeofLong, 8, Origin{Source: "b.h", Line: 9}); err != nil {
		t.Fatalf("same-value redefine: %v", err)
	}
	e, ok := b.Lookup(SizeofLong)
	if !ok || e.Origin != first {
		t.Fatalf("expected first origin to be kept, got %+v", e)
	}
}

func TestBuilder_DefineConflictFails(t *testing.T) {
	b := NewBuilder()
	if err := b.Define(SizeofLong, 8, Origin{Source: "a.h", Line: 3}); err != nil {
		t.Fatalf("first define: %v", err)
	}
	err := b.Define(SizeofLong, 4, Origin{Source: "b.h", Line: 7})
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if cerr.Kind != ErrConflict || cerr.Name != SizeofLong {
		t.Fatalf("unexpected error %+v", cerr)
	}
	want := "capability SIZEOF_LONG redefined as 4 at b.h:7 (previously 8 at a.h:3)"
	if cerr.Error() != want {
		t.Fatalf("message:\nwant %q\ngot  %q", want, cerr.Error())
	}
	if v, _ := b.Lookup(SizeofLong); v.Value != 8 {
		t.Fatalf("conflicting define replaced the first value: %+v", v)
	}
}

func TestBuilder_GuardedFirstDefinitionWins(t *testing.T) {
	b := NewBuilder()
	applied, err := b.DefineGuarded(HaveInt8, 1, Origin{Source: "toolchain"})
	if err != nil || !applied {
		t.Fatalf("first guarded define: applied=%v err=%v", applied, err)
	}
	applied, err = b.DefineGuarded(HaveInt8, 2, Origin{Source: "probe"})
	if err != nil {
		t.Fatalf("second guarded define: %v", err)
	}
	if applied {
		t.Fatal("second guarded define should be a no-op")
	}
	d, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if v, _ := d.ValueOf(HaveInt8); v != 1 {
		t.Fatalf("HAVE_INT8 = %d, want 1", v)
	}
}

func TestBuilder_MarkAbsentKeepsDefinition(t *testing.T) {
	b := NewBuilder()
	if err := b.Define(WordsBigEndian, 1, Origin{Source: "cli"}); err != nil {
		t.Fatal(err)
	}
	if err := b.MarkAbsent(WordsBigEndian, Origin{Source: "probe"}); err != nil {
		t.Fatal(err)
	}
	if err := b.MarkAbsent(HaveInt8, Origin{Source: "probe"}); err != nil {
		t.Fatal(err)
	}
	d, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsDefined(WordsBigEndian) {
		t.Fatal("MarkAbsent removed an existing definition")
	}
	if _, ok := d.AbsentOrigin(WordsBigEndian); ok {
		t.Fatal("defined capability should not carry an absence marker")
	}
	if !d.Probed(HaveInt8) || d.IsDefined(HaveInt8) {
		t.Fatal("HAVE_INT8 should be probed and absent")
	}
	if d.Probed(HaveStdintH) {
		t.Fatal("HAVE_STDINT_H was never probed")
	}
}

func TestBuilder_DefineAbsentConflictsWithDefinition(t *testing.T) {
	present := Origin{Source: "a.json"}
	absent := Origin{Source: "b.json"}

	b := NewBuilder()
	if err := b.Define(WordsBigEndian, 1, present); err != nil {
		t.Fatal(err)
	}
	err := b.DefineAbsent(WordsBigEndian, absent)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != ErrConflict || !cerr.Absent {
		t.Fatalf("absence after definition: expected conflict, got %v", err)
	}
	want := "capability WORDS_BIGENDIAN asserted absent at b.json (previously defined as 1 at a.json)"
	if cerr.Error() != want {
		t.Fatalf("message:\nwant %q\ngot  %q", want, cerr.Error())
	}

	b = NewBuilder()
	if err := b.DefineAbsent(WordsBigEndian, absent); err != nil {
		t.Fatal(err)
	}
	if err := b.DefineAbsent(WordsBigEndian, present); err != nil {
		t.Fatalf("repeated absence: %v", err)
	}
	err = b.Define(WordsBigEndian, 1, present)
	if !errors.As(err, &cerr) || cerr.Kind != ErrConflict || !cerr.PrevAbsent {
		t.Fatalf("definition after absence: expected conflict, got %v", err)
	}
	want = "capability WORDS_BIGENDIAN defined as 1 at a.json (previously asserted absent at b.json)"
	if cerr.Error() != want {
		t.Fatalf("message:\nwant %q\ngot  %q", want, cerr.Error())
	}
	if applied, err := b.DefineGuarded(WordsBigEndian, 1, present); applied || err != nil {
		t.Fatalf("guarded define over an asserted absence: applied=%v err=%v", applied, err)
	}
	d, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if d.IsDefined(WordsBigEndian) || !d.Probed(WordsBigEndian) {
		t.Fatal("WORDS_BIGENDIAN should stay absent")
	}
}

func TestBuilder_SoftAbsenceYieldsToDefinition(t *testing.T) {
	b := NewBuilder()
	if err := b.MarkAbsent(HaveInt8, Origin{Source: "probe"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Define(HaveInt8, 1, Origin{Source: "cli"}); err != nil {
		t.Fatalf("define after guarded absence: %v", err)
	}
	if err := b.DefineAbsent(HaveInt8, Origin{Source: "record"}); err == nil {
		t.Fatal("unguarded absence must conflict with the definition")
	}
}

func TestRecord_ApplyPresenceConflictBothOrders(t *testing.T) {
	le := Record{Has64BitUnsignedInteger: true, NativeLongSizeBytes: 8}
	be := le
	be.BigEndian = true
	for _, tc := range []struct {
		first, second Record
	}{
		{le, be},
		{be, le},
	} {
		b := NewBuilder()
		if err := tc.first.Apply(b, Origin{Source: "first.json"}, false); err != nil {
			t.Fatal(err)
		}
		err := tc.second.Apply(b, Origin{Source: "second.json"}, false)
		var cerr *Error
		if !errors.As(err, &cerr) || cerr.Kind != ErrConflict || cerr.Name != WordsBigEndian {
			t.Fatalf("bigEndian=%v then %v: expected WORDS_BIGENDIAN conflict, got %v",
				tc.first.BigEndian, tc.second.BigEndian, err)
		}
		g := NewBuilder()
		_ = tc.first.Apply(g, Origin{Source: "first.json"}, true)
		if err := tc.second.Apply(g, Origin{Source: "second.json"}, true); err != nil {
			t.Fatalf("guarded apply: %v", err)
		}
	}
}

func TestBuilder_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name  Name
		value int64
	}{
		{"", 1},
		{"1ABC", 1},
		{"HAVE-DASH", 1},
		{SizeofLong, 0},
		{SizeofLong, -8},
		{SizeofLong, 3},
		{SizeofLong, 1},
		{SizeofLong, 2},
	}
	for _, tt := range tests {
		err := NewBuilder().Define(tt.name, tt.value, Origin{Source: "test"})
		var cerr *Error
		if !errors.As(err, &cerr) || cerr.Kind != ErrMalformed {
			t.Errorf("Define(%q, %d): expected malformed error, got %v", tt.name, tt.value, err)
		}
	}
}

func TestBuilder_BuildIsDetachedFromBuilder(t *testing.T) {
	b := NewBuilder()
	if err := b.Define(HaveStdintH, 1, Origin{}); err != nil {
		t.Fatal(err)
	}
	d, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Define(HaveInttypesH, 1, Origin{}); err != nil {
		t.Fatal(err)
	}
	if d.IsDefined(HaveInttypesH) {
		t.Fatal("descriptor changed after Build")
	}
}

func TestDescriptor_RequireNamesMissing(t *testing.T) {
	b := NewBuilder()
	_ = b.Define(HaveUint64T, 1, Origin{})
	d, _ := b.Build()

	if err := d.Require(HaveUint64T); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := d.Require(HaveUint64T, SizeofLong, HaveStdintH)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != ErrMissing {
		t.Fatalf("expected missing error, got %v", err)
	}
	if len(cerr.Names) != 2 || cerr.Names[0] != SizeofLong || cerr.Names[1] != HaveStdintH {
		t.Fatalf("unexpected missing names %v", cerr.Names)
	}
	want := "required capabilities are not defined: SIZEOF_LONG, HAVE_STDINT_H"
	if cerr.Error() != want {
		t.Fatalf("got %q, want %q", cerr.Error(), want)
	}
}

func TestDescriptor_CanonicalOrder(t *testing.T) {
	b := NewBuilder()
	_ = b.Define("ZZZ_EXTRA", 1, Origin{})
	_ = b.Define(HaveSysTypesH, 1, Origin{})
	_ = b.Define("AAA_EXTRA", 1, Origin{})
	_ = b.Define(WordsBigEndian, 1, Origin{})
	d, _ := b.Build()

	var got []Name
	for _, e := range d.Entries() {
		got = append(got, e.Name)
	}
	want := []Name{WordsBigEndian, HaveSysTypesH, "AAA_EXTRA", "ZZZ_EXTRA"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	names := d.Names()
	if len(names) != len(Catalogue())+2 || names[len(names)-1] != "ZZZ_EXTRA" {
		t.Fatalf("unexpected Names(): %v", names)
	}
}

func TestRecord_RoundTripThroughBuilder(t *testing.T) {
	in := Record{
		Has64BitUnsignedInteger:    true,
		Has64BitExtendedInteger:    true,
		NativeLongSizeBytes:        8,
		HasFixedWidthIntegerHeader: true,
		HasStandardIntegerHeader:   true,
		HasSystemTypesHeader:       true,
	}
	b := NewBuilder()
	if err := in.Apply(b, Origin{Source: "record"}, false); err != nil {
		t.Fatalf("apply: %v", err)
	}
	d, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Record(); got != in {
		t.Fatalf("record mismatch:\nwant %+v\ngot  %+v", in, got)
	}
	if !d.Probed(WordsBigEndian) || d.IsDefined(WordsBigEndian) {
		t.Fatal("false flag should be recorded as absent")
	}
}

func TestRecord_ApplyConflictUnguarded(t *testing.T) {
	b := NewBuilder()
	_ = b.Define(SizeofLong, 4, Origin{Source: "manifest"})
	err := Record{NativeLongSizeBytes: 8}.Apply(b, Origin{Source: "record"}, false)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != ErrConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := (Record{NativeLongSizeBytes: 8}).Apply(b, Origin{Source: "record"}, true); err != nil {
		t.Fatalf("guarded apply should not fail: %v", err)
	}
}

func TestName_GoNameAndParse(t *testing.T) {
	if got := SizeofLong.GoName(); got != "SizeofLong" {
		t.Fatalf("GoName = %q", got)
	}
	if got := Name("HAVE_SYS_MMAN_H").GoName(); got != "HaveSysMmanH" {
		t.Fatalf("GoName = %q", got)
	}
	n, ok := ParseName(" sizeof_long ")
	if !ok || n != SizeofLong {
		t.Fatalf("ParseName = %q, %v", n, ok)
	}
	if _, ok := ParseName("not valid"); ok {
		t.Fatal("ParseName accepted an invalid identifier")
	}
}
