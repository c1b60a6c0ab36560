package confighdr

import (
	"bytes"
	goparser "go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"platcap/internal/capability"
	"platcap/internal/diag"
)

const autoconfHeader = `/* include/poker_config.h.  Generated from poker_config.h.in by configure.  */
/*
 * Sample configuration header.
 * Nothing below this comment is specific to one machine.
 */

#ifndef WORDS_BIGENDIAN
/* Define if your processor stores words with the most significant
   byte first (like Motorola and SPARC, unlike Intel and VAX).  */
/* #undef WORDS_BIGENDIAN */
#endif /* WORDS_BIGENDIAN */

#ifndef HAVE_UINT64_T
/* Define if your compiler supports "uint64_t" for 64 bit integers */
#define HAVE_UINT64_T 1
#endif /* HAVE_UINT64_T */

#ifndef HAVE_LONG_LONG
/* Define if your compiler supports "long long" for 64 bit integers */
#define HAVE_LONG_LONG 1
#endif /* HAVE_LONG_LONG */

#ifndef HAVE_INT8
/* Define if type "int8" is defined already */
/* #undef HAVE_INT8 */
#endif /* HAVE_INT8 */

#ifndef SIZEOF_LONG
/* The size of a ` + "`long'" + `, as computed by sizeof. */
#define SIZEOF_LONG 8
#endif /* SIZEOF_LONG */

#ifndef HAVE_INTTYPES_H
/* Check if we have/need the inttypes include file */
#define HAVE_INTTYPES_H 1
#endif /* HAVE_INTTYPES_H */

#ifndef HAVE_STDINT_H
/* Check if we have/need the stdint include file */
#define HAVE_STDINT_H 1
#endif /* HAVE_STDINT_H */

#ifndef HAVE_SYS_TYPES_H
/* Check if we have/need the sys/types include file */
#define HAVE_SYS_TYPES_H 1
#endif /* HAVE_SYS_TYPES_H */
`

var le64 = capability.Record{
	Has64BitUnsignedInteger:    true,
	Has64BitExtendedInteger:    true,
	NativeLongSizeBytes:        8,
	HasFixedWidthIntegerHeader: true,
	HasStandardIntegerHeader:   true,
	HasSystemTypesHeader:       true,
}

func load(t *testing.T, files map[string]string, order ...string) (*capability.Descriptor, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(50)
	r := diag.BagReporter{Bag: bag}
	b := capability.NewBuilder()
	for _, name := range order {
		Parse(name, []byte(files[name]), r).Apply(b, r)
	}
	desc, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return desc, bag
}

func codes(bag *diag.Bag) map[diag.Code]int {
	out := make(map[diag.Code]int)
	for _, d := range bag.Items() {
		out[d.Code]++
	}
	return out
}

func TestParse_AutoconfHeader(t *testing.T) {
	desc, bag := load(t, map[string]string{"poker_config.h": autoconfHeader}, "poker_config.h")
	if bag.Len() != 0 {
		var buf bytes.Buffer
		_ = diag.Short(&buf, bag, true)
		t.Fatalf("unexpected diagnostics:\n%s", buf.String())
	}
	if got := desc.Record(); got != le64 {
		t.Fatalf("record mismatch:\nwant %+v\ngot  %+v", le64, got)
	}
	if !desc.Probed(capability.WordsBigEndian) || desc.IsDefined(capability.WordsBigEndian) {
		t.Fatal("WORDS_BIGENDIAN should be asserted absent")
	}
	e, _ := desc.Entry(capability.SizeofLong)
	if e.Origin.String() != "poker_config.h:30" {
		t.Fatalf("SIZEOF_LONG origin = %s", e.Origin)
	}
}

func TestParse_DirectivesCarryGuardAndComment(t *testing.T) {
	f := Parse("x.h", []byte(autoconfHeader), nil)
	if len(f.Directives) != 8 {
		t.Fatalf("expected 8 directives, got %d", len(f.Directives))
	}
	first := f.Directives[0]
	if first.Kind != DirAbsent || !first.Guarded || first.Name != capability.WordsBigEndian {
		t.Fatalf("unexpected first directive: %+v", first)
	}
	if !strings.HasPrefix(first.Comment, "Define if your processor") ||
		!strings.Contains(first.Comment, "\nbyte first") {
		t.Fatalf("comment not attached: %q", first.Comment)
	}
}

func fullBuilder(t *testing.T, rec capability.Record) *capability.Descriptor {
	t.Helper()
	b := capability.NewBuilder()
	if err := rec.Apply(b, capability.Origin{Source: "test"}, false); err != nil {
		t.Fatal(err)
	}
	desc, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return desc
}

func TestRenderHeader_RoundTripAndDeterminism(t *testing.T) {
	be := le64
	be.BigEndian = true
	be.NativeLongSizeBytes = 4
	for _, rec := range []capability.Record{le64, be, {}} {
		desc := fullBuilder(t, rec)
		out := RenderHeader(desc, Options{Target: "x86_64-linux-gnu"})
		if again := RenderHeader(desc, Options{Target: "x86_64-linux-gnu"}); !bytes.Equal(out, again) {
			t.Fatal("rendering is not deterministic")
		}
		back, bag := load(t, map[string]string{"gen.h": string(out)}, "gen.h")
		if bag.Len() != 0 {
			t.Fatalf("generated header produced %d diagnostics", bag.Len())
		}
		if !back.Equal(desc) || back.Record() != rec {
			t.Fatalf("round trip changed %+v into %+v", rec, back.Record())
		}
		for _, n := range desc.Names() {
			if !back.Probed(n) {
				t.Fatalf("%s lost its absence marker", n)
			}
		}
	}
}

func TestRenderHeader_BlockShape(t *testing.T) {
	out := string(RenderHeader(fullBuilder(t, le64), Options{Banner: "test banner"}))
	if !strings.HasPrefix(out, "/* test banner */\n\n#ifndef WORDS_BIGENDIAN\n") {
		t.Fatalf("unexpected prologue:\n%s", out)
	}
	want := "#ifndef WORDS_BIGENDIAN\n" +
		"/* Define if your processor stores words with the most significant\n" +
		"   byte first (like Motorola and SPARC, unlike Intel and VAX). */\n" +
		"/* #undef WORDS_BIGENDIAN */\n" +
		"#endif /* WORDS_BIGENDIAN */\n"
	if !strings.Contains(out, want) {
		t.Fatalf("missing WORDS_BIGENDIAN block:\n%s", out)
	}
	if !strings.Contains(out, "#ifndef SIZEOF_LONG\n/* The size of a `long', as computed by sizeof. */\n#define SIZEOF_LONG 8\n#endif /* SIZEOF_LONG */\n") {
		t.Fatalf("missing SIZEOF_LONG block:\n%s", out)
	}
}

func TestApply_UnguardedConflict(t *testing.T) {
	files := map[string]string{
		"a.h": "#define SIZEOF_LONG 8\n",
		"b.h": "/* same value */\n#define SIZEOF_LONG 8\n",
		"c.h": "#define SIZEOF_LONG 4\n",
	}
	desc, bag := load(t, files, "a.h", "b.h", "c.h")
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.CapConflict {
		t.Fatalf("expected one conflict, got %+v", items)
	}
	d := items[0]
	if d.Primary.String() != "c.h:1" || len(d.Notes) != 1 || d.Notes[0].Loc.String() != "a.h:1" {
		t.Fatalf("conflict locations wrong: %+v", d)
	}
	if !strings.Contains(d.Message, "SIZEOF_LONG") {
		t.Fatalf("conflict does not name the capability: %q", d.Message)
	}
	if v, _ := desc.ValueOf(capability.SizeofLong); v != 8 {
		t.Fatalf("first definition should stay, got %d", v)
	}
}

func TestApply_UnguardedAbsenceConflicts(t *testing.T) {
	files := map[string]string{
		"absent.h":  "/* #undef WORDS_BIGENDIAN */\n",
		"present.h": "#define WORDS_BIGENDIAN 1\n",
		"guarded.h": "#ifndef WORDS_BIGENDIAN\n#define WORDS_BIGENDIAN 1\n#endif\n",
	}
	for _, order := range [][]string{{"absent.h", "present.h"}, {"present.h", "absent.h"}} {
		_, bag := load(t, files, order...)
		items := bag.Items()
		if len(items) != 1 || items[0].Code != diag.CapConflict {
			t.Fatalf("%v: expected one conflict, got %+v", order, items)
		}
		if items[0].Primary.String() != order[1]+":1" || len(items[0].Notes) != 1 || items[0].Notes[0].Loc.String() != order[0]+":1" {
			t.Fatalf("%v: conflict locations wrong: %+v", order, items[0])
		}
	}

	desc, bag := load(t, files, "absent.h", "guarded.h")
	if bag.Len() != 0 {
		t.Fatalf("guarded block must yield to the absence: %+v", bag.Items())
	}
	if desc.IsDefined(capability.WordsBigEndian) {
		t.Fatal("guarded block overrode an unguarded absence")
	}
}

func TestApply_GuardedKeepsFirst(t *testing.T) {
	files := map[string]string{
		"pre.h": "#define SIZEOF_LONG 4\n",
		"cfg.h": "#ifndef SIZEOF_LONG\n#define SIZEOF_LONG 8\n#endif\n",
	}
	desc, bag := load(t, files, "pre.h", "cfg.h")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if v, _ := desc.ValueOf(capability.SizeofLong); v != 4 {
		t.Fatalf("guarded definition overrode predefine: %d", v)
	}
}

func TestApply_UndefAndUnknown(t *testing.T) {
	src := "#define HAVE_INT8 1\n#undef HAVE_INT8\n#undef HAVE_STDINT_H\n#define HAVE_FOO\n"
	desc, bag := load(t, map[string]string{"u.h": src}, "u.h")
	got := codes(bag)
	if got[diag.CapUndefDefined] != 1 || got[diag.CapUnknownName] != 1 || len(got) != 2 {
		t.Fatalf("unexpected diagnostics: %v", got)
	}
	if !desc.IsDefined(capability.HaveInt8) {
		t.Fatal("#undef must not retract HAVE_INT8")
	}
	if desc.IsDefined(capability.HaveStdintH) || !desc.Probed(capability.HaveStdintH) {
		t.Fatal("HAVE_STDINT_H should be asserted absent")
	}
	if v, ok := desc.ValueOf("HAVE_FOO"); !ok || v != 1 {
		t.Fatalf("HAVE_FOO = %d, %v", v, ok)
	}
}

func TestParse_Malformed(t *testing.T) {
	src := "#endif\n" +
		"#ifndef HAVE_INT8\n" +
		"#define HAVE_INT8 yes\n" +
		"#define 9BAD 1\n" +
		"#include <stdio.h>\n" +
		"/* never closed\n"
	bag := diag.NewBag(20)
	Parse("bad.h", []byte(src), diag.BagReporter{Bag: bag})
	got := codes(bag)
	for _, c := range []diag.Code{
		diag.HdrStrayEndif, diag.CapMalformedValue, diag.CapInvalidName,
		diag.HdrUnsupportedDirective, diag.HdrUnterminatedComment, diag.HdrUnterminatedGuard,
	} {
		if got[c] != 1 {
			t.Errorf("expected one %s, got %d (all: %v)", c.ID(), got[c], got)
		}
	}
}

func TestParse_ValueForms(t *testing.T) {
	src := "#define SIZEOF_LONG (8UL)\n#define HAVE_INT8 0x1\n#define HAVE_LONG_LONG\n"
	f := Parse("v.h", []byte(src), nil)
	want := []int64{8, 1, 1}
	if len(f.Directives) != len(want) {
		t.Fatalf("got %d directives", len(f.Directives))
	}
	for i, d := range f.Directives {
		if d.Value != want[i] || d.Guarded {
			t.Fatalf("directive %d: %+v", i, d)
		}
	}
}

func TestParse_GuardMismatch(t *testing.T) {
	bag := diag.NewBag(5)
	f := Parse("m.h", []byte("#ifndef HAVE_INT8\n#define SIZEOF_LONG 8\n#endif\n"), diag.BagReporter{Bag: bag})
	if codes(bag)[diag.HdrGuardMismatch] != 1 {
		t.Fatalf("expected guard mismatch, got %+v", bag.Items())
	}
	if f.Directives[0].Guarded {
		t.Fatal("mismatched guard must not count as guarded")
	}
}

func TestRenderGo(t *testing.T) {
	out, err := RenderGo(fullBuilder(t, le64), "pcfg", Options{Target: "x86_64-linux-gnu"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := goparser.ParseFile(token.NewFileSet(), "zcap.go", out, goparser.ParseComments); err != nil {
		t.Fatalf("generated Go does not parse: %v\n%s", err, out)
	}
	for _, pat := range []string{
		`(?m)^package pcfg$`,
		`WordsBigEndian\s+= false`,
		`HaveUint64T\s+= true`,
		`SizeofLong\s+= 8`,
		`HasSizeofLong\s+= true`,
		`// Code generated by platcap\. DO NOT EDIT\.`,
	} {
		if !regexp.MustCompile(pat).Match(out) {
			t.Errorf("generated Go lacks %s:\n%s", pat, out)
		}
	}
	if _, err := RenderGo(nil, "not a package", Options{}); err == nil {
		t.Fatal("expected error for invalid package name")
	}
}

func TestRenderGo_IdentifierCollision(t *testing.T) {
	tests := []struct {
		extra []capability.Name
		want  string
	}{
		{[]capability.Name{"HAS_SIZEOF_LONG"}, "HasSizeofLong is generated for both SIZEOF_LONG and HAS_SIZEOF_LONG"},
		{[]capability.Name{"ab", "AB"}, "Ab is generated for both AB and ab"},
	}
	for _, tt := range tests {
		b := capability.NewBuilder()
		for _, n := range tt.extra {
			if err := b.Define(n, 1, capability.Origin{Source: "extra.h"}); err != nil {
				t.Fatal(err)
			}
		}
		if err := le64.Apply(b, capability.Origin{Source: "record"}, false); err != nil {
			t.Fatal(err)
		}
		desc, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		out, err := RenderGo(desc, "pcfg", Options{})
		if err == nil {
			t.Fatalf("%v: expected a collision error, got:\n%s", tt.extra, out)
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%v: error %q does not contain %q", tt.extra, err, tt.want)
		}
	}
}

func TestDecodeRecord(t *testing.T) {
	src := `{
		// probed on a 64-bit little-endian host
		"bigEndian": false,
		"has64BitUnsignedInteger": true,
		"has64BitExtendedInteger": true,
		"hasFixedWidthIntegerHeader": true,
		"hasStandardIntegerHeader": true,
		"hasSystemTypesHeader": true,
		"nativeLongSizeBytes": 8, /* bytes */
	}`
	rec, err := DecodeRecord([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if rec != le64 {
		t.Fatalf("record mismatch: %+v", rec)
	}
	if _, err := DecodeRecord([]byte(`{"bigEndian": true, "endianness": "big"}`)); err == nil {
		t.Fatal("unknown fields must be rejected")
	}
	if _, err := DecodeRecord([]byte(`{"nativeLongSizeBytes": -8}`)); err == nil {
		t.Fatal("negative long size must be rejected")
	}
	enc, err := EncodeRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(enc, []byte(`"nativeLongSizeBytes": 8`)) {
		t.Fatalf("unexpected encoding:\n%s", enc)
	}
}

func TestLoadRecord_ConflictsWithHeader(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/w/rec.json", []byte(`{"nativeLongSizeBytes": 8}`), 0o644)
	_ = afero.WriteFile(fs, "/w/cfg.h", []byte("#define SIZEOF_LONG 4\n"), 0o644)

	bag := diag.NewBag(10)
	r := diag.BagReporter{Bag: bag}
	b := capability.NewBuilder()
	if err := LoadFile(fs, "/w/cfg.h", b, r); err != nil {
		t.Fatal(err)
	}
	LoadRecord(fs, "/w/rec.json", b, r)
	LoadRecord(fs, "/w/missing.json", b, r)
	got := codes(bag)
	if got[diag.CapConflict] != 1 || got[diag.InpBadRecord] != 1 {
		t.Fatalf("unexpected diagnostics: %v", got)
	}
}

func TestLoadRecord_PresenceDisagreementBothOrders(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/w/le.json", []byte(`{"has64BitUnsignedInteger": true, "nativeLongSizeBytes": 8}`), 0o644)
	_ = afero.WriteFile(fs, "/w/be.json", []byte(`{"bigEndian": true, "has64BitUnsignedInteger": true, "nativeLongSizeBytes": 8}`), 0o644)

	for _, order := range [][]string{{"/w/le.json", "/w/be.json"}, {"/w/be.json", "/w/le.json"}} {
		bag := diag.NewBag(10)
		r := diag.BagReporter{Bag: bag}
		b := capability.NewBuilder()
		LoadRecord(fs, order[0], b, r)
		LoadRecord(fs, order[1], b, r)
		items := bag.Items()
		if len(items) != 1 || items[0].Code != diag.CapConflict {
			t.Fatalf("%v: expected one conflict, got %+v", order, items)
		}
		if items[0].Primary.Path != order[1] || !strings.Contains(items[0].Message, "WORDS_BIGENDIAN") {
			t.Fatalf("%v: conflict misreported: %+v", order, items[0])
		}
	}
}

func TestWriteIfChanged(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/out/include/poker_config.h"
	for i, tc := range []struct {
		data  string
		wrote bool
	}{
		{"a\n", true},
		{"a\n", false},
		{"b\n", true},
	} {
		wrote, err := WriteIfChanged(fs, path, []byte(tc.data))
		if err != nil {
			t.Fatal(err)
		}
		if wrote != tc.wrote {
			t.Fatalf("step %d: wrote=%v, want %v", i, wrote, tc.wrote)
		}
	}
	got, _ := afero.ReadFile(fs, path)
	if string(got) != "b\n" {
		t.Fatalf("content = %q", got)
	}
}
