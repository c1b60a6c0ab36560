package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"

	"platcap/internal/capability"
	"platcap/internal/project"
	"platcap/internal/target"
)

func sysroot(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, body := range files {
		if err := afero.WriteFile(fs, p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

var gnuHeaders = map[string]string{
	"/sysroot/usr/include/stdint.h":                       "typedef unsigned long int uint64_t;\n",
	"/sysroot/usr/include/inttypes.h":                     "#include <stdint.h>\n",
	"/sysroot/usr/include/x86_64-linux-gnu/sys/types.h": "typedef __int8_t int8_t;\n",
}

func mustTarget(t *testing.T, goos, goarch string) target.Target {
	t.Helper()
	tg, err := target.New(goos, goarch)
	if err != nil {
		t.Fatal(err)
	}
	return tg
}

func TestRun_LittleEndian64(t *testing.T) {
	res, err := Run(context.Background(), Config{
		Target:      mustTarget(t, "linux", "amd64"),
		IncludeDirs: []string{"/sysroot/usr/include/x86_64-linux-gnu", "/sysroot/usr/include"},
		FS:          sysroot(t, gnuHeaders),
	})
	if err != nil {
		t.Fatal(err)
	}
	r := res.Descriptor.Record()
	want := capability.Record{
		Has64BitUnsignedInteger:    true,
		Has64BitExtendedInteger:    true,
		NativeLongSizeBytes:        8,
		HasFixedWidthIntegerHeader: true,
		HasStandardIntegerHeader:   true,
		HasSystemTypesHeader:       true,
	}
	if r != want {
		t.Fatalf("record mismatch:\nwant %+v\ngot  %+v", want, r)
	}
	for _, n := range res.Descriptor.Names() {
		if !res.Descriptor.Probed(n) {
			t.Errorf("%s was not probed", n)
		}
	}
	if len(res.Findings) != len(capability.Catalogue()) {
		t.Fatalf("expected one finding per capability, got %d", len(res.Findings))
	}
}

func TestRun_BigEndianChangesOnlyByteOrder(t *testing.T) {
	cfg := Config{
		IncludeDirs: []string{"/sysroot/usr/include"},
		FS:          sysroot(t, gnuHeaders),
	}
	cfg.Target = mustTarget(t, "linux", "amd64")
	le, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Target = mustTarget(t, "linux", "s390x")
	be, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !be.Descriptor.IsDefined(capability.WordsBigEndian) {
		t.Fatal("s390x must be big-endian")
	}
	for _, n := range le.Descriptor.Names() {
		if n == capability.WordsBigEndian {
			continue
		}
		lv, lok := le.Descriptor.ValueOf(n)
		bv, bok := be.Descriptor.ValueOf(n)
		if lv != bv || lok != bok {
			t.Errorf("%s differs: le=%d,%v be=%d,%v", n, lv, lok, bv, bok)
		}
	}
}

func TestRun_NoHeadersFallsBack(t *testing.T) {
	res, err := Run(context.Background(), Config{
		Target:      mustTarget(t, "linux", "386"),
		IncludeDirs: []string{"/nowhere"},
		FS:          afero.NewMemMapFs(),
	})
	if err != nil {
		t.Fatal(err)
	}
	d := res.Descriptor
	if d.IsDefined(capability.HaveUint64T) || d.IsDefined(capability.HaveStdintH) {
		t.Fatal("headers must be absent")
	}
	if !d.IsDefined(capability.HaveLongLong) {
		t.Fatal("long long is part of C99")
	}
	if v, _ := d.ValueOf(capability.SizeofLong); v != 4 {
		t.Fatalf("SIZEOF_LONG = %d, want 4", v)
	}
}

func TestRun_DetectsInt8Typedef(t *testing.T) {
	fs := sysroot(t, map[string]string{
		"/inc/sys/types.h": "/* BeOS */\ntypedef signed char int8;\n",
	})
	res, err := Run(context.Background(), Config{
		Target:      mustTarget(t, "linux", "amd64"),
		IncludeDirs: []string{"/inc"},
		FS:          fs,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Descriptor.IsDefined(capability.HaveInt8) {
		t.Fatal("int8 typedef not detected")
	}
}

func TestRun_PredefinesWin(t *testing.T) {
	res, err := Run(context.Background(), Config{
		Target:      mustTarget(t, "linux", "amd64"),
		IncludeDirs: []string{"/sysroot/usr/include"},
		FS:          sysroot(t, gnuHeaders),
		Predefines: []project.Predefine{
			{Name: capability.SizeofLong, Value: 4},
			{Name: capability.HaveStdintH, Absent: true},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	d := res.Descriptor
	if v, _ := d.ValueOf(capability.SizeofLong); v != 4 {
		t.Fatalf("predefined SIZEOF_LONG lost: %d", v)
	}
	if d.IsDefined(capability.HaveStdintH) {
		t.Fatal("HAVE_STDINT_H was forced absent")
	}
	for _, f := range res.Findings {
		if f.Name == capability.SizeofLong && f.Applied {
			t.Fatal("probe must not override a predefine")
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Config{
		Target:      mustTarget(t, "linux", "amd64"),
		IncludeDirs: []string{"/a", "/b"},
		FS:          afero.NewMemMapFs(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_Deterministic(t *testing.T) {
	cfg := Config{
		Target:      mustTarget(t, "linux", "amd64"),
		IncludeDirs: []string{"/sysroot/usr/include"},
		FS:          sysroot(t, gnuHeaders),
		Jobs:        1,
	}
	first, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Jobs = 8
	second, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Descriptor.Equal(second.Descriptor) {
		t.Fatal("results depend on concurrency")
	}
}

func TestFingerprint_TracksHeaders(t *testing.T) {
	fs := sysroot(t, gnuHeaders)
	cfg := Config{Target: mustTarget(t, "linux", "amd64"), IncludeDirs: []string{"/sysroot/usr/include"}, FS: fs}

	a, err := Fingerprint(cfg, "1.0")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Fingerprint(cfg, "1.0")
	if a != b {
		t.Fatal("fingerprint must be stable")
	}
	if c, _ := Fingerprint(cfg, "1.1"); c == a {
		t.Fatal("tool version must change the fingerprint")
	}
	if err := fs.Chtimes("/sysroot/usr/include/stdint.h", time.Unix(1, 0), time.Unix(1, 0)); err != nil {
		t.Fatal(err)
	}
	if d, _ := Fingerprint(cfg, "1.0"); d == a {
		t.Fatal("header change must change the fingerprint")
	}
}
