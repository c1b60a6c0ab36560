package target

import (
	"fmt"
	"runtime"
	"slices"
	"sort"
	"strings"
)

// Target describes a platform triple and the C data model facts the probe
// needs: byte order, pointer width and the width of long.
type Target struct {
	Triple    string // e.g. "x86_64-linux-gnu"
	GOOS      string
	GOARCH    string
	BigEndian bool
	PtrSize   int // bytes
	LongSize  int // bytes
}

type archInfo struct {
	cpu       string
	bigEndian bool
	ptrSize   int
}

// see go/build/syslist.go for the list of ports
var arches = map[string]archInfo{
	"386":      {cpu: "i686", ptrSize: 4},
	"amd64":    {cpu: "x86_64", ptrSize: 8},
	"arm":      {cpu: "arm", ptrSize: 4},
	"arm64":    {cpu: "aarch64", ptrSize: 8},
	"loong64":  {cpu: "loongarch64", ptrSize: 8},
	"mips":     {cpu: "mips", bigEndian: true, ptrSize: 4},
	"mipsle":   {cpu: "mipsel", ptrSize: 4},
	"mips64":   {cpu: "mips64", bigEndian: true, ptrSize: 8},
	"mips64le": {cpu: "mips64el", ptrSize: 8},
	"ppc64":    {cpu: "powerpc64", bigEndian: true, ptrSize: 8},
	"ppc64le":  {cpu: "powerpc64le", ptrSize: 8},
	"riscv64":  {cpu: "riscv64", ptrSize: 8},
	"s390x":    {cpu: "s390x", bigEndian: true, ptrSize: 8},
	"sparc64":  {cpu: "sparc64", bigEndian: true, ptrSize: 8},
	"wasm":     {cpu: "wasm32", ptrSize: 4},
}

var cpuToArch = func() map[string]string {
	m := make(map[string]string, len(arches)+4)
	for arch, info := range arches {
		m[info.cpu] = arch
	}
	m["x86-64"] = "amd64"
	m["i386"] = "386"
	m["i586"] = "386"
	m["arm64"] = "arm64"
	m["armv7"] = "arm"
	m["powerpc64el"] = "ppc64le"
	return m
}()

var osVendors = map[string]string{
	"linux":   "linux-gnu",
	"darwin":  "apple-darwin",
	"ios":     "apple-ios",
	"windows": "pc-windows-msvc",
	"wasip1":  "wasi",
}

// knownOS lists operating systems recognised inside triple components.
var knownOS = []string{
	"android", "darwin", "dragonfly", "freebsd", "illumos", "ios", "js",
	"linux", "netbsd", "openbsd", "solaris", "wasip1", "windows", "aix", "plan9",
}

// New builds the Target for a GOOS/GOARCH pair.
func New(goos, goarch string) (Target, error) {
	info, ok := arches[goarch]
	if !ok {
		return Target{}, fmt.Errorf("unknown architecture %q", goarch)
	}
	if goos == "" {
		return Target{}, fmt.Errorf("missing operating system for %q", goarch)
	}
	return Target{
		Triple:    tripleFor(goos, info),
		GOOS:      goos,
		GOARCH:    goarch,
		BigEndian: info.bigEndian,
		PtrSize:   info.ptrSize,
		LongSize:  longSize(goos, goarch, info),
	}, nil
}

// longSize follows the C data model: LP64 on 64-bit unix, LLP64 on 64-bit
// Windows, ILP32 elsewhere.
func longSize(goos, goarch string, info archInfo) int {
	if info.ptrSize == 8 && goos == "windows" {
		return 4
	}
	if goarch == "wasm" {
		return 4
	}
	return info.ptrSize
}

func tripleFor(goos string, info archInfo) string {
	if goos == "linux" && info.cpu == "arm" {
		return "arm-linux-gnueabihf"
	}
	if suffix, ok := osVendors[goos]; ok {
		return info.cpu + "-" + suffix
	}
	return info.cpu + "-unknown-" + goos
}

// Parse accepts either "goos/goarch" or a target triple such as
// "x86_64-linux-gnu" or "powerpc64-unknown-freebsd".
func Parse(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("empty target")
	}
	if goos, goarch, ok := strings.Cut(s, "/"); ok {
		return New(goos, goarch)
	}
	parts := strings.Split(strings.ToLower(s), "-")
	arch, ok := cpuToArch[parts[0]]
	if !ok {
		return Target{}, fmt.Errorf("unknown target %q: unrecognised cpu %q", s, parts[0])
	}
	goos := ""
	for _, p := range parts[1:] {
		if goos = osFromPart(p); goos != "" {
			break
		}
	}
	if goos == "" && slices.Contains(parts[1:], "apple") {
		goos = "darwin"
	}
	if goos == "" {
		if arch != "wasm" {
			return Target{}, fmt.Errorf("unknown target %q: unrecognised operating system", s)
		}
		goos = "js"
	}
	t, err := New(goos, arch)
	if err != nil {
		return Target{}, err
	}
	t.Triple = s
	return t, nil
}

func osFromPart(p string) string {
	switch p {
	case "macos", "macosx":
		return "darwin"
	case "wasi":
		return "wasip1"
	case "mingw32", "w64":
		return "windows"
	}
	for _, name := range knownOS {
		if strings.HasPrefix(p, name) {
			return name
		}
	}
	return ""
}

// Host returns the target this binary was compiled for.
func Host() Target {
	t, err := New(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return Target{Triple: runtime.GOARCH + "-unknown-" + runtime.GOOS, GOOS: runtime.GOOS, GOARCH: runtime.GOARCH, PtrSize: 8, LongSize: 8}
	}
	return t
}

// Known lists a target for every supported architecture on a representative
// operating system, sorted by triple.
func Known() []Target {
	out := make([]Target, 0, len(arches)+2)
	for arch := range arches {
		goos := "linux"
		if arch == "wasm" {
			goos = "js"
		}
		if t, err := New(goos, arch); err == nil {
			out = append(out, t)
		}
	}
	for _, pair := range [][2]string{{"windows", "amd64"}, {"darwin", "arm64"}} {
		if t, err := New(pair[0], pair[1]); err == nil {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Triple < out[j].Triple })
	return out
}

func (t Target) String() string {
	return t.Triple
}

// Pair returns the target as "goos/goarch".
func (t Target) Pair() string {
	return t.GOOS + "/" + t.GOARCH
}
