// Package probe establishes capability facts for a target: byte order and
// type widths from the target table, header availability by searching include
// directories, and pre-existing type aliases by scanning the headers found.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"

	"fortio.org/safecast"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"platcap/internal/capability"
	"platcap/internal/project"
	"platcap/internal/target"
	"platcap/internal/trace"
)

// Config describes one probe run.
type Config struct {
	Target      target.Target
	IncludeDirs []string // searched in order; nil means DefaultIncludeDirs
	FS          afero.Fs // nil means the OS filesystem
	Predefines  []project.Predefine
	Jobs        int // concurrent header probes; 0 means one per header
}

// Finding is the outcome of a single probe.
type Finding struct {
	Name    capability.Name
	Present bool
	Value   int64
	Detail  string
	// Applied is false when a predefine already settled the capability.
	Applied bool
}

// Result is the frozen outcome of Run.
type Result struct {
	Target     target.Target
	Descriptor *capability.Descriptor
	Findings   []Finding
}

type header struct {
	name capability.Name
	file string // slash-separated, relative to an include dir
}

var headers = []header{
	{capability.HaveInttypesH, "inttypes.h"},
	{capability.HaveStdintH, "stdint.h"},
	{capability.HaveSysTypesH, "sys/types.h"},
}

var int8Typedef = regexp.MustCompile(`\btypedef\b[^;{}]*\bint8\s*;`)

// DefaultIncludeDirs mirrors the search order of a GNU toolchain: local
// headers, the multiarch directory for the triple, then the system root.
func DefaultIncludeDirs(t target.Target) []string {
	dirs := []string{"/usr/local/include"}
	if t.Triple != "" {
		dirs = append(dirs, "/usr/include/"+t.Triple)
	}
	return append(dirs, "/usr/include")
}

func (cfg *Config) normalize() {
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	if cfg.IncludeDirs == nil {
		cfg.IncludeDirs = DefaultIncludeDirs(cfg.Target)
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = len(headers)
	}
}

// Run probes cfg.Target. Predefines are applied first and win over probes;
// probe results are applied in catalogue order so the outcome does not depend
// on scheduling.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Target.GOARCH == "" {
		return nil, errors.New("probe: missing target")
	}
	cfg.normalize()

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeTool, "probe", trace.SpanFromContext(ctx)).
		WithExtra("target", cfg.Target.Triple)
	ctx = trace.WithSpan(ctx, span)

	b := capability.NewBuilder()
	forcedAbsent := make(map[capability.Name]bool)
	for _, p := range cfg.Predefines {
		origin := capability.Origin{Source: "predefine"}
		if p.Absent {
			forcedAbsent[p.Name] = true
			if err := b.MarkAbsent(p.Name, origin); err != nil {
				span.End("failed")
				return nil, err
			}
			continue
		}
		if err := b.Define(p.Name, p.Value, origin); err != nil {
			span.End("failed")
			return nil, err
		}
	}

	found, err := probeHeaders(ctx, cfg)
	if err != nil {
		trace.Error(tracer, trace.ScopeTool, "probe", err, span.ID())
		span.End("failed")
		return nil, err
	}

	findings := make([]Finding, 0, len(capability.Catalogue()))
	findings = append(findings,
		Finding{Name: capability.WordsBigEndian, Present: cfg.Target.BigEndian, Value: 1, Detail: "target byte order"},
	)
	uint64Header := firstFound(found, capability.HaveStdintH, capability.HaveInttypesH)
	if uint64Header != "" {
		findings = append(findings, Finding{Name: capability.HaveUint64T, Present: true, Value: 1, Detail: "declared by " + uint64Header})
	} else {
		findings = append(findings, Finding{Name: capability.HaveUint64T, Detail: "no <stdint.h> or <inttypes.h>"})
	}
	findings = append(findings,
		Finding{Name: capability.HaveLongLong, Present: true, Value: 1, Detail: "C99 toolchain"},
	)
	int8Finding, err := probeInt8(ctx, cfg.FS, found)
	if err != nil {
		span.End("failed")
		return nil, err
	}
	findings = append(findings, int8Finding)
	longSize, err := safecast.Conv[int64](cfg.Target.LongSize)
	if err != nil {
		span.End("failed")
		return nil, fmt.Errorf("probe: target long size: %w", err)
	}
	findings = append(findings, Finding{
		Name:    capability.SizeofLong,
		Present: longSize > 0,
		Value:   longSize,
		Detail:  "target data model",
	})
	for _, h := range headers {
		f := Finding{Name: h.name, Value: 1}
		if p := found[h.name]; p != "" {
			f.Present = true
			f.Detail = p
		} else {
			f.Detail = "<" + h.file + "> not found"
		}
		findings = append(findings, f)
	}

	for i := range findings {
		f := &findings[i]
		origin := capability.Origin{Source: "probe:" + string(f.Name)}
		if forcedAbsent[f.Name] {
			trace.Point(tracer, trace.ScopeCapability, string(f.Name), "forced absent by predefine", span.ID())
			continue
		}
		if !f.Present {
			if err := b.MarkAbsent(f.Name, origin); err != nil {
				span.End("failed")
				return nil, err
			}
			f.Applied = true
			trace.Point(tracer, trace.ScopeCapability, string(f.Name), "absent: "+f.Detail, span.ID())
			continue
		}
		applied, err := b.DefineGuarded(f.Name, f.Value, origin)
		if err != nil {
			span.End("failed")
			return nil, err
		}
		f.Applied = applied
		trace.Point(tracer, trace.ScopeCapability, string(f.Name),
			fmt.Sprintf("value=%d applied=%t (%s)", f.Value, applied, f.Detail), span.ID())
	}

	desc, err := b.Build()
	if err != nil {
		span.End("failed")
		return nil, err
	}
	span.End(strconv.Itoa(desc.Len()) + " capabilities defined")
	return &Result{Target: cfg.Target, Descriptor: desc, Findings: findings}, nil
}

// probeHeaders looks every header up concurrently. The result maps each
// header capability to the path of its first match, or "" when absent.
func probeHeaders(ctx context.Context, cfg Config) (map[capability.Name]string, error) {
	tracer := trace.FromContext(ctx)
	parent := trace.SpanFromContext(ctx)
	paths := make([]string, len(headers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Jobs)
	for i, h := range headers {
		i, h := i, h
		g.Go(func() error {
			span := trace.Begin(tracer, trace.ScopeProbe, "header "+h.file, parent)
			p, err := findHeader(gctx, cfg.FS, cfg.IncludeDirs, h.file)
			if err != nil {
				trace.Error(tracer, trace.ScopeProbe, "header "+h.file, err, parent)
				span.End("failed")
				return fmt.Errorf("probe <%s>: %w", h.file, err)
			}
			paths[i] = p
			span.WithExtra("path", p).End("")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	found := make(map[capability.Name]string, len(headers))
	for i, h := range headers {
		found[h.name] = paths[i]
	}
	return found, nil
}

func findHeader(ctx context.Context, fs afero.Fs, dirs []string, file string) (string, error) {
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := filepath.Join(dir, filepath.FromSlash(file))
		info, err := fs.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
				continue
			}
			return "", err
		}
		if info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", nil
}

// probeInt8 reports HAVE_INT8 when one of the found headers already declares
// an int8 typedef.
func probeInt8(ctx context.Context, fs afero.Fs, found map[capability.Name]string) (Finding, error) {
	f := Finding{Name: capability.HaveInt8, Value: 1, Detail: "no int8 typedef in system headers"}
	for _, h := range headers {
		p := found[h.name]
		if p == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Finding{}, err
		}
		data, err := afero.ReadFile(fs, p)
		if err != nil {
			return Finding{}, fmt.Errorf("probe int8 in %s: %w", p, err)
		}
		if int8Typedef.Match(data) {
			f.Present = true
			f.Detail = "typedef in " + path.Base(filepath.ToSlash(p))
			return f, nil
		}
	}
	return f, nil
}

func firstFound(found map[capability.Name]string, names ...capability.Name) string {
	for _, n := range names {
		if p := found[n]; p != "" {
			return p
		}
	}
	return ""
}
