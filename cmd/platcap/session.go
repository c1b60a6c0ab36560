package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"platcap/internal/cache"
	"platcap/internal/capability"
	"platcap/internal/diag"
	"platcap/internal/observ"
	"platcap/internal/probe"
	"platcap/internal/project"
	"platcap/internal/target"
	"platcap/internal/trace"
	"platcap/internal/version"
)

// session carries what every command needs once the global flags are read:
// the manifest, output settings, the phase timer and cleanup hooks.
type session struct {
	cmd      *cobra.Command
	manifest *project.Manifest
	timer    *observ.Timer

	color   bool
	quiet   bool
	timings bool
	maxDiag int

	cleanup []func()
}

func openSession(cmd *cobra.Command) (*session, error) {
	root := cmd.Root()
	s := &session{cmd: cmd}

	colorFlag, err := root.PersistentFlags().GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		s.color = true
	case "off":
	case "auto":
		s.color = isTerminal(os.Stderr)
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	color.NoColor = !s.color

	if s.quiet, err = root.PersistentFlags().GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = root.PersistentFlags().GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.maxDiag, err = root.PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if s.timings {
		s.timer = observ.NewTimer()
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	s.cleanup = append(s.cleanup, stopProfiling)

	stopTracing, err := setupTracing(cmd)
	if err != nil {
		s.close()
		return nil, err
	}
	s.cleanup = append(s.cleanup, stopTracing)

	manifestPath, err := root.PersistentFlags().GetString("manifest")
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to get manifest flag: %w", err)
	}
	err = s.timer.Track("manifest", func() error {
		if manifestPath != "" {
			m, err := project.ReadManifest(appFS, manifestPath)
			s.manifest = m
			return err
		}
		m, _, err := project.LoadManifest(appFS, ".")
		s.manifest = m
		return err
	})
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) ctx() context.Context {
	return s.cmd.Context()
}

// close prints timings and releases tracing and profiling in reverse order.
func (s *session) close() {
	if s.timer != nil && !s.quiet {
		fmt.Fprint(s.cmd.ErrOrStderr(), s.timer.Summary())
	}
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
}

func (s *session) infof(format string, args ...any) {
	if s.quiet {
		return
	}
	fmt.Fprintf(s.cmd.ErrOrStderr(), format, args...)
}

func (s *session) newBag() *diag.Bag {
	return diag.NewBag(s.maxDiag)
}

// report prints bag to stderr and returns errReported when it holds errors.
func (s *session) report(bag *diag.Bag) error {
	if bag.Len() == 0 {
		return nil
	}
	bag.Dedup()
	bag.Sort()
	if s.quiet && !bag.HasErrors() {
		return nil
	}
	if err := diag.Pretty(s.cmd.ErrOrStderr(), bag, diag.PrettyOpts{Color: s.color, Notes: true}); err != nil {
		return err
	}
	if bag.HasErrors() {
		return errReported
	}
	return nil
}

// resolveTarget picks the target from the flag, then the manifest, then the
// host.
func (s *session) resolveTarget(flagValue string) (target.Target, error) {
	want := strings.TrimSpace(flagValue)
	if want == "" && s.manifest != nil {
		want = strings.TrimSpace(s.manifest.Config.Target.Triple)
	}
	if want == "" {
		return target.Host(), nil
	}
	t, err := target.Parse(want)
	if err != nil {
		return target.Target{}, fmt.Errorf("target %q: %w", want, err)
	}
	return t, nil
}

type probeOptions struct {
	target      string
	includeDirs []string
	noCache     bool
}

func (s *session) probeConfig(opts probeOptions) (probe.Config, error) {
	t, err := s.resolveTarget(opts.target)
	if err != nil {
		return probe.Config{}, err
	}
	cfg := probe.Config{Target: t, FS: appFS}
	if len(opts.includeDirs) > 0 {
		cfg.IncludeDirs = opts.includeDirs
	} else if dirs := s.manifest.IncludeDirs(); len(dirs) > 0 {
		cfg.IncludeDirs = dirs
	}
	if s.manifest != nil {
		cfg.Jobs = s.manifest.Config.Probe.Jobs
		if cfg.Predefines, err = s.manifest.Predefines(); err != nil {
			return probe.Config{}, err
		}
	}
	return cfg, nil
}

// runProbe probes with the disk cache unless it is disabled by flag or
// manifest. Cache failures only cost the cached result.
func (s *session) runProbe(opts probeOptions) (*probe.Result, error) {
	cfg, err := s.probeConfig(opts)
	if err != nil {
		return nil, err
	}
	noCache := opts.noCache || (s.manifest != nil && s.manifest.Config.Probe.NoCache)
	tracer := trace.FromContext(s.ctx())

	var (
		c   *cache.Cache
		key project.Digest
	)
	if !noCache {
		if c, err = cache.Open(appFS, "platcap"); err != nil {
			trace.Error(tracer, trace.ScopeTool, "cache open", err, 0)
			c = nil
		} else if key, err = probe.Fingerprint(cfg, version.Fingerprint()); err != nil {
			trace.Error(tracer, trace.ScopeTool, "fingerprint", err, 0)
			c = nil
		}
	}

	if c != nil {
		var payload cache.Payload
		var hit bool
		_ = s.timer.Track("cache lookup", func() error {
			ok, err := c.Get(key, &payload)
			if err != nil {
				trace.Error(tracer, trace.ScopeTool, "cache get", err, 0)
			}
			hit = ok
			return err
		})
		if hit {
			if res, err := payload.Result(); err == nil {
				trace.Point(tracer, trace.ScopeTool, "cache hit", key.String(), 0)
				return res, nil
			}
		}
	}

	var res *probe.Result
	err = s.timer.Track("probe", func() error {
		var err error
		res, err = probe.Run(s.ctx(), cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	if c != nil {
		if err := c.Put(key, cache.FromResult(res)); err != nil {
			trace.Error(tracer, trace.ScopeTool, "cache put", err, 0)
		}
	}
	return res, nil
}

// required merges names from flags with the manifest [require] list.
func (s *session) required(flagNames []string, bag *diag.Bag) []capability.Name {
	var out []capability.Name
	if s.manifest != nil {
		names, _ := s.manifest.Required()
		out = append(out, names...)
	}
	for _, raw := range flagNames {
		n, ok := capability.ParseName(raw)
		if !ok {
			diag.ReportError(diag.BagReporter{Bag: bag}, diag.CapInvalidName, diag.Location{Path: "--require"},
				fmt.Sprintf("%q is not a valid capability name", raw)).Emit()
			continue
		}
		out = append(out, n)
	}
	return out
}

// checkRequired reports every missing required capability at the manifest
// or command line.
func (s *session) checkRequired(desc *capability.Descriptor, names []capability.Name, bag *diag.Bag) {
	err := desc.Require(names...)
	if err == nil {
		return
	}
	loc := diag.Location{Path: "--require"}
	if s.manifest != nil {
		loc = diag.Location{Path: s.manifest.Path}
	}
	diag.ReportError(diag.BagReporter{Bag: bag}, diag.CapMissingRequired, loc, err.Error()).Emit()
}
