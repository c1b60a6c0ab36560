package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"platcap/internal/confighdr"
	"platcap/internal/probe"
	"platcap/internal/project"
	"platcap/internal/trace"
)

type generateFlags struct {
	probeFlags
	header  string
	goOut   string
	require []string
	watch   bool
}

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 150 * time.Millisecond

func newGenerateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Probe the target and write the configuration header and Go constants",
		Long: `generate probes the target and writes the outputs named by flags or by the
[output] table of platcap.toml. Files whose content would not change are left
untouched, so regenerating does not trigger rebuilds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.target, "target", "", "target as goos/goarch or a GNU triple (default: manifest, then host)")
	cmd.Flags().StringArrayVar(&f.includeDirs, "include-dir", nil, "directory to search for system headers (repeatable)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "ignore and do not update the probe cache")
	cmd.Flags().StringVar(&f.header, "header", "", "write the guarded configuration header to file")
	cmd.Flags().StringVar(&f.goOut, "go", "", "write Go constants to file")
	cmd.Flags().StringVar(&f.goPackage, "go-package", "", "package name for --go (default: manifest, then the output directory name)")
	cmd.Flags().StringArrayVar(&f.require, "require", nil, "fail unless the capability is defined (repeatable)")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "regenerate when the manifest or system headers change")
	return cmd
}

type outputs struct {
	header    string
	goOut     string
	goPackage string
	banner    string
}

func resolveOutputs(m *project.Manifest, f generateFlags) (outputs, error) {
	var o outputs
	if m != nil {
		o.header = m.Resolve(m.Config.Output.Header)
		o.goOut = m.Resolve(m.Config.Output.Go)
		o.goPackage = m.Config.Output.GoPackage
		o.banner = m.Config.Output.Banner
	}
	if f.header != "" {
		o.header = f.header
	}
	if f.goOut != "" {
		o.goOut = f.goOut
	}
	if f.goPackage != "" {
		o.goPackage = f.goPackage
	}
	if o.header == "" && o.goOut == "" {
		return outputs{}, errors.New("nothing to generate: pass --header or --go, or set [output] in " + project.ManifestName)
	}
	if o.goOut != "" && o.goPackage == "" {
		o.goPackage = filepath.Base(filepath.Dir(o.goOut))
	}
	return o, nil
}

func runGenerate(cmd *cobra.Command, f generateFlags) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if err := generateOnce(s, f); err != nil {
		if !f.watch || !errors.Is(err, errReported) {
			return err
		}
	}
	if !f.watch {
		return nil
	}
	ctx, stop := signal.NotifyContext(s.ctx(), os.Interrupt)
	defer stop()
	return watchAndRegenerate(ctx, s, f)
}

func generateOnce(s *session, f generateFlags) error {
	out, err := resolveOutputs(s.manifest, f)
	if err != nil {
		return err
	}
	res, err := s.runProbe(probeOptions{target: f.target, includeDirs: f.includeDirs, noCache: f.noCache})
	if err != nil {
		return err
	}

	bag := s.newBag()
	s.checkRequired(res.Descriptor, s.required(f.require, bag), bag)
	if err := s.report(bag); err != nil {
		return err
	}

	opts := confighdr.Options{Banner: out.banner, Target: res.Target.Triple}
	return s.timer.Track("write", func() error {
		if out.header != "" {
			if err := s.writeOutput(out.header, confighdr.RenderHeader(res.Descriptor, opts)); err != nil {
				return err
			}
		}
		if out.goOut != "" {
			data, err := confighdr.RenderGo(res.Descriptor, out.goPackage, opts)
			if err != nil {
				return err
			}
			if err := s.writeOutput(out.goOut, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *session) writeOutput(path string, data []byte) error {
	wrote, err := confighdr.WriteIfChanged(appFS, path, data)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if wrote {
		s.infof("wrote %s\n", path)
	} else {
		s.infof("%s unchanged\n", path)
	}
	return nil
}

// watchedDirs lists the directories whose changes can alter the outputs: the
// manifest directory and every include directory with its sys/ subdirectory.
func watchedDirs(s *session, f generateFlags) ([]string, error) {
	var dirs []string
	if s.manifest != nil {
		dirs = append(dirs, s.manifest.Root)
	}
	cfg, err := s.probeConfig(probeOptions{target: f.target, includeDirs: f.includeDirs})
	if err != nil {
		return nil, err
	}
	inc := cfg.IncludeDirs
	if inc == nil {
		inc = probe.DefaultIncludeDirs(cfg.Target)
	}
	for _, d := range inc {
		dirs = append(dirs, d, filepath.Join(d, "sys"))
	}
	return dirs, nil
}

func watchAndRegenerate(ctx context.Context, s *session, f generateFlags) error {
	tracer := trace.FromContext(ctx)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := watchedDirs(s, f)
	if err != nil {
		return err
	}
	watched := 0
	for _, d := range existingDirs(appFS, dirs) {
		if err := watcher.Add(d); err != nil {
			trace.Error(tracer, trace.ScopeTool, "watch "+d, err, 0)
			continue
		}
		watched++
	}
	if watched == 0 {
		return errors.New("watch: none of the manifest or include directories exist")
	}
	s.infof("watching %d directories, press Ctrl-C to stop\n", watched)

	outs, _ := resolveOutputs(s.manifest, f)
	ignore := map[string]bool{}
	for _, p := range []string{outs.header, outs.goOut} {
		if p != "" {
			if abs, err := filepath.Abs(p); err == nil {
				ignore[abs] = true
			}
		}
	}

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if abs, err := filepath.Abs(event.Name); err == nil && ignore[abs] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			trace.Point(tracer, trace.ScopeTool, "watch event", event.String(), 0)
			debounce.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			trace.Error(tracer, trace.ScopeTool, "watch", err, 0)
		case <-debounce.C:
			if s.manifest != nil {
				m, err := project.ReadManifest(appFS, s.manifest.Path)
				if err != nil {
					fmt.Fprintf(s.cmd.ErrOrStderr(), "platcap: %v\n", err)
					continue
				}
				s.manifest = m
			}
			if err := generateOnce(s, f); err != nil && !errors.Is(err, errReported) {
				fmt.Fprintf(s.cmd.ErrOrStderr(), "platcap: %v\n", err)
			}
		}
	}
}

// existingDirs keeps the entries of dirs that are directories on fs.
func existingDirs(fs afero.Fs, dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if ok, err := afero.IsDir(fs, d); err == nil && ok {
			out = append(out, d)
		}
	}
	return out
}
