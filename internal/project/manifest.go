package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"platcap/internal/capability"
)

// ManifestName is the file looked up by FindManifest.
const ManifestName = "platcap.toml"

// Manifest is a loaded platcap.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Target  TargetConfig   `toml:"target"`
	Probe   ProbeConfig    `toml:"probe"`
	Define  map[string]any `toml:"define"`
	Require RequireConfig  `toml:"require"`
	Output  OutputConfig   `toml:"output"`
}

type TargetConfig struct {
	Triple string `toml:"triple"`
}

type ProbeConfig struct {
	IncludeDirs []string `toml:"include_dirs"`
	Jobs        int      `toml:"jobs"`
	NoCache     bool     `toml:"no_cache"`
}

type RequireConfig struct {
	Names []string `toml:"names"`
}

type OutputConfig struct {
	Header    string `toml:"header"`
	Go        string `toml:"go"`
	GoPackage string `toml:"go_package"`
	Banner    string `toml:"banner"`
}

// Predefine is an externally supplied capability. Absent predefines come from
// boolean false values and assert the capability is not present.
type Predefine struct {
	Name   capability.Name
	Value  int64
	Absent bool
}

// FindManifest walks up from startDir to locate platcap.toml.
func FindManifest(fs afero.Fs, startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := fs.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest locates and parses the manifest. ok is false when no manifest
// exists above startDir.
func LoadManifest(fs afero.Fs, startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(fs, startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := ReadManifest(fs, path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// ReadManifest parses the manifest at path.
func ReadManifest(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Probe.Jobs < 0 {
		return nil, fmt.Errorf("%s: [probe].jobs must not be negative", path)
	}
	if meta.IsDefined("output", "go") && strings.TrimSpace(cfg.Output.GoPackage) == "" {
		return nil, fmt.Errorf("%s: [output].go requires [output].go_package", path)
	}
	m := &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}
	if _, err := m.Predefines(); err != nil {
		return nil, err
	}
	if _, err := m.Required(); err != nil {
		return nil, err
	}
	return m, nil
}

// Resolve turns a manifest-relative path into an absolute one.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m == nil {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// IncludeDirs returns the probe include directories resolved against Root.
func (m *Manifest) IncludeDirs() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.Config.Probe.IncludeDirs))
	for _, d := range m.Config.Probe.IncludeDirs {
		out = append(out, m.Resolve(d))
	}
	return out
}

// Predefines returns the [define] table in name order.
func (m *Manifest) Predefines() ([]Predefine, error) {
	if m == nil || len(m.Config.Define) == 0 {
		return nil, nil
	}
	out := make([]Predefine, 0, len(m.Config.Define))
	for key, raw := range m.Config.Define {
		name := capability.Name(key)
		if !name.Valid() {
			return nil, fmt.Errorf("%s: [define]: invalid capability name %q", m.Path, key)
		}
		p := Predefine{Name: name}
		switch v := raw.(type) {
		case bool:
			if v {
				p.Value = 1
			} else {
				p.Absent = true
			}
		case int64:
			p.Value = v
		default:
			return nil, fmt.Errorf("%s: [define].%s must be an integer or boolean, got %T", m.Path, key, raw)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Required returns the [require] names.
func (m *Manifest) Required() ([]capability.Name, error) {
	if m == nil {
		return nil, nil
	}
	out := make([]capability.Name, 0, len(m.Config.Require.Names))
	for _, s := range m.Config.Require.Names {
		n, ok := capability.ParseName(s)
		if !ok {
			return nil, fmt.Errorf("%s: [require]: invalid capability name %q", m.Path, s)
		}
		out = append(out, n)
	}
	return out, nil
}

// Origin is the capability origin for values taken from the manifest.
func (m *Manifest) Origin() capability.Origin {
	if m == nil {
		return capability.Origin{Source: ManifestName}
	}
	return capability.Origin{Source: m.Path}
}
