// Package cache persists probe results between runs, keyed by the probe
// fingerprint.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	"platcap/internal/capability"
	"platcap/internal/probe"
	"platcap/internal/project"
	"platcap/internal/target"
)

// schemaVersion must be bumped whenever Payload changes shape.
const schemaVersion uint16 = 1

// Cache stores payloads under <dir>/probes/<digest>.mp.
// Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

// Payload is the on-disk form of a probe Result.
type Payload struct {
	Schema uint16

	Triple string
	GOOS   string
	GOARCH string

	Entries []EntryPayload
	Absent  []AbsentPayload

	Findings []FindingPayload
}

type EntryPayload struct {
	Name   string
	Value  int64
	Source string
	Line   int
}

type AbsentPayload struct {
	Name   string
	Source string
}

type FindingPayload struct {
	Name    string
	Present bool
	Value   int64
	Detail  string
	Applied bool
}

// Open returns the cache under $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
func Open(fs afero.Fs, app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return New(fs, filepath.Join(base, app))
}

// New returns a cache rooted at dir.
func New(fs afero.Fs, dir string) (*Cache, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{fs: fs, dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "probes", key.String()+".mp")
}

// Put writes payload atomically.
func (c *Cache) Put(key project.Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := c.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := afero.TempFile(c.fs, filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	payload.Schema = schemaVersion
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = c.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = c.fs.Remove(tmp)
		return err
	}
	if err := c.fs.Rename(tmp, p); err != nil {
		_ = c.fs.Remove(tmp)
		return err
	}
	return nil
}

// Get reads the payload for key. A missing entry or one written with another
// schema reports false.
func (c *Cache) Get(key project.Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := c.fs.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every cached entry and reports how many were dropped.
func (c *Cache) DropAll() (int, error) {
	if c == nil {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Join(c.dir, "probes")
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".mp" {
			n++
		}
	}
	if err := c.fs.RemoveAll(dir); err != nil {
		return 0, err
	}
	return n, nil
}

// FromResult converts a probe result into its cached form.
func FromResult(res *probe.Result) *Payload {
	p := &Payload{
		Triple: res.Target.Triple,
		GOOS:   res.Target.GOOS,
		GOARCH: res.Target.GOARCH,
	}
	for _, e := range res.Descriptor.Entries() {
		p.Entries = append(p.Entries, EntryPayload{
			Name: string(e.Name), Value: e.Value, Source: e.Origin.Source, Line: e.Origin.Line,
		})
	}
	for _, n := range res.Descriptor.Names() {
		if o, ok := res.Descriptor.AbsentOrigin(n); ok {
			p.Absent = append(p.Absent, AbsentPayload{Name: string(n), Source: o.Source})
		}
	}
	for _, f := range res.Findings {
		p.Findings = append(p.Findings, FindingPayload{
			Name: string(f.Name), Present: f.Present, Value: f.Value, Detail: f.Detail, Applied: f.Applied,
		})
	}
	return p
}

// Result rebuilds the probe result. The target is recomputed from GOOS and
// GOARCH so the cached triple spelling is kept.
func (p *Payload) Result() (*probe.Result, error) {
	t, err := target.New(p.GOOS, p.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("cached target: %w", err)
	}
	t.Triple = p.Triple

	b := capability.NewBuilder()
	for _, e := range p.Entries {
		origin := capability.Origin{Source: e.Source, Line: e.Line}
		if err := b.Define(capability.Name(e.Name), e.Value, origin); err != nil {
			return nil, fmt.Errorf("cached entry: %w", err)
		}
	}
	for _, a := range p.Absent {
		if err := b.MarkAbsent(capability.Name(a.Name), capability.Origin{Source: a.Source}); err != nil {
			return nil, fmt.Errorf("cached entry: %w", err)
		}
	}
	desc, err := b.Build()
	if err != nil {
		return nil, err
	}
	res := &probe.Result{Target: t, Descriptor: desc}
	for _, f := range p.Findings {
		res.Findings = append(res.Findings, probe.Finding{
			Name: capability.Name(f.Name), Present: f.Present, Value: f.Value, Detail: f.Detail, Applied: f.Applied,
		})
	}
	return res, nil
}
