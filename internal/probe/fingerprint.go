package probe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"platcap/internal/project"
)

// Fingerprint digests everything a probe run depends on: the target, the
// include search path, the predefines, the tool version and the identity of
// every candidate header file. Equal fingerprints yield equal results.
func Fingerprint(cfg Config, toolVersion string) (project.Digest, error) {
	cfg.normalize()
	fields := map[string]string{
		"tool":     toolVersion,
		"triple":   cfg.Target.Triple,
		"goos":     cfg.Target.GOOS,
		"goarch":   cfg.Target.GOARCH,
		"include":  strings.Join(cfg.IncludeDirs, string(filepath.ListSeparator)),
		"big":      strconv.FormatBool(cfg.Target.BigEndian),
		"longsize": strconv.Itoa(cfg.Target.LongSize),
	}
	for _, p := range cfg.Predefines {
		v := strconv.FormatInt(p.Value, 10)
		if p.Absent {
			v = "absent"
		}
		fields["define:"+string(p.Name)] = v
	}
	for _, dir := range cfg.IncludeDirs {
		for _, h := range headers {
			candidate := filepath.Join(dir, filepath.FromSlash(h.file))
			info, err := cfg.FS.Stat(candidate)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
					continue
				}
				return project.Digest{}, fmt.Errorf("fingerprint %s: %w", candidate, err)
			}
			fields["file:"+candidate] = fmt.Sprintf("%d:%d:%s", info.Size(), info.ModTime().UnixNano(), info.Mode())
		}
	}
	return project.HashFields(fields), nil
}
