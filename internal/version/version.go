// Package version holds build metadata for the platcap CLI. The variables
// can be overridden at build time via -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	GitCommit = ""

	// BuildDate is an ISO-8601 timestamp.
	BuildDate = ""
)

// String returns Version, or "dev" when it was blanked out.
func String() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	return v
}

// Pretty colours the major, minor and patch components. Pre-release and
// build suffixes are left plain.
func Pretty() string {
	v := String()
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + suffix
}

// Fingerprint identifies the build for cache keys.
func Fingerprint() string {
	if c := strings.TrimSpace(GitCommit); c != "" {
		return String() + "+" + c
	}
	return String()
}
