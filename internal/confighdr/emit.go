package confighdr

import (
	"bytes"
	"fmt"
	"strings"

	"platcap/internal/capability"
)

// Options controls rendering of generated files.
type Options struct {
	// Banner replaces the first comment line. Empty means DefaultBanner.
	Banner string
	// Target is named in the default banner.
	Target string
}

// DefaultBanner returns the banner used when Options.Banner is empty.
func DefaultBanner(target string) string {
	if target == "" {
		return "Generated by platcap.  DO NOT EDIT."
	}
	return fmt.Sprintf("Generated by platcap for %s.  DO NOT EDIT.", target)
}

func (o Options) banner() string {
	if o.Banner != "" {
		return o.Banner
	}
	return DefaultBanner(o.Target)
}

// RenderHeader writes desc as a guarded configuration header. Every catalogued
// capability gets a block, present or not, so the output is the same shape
// on every platform and identical for identical descriptors.
func RenderHeader(desc *capability.Descriptor, opts Options) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "/* %s */\n", opts.banner())
	for _, name := range desc.Names() {
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "#ifndef %s\n", name)
		if info, ok := capability.Lookup(name); ok && info.Comment != "" {
			fmt.Fprintf(&buf, "/* %s */\n", info.Comment)
		}
		if v, ok := desc.ValueOf(name); ok {
			fmt.Fprintf(&buf, "#define %s %d\n", name, v)
		} else {
			fmt.Fprintf(&buf, "/* #undef %s */\n", name)
		}
		fmt.Fprintf(&buf, "#endif /* %s */\n", name)
	}
	return buf.Bytes()
}

// commentLines splits a catalogue comment for use in line comments.
func commentLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}
