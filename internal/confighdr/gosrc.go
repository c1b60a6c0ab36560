package confighdr

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"

	"platcap/internal/capability"
)

// RenderGo writes desc as a Go source file of constants in package pkg.
// Flags become untyped bool constants; numeric capabilities become int
// constants (zero when absent) with a Has<Name> companion. Two capabilities
// that map to the same Go identifier are an error.
func RenderGo(desc *capability.Descriptor, pkg string, opts Options) ([]byte, error) {
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("invalid Go package name %q", pkg)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by platcap. DO NOT EDIT.\n// %s\n\n", opts.banner())
	fmt.Fprintf(&buf, "package %s\n\nconst (\n", pkg)
	owners := make(map[string]capability.Name)
	claim := func(ident string, name capability.Name) error {
		if prev, ok := owners[ident]; ok {
			return fmt.Errorf("Go identifier %s is generated for both %s and %s", ident, prev, name)
		}
		owners[ident] = name
		return nil
	}
	for i, name := range desc.Names() {
		if i > 0 {
			buf.WriteString("\n")
		}
		goName := name.GoName()
		if err := claim(goName, name); err != nil {
			return nil, err
		}
		if name.Kind() == capability.KindNumeric {
			if err := claim("Has"+goName, name); err != nil {
				return nil, err
			}
		}
		if info, ok := capability.Lookup(name); ok && info.Comment != "" {
			for _, l := range commentLines(info.Comment) {
				fmt.Fprintf(&buf, "\t// %s\n", l)
			}
		}
		v, defined := desc.ValueOf(name)
		if name.Kind() == capability.KindNumeric {
			fmt.Fprintf(&buf, "\t%s = %d\n", goName, v)
			fmt.Fprintf(&buf, "\tHas%s = %t\n", goName, defined)
			continue
		}
		fmt.Fprintf(&buf, "\t%s = %t\n", goName, defined)
	}
	buf.WriteString(")\n")
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated Go: %w", err)
	}
	return out, nil
}
