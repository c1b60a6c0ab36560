package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"platcap/internal/confighdr"
	"platcap/internal/portable"
	"platcap/internal/probe"
)

type probeFlags struct {
	target      string
	includeDirs []string
	format      string
	goPackage   string
	noCache     bool
}

func newProbeCmd() *cobra.Command {
	var f probeFlags
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe the target and print its capability record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbeCmd(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.target, "target", "", "target as goos/goarch or a GNU triple (default: manifest, then host)")
	cmd.Flags().StringArrayVar(&f.includeDirs, "include-dir", nil, "directory to search for system headers (repeatable)")
	cmd.Flags().StringVar(&f.format, "format", "pretty", "output format (pretty|json|header|go)")
	cmd.Flags().StringVar(&f.goPackage, "go-package", "pcfg", "package name for --format go")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "ignore and do not update the probe cache")
	return cmd
}

func runProbeCmd(cmd *cobra.Command, f probeFlags) error {
	format := strings.ToLower(f.format)
	switch format {
	case "pretty", "json", "header", "go":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json, header or go)", f.format)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.runProbe(probeOptions{target: f.target, includeDirs: f.includeDirs, noCache: f.noCache})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	opts := confighdr.Options{Target: res.Target.Triple}
	if s.manifest != nil {
		opts.Banner = s.manifest.Config.Output.Banner
	}

	switch format {
	case "json":
		data, err := confighdr.EncodeRecord(res.Descriptor.Record())
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "header":
		_, err := out.Write(confighdr.RenderHeader(res.Descriptor, opts))
		return err
	case "go":
		data, err := confighdr.RenderGo(res.Descriptor, f.goPackage, opts)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		return renderProbePretty(out, res)
	}
}

func renderProbePretty(w io.Writer, res *probe.Result) error {
	title := color.New(color.Bold)
	present := color.New(color.FgGreen)
	absent := color.New(color.FgYellow)

	if _, err := title.Fprintf(w, "target %s (%s)\n\n", res.Target.Triple, res.Target.Pair()); err != nil {
		return err
	}
	t := &table{header: []string{"CAPABILITY", "STATE", "VALUE", "SOURCE"}}
	for _, f := range res.Findings {
		state := absent.Sprint("absent")
		value := "-"
		if v, ok := res.Descriptor.ValueOf(f.Name); ok {
			state = present.Sprint("defined")
			value = strconv.FormatInt(v, 10)
		}
		source := f.Detail
		if e, ok := res.Descriptor.Entry(f.Name); ok && !f.Applied {
			source = "kept " + e.Origin.String()
		}
		t.add(string(f.Name), state, value, source)
	}
	if err := t.write(w); err != nil {
		return err
	}

	d := res.Descriptor
	includes := strings.Join(portable.Includes(d), ", ")
	if includes == "" {
		includes = "none"
	}
	_, err := fmt.Fprintf(w, "\nbyte order:  %s\n64-bit ops:  %s\nlong:        %d bits\nint8 alias:  %s\nincludes:    %s\n",
		portable.ByteOrder(d), portable.SelectOps(d).Name(), portable.LongBits(d), yesNo(portable.NeedInt8Alias(d), "needed", "provided"), includes)
	return err
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
