package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"platcap/internal/version"
)

// errReported signals that diagnostics were already printed and the process
// should only exit non-zero.
var errReported = errors.New("errors reported")

// appFS is the filesystem every command reads and writes through.
var appFS afero.Fs = afero.NewOsFs()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "platcap: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "platcap",
		Short: "Platform capability descriptor toolkit",
		Long: `platcap establishes the capability facts of a build target (byte order,
64-bit integer support, the width of long, system header availability) and
writes them as a guarded configuration header or a Go constants file.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.String("manifest", "", "path to platcap.toml (default: search upwards from the working directory)")
	pf.String("trace", "", "write trace events to file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	root.AddCommand(
		newProbeCmd(),
		newGenerateCmd(),
		newCheckCmd(),
		newQueryCmd(),
		newTargetsCmd(),
		newCleanCmd(),
		newVersionCmd(),
	)
	return root
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
