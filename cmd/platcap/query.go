package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"platcap/internal/capability"
	"platcap/internal/confighdr"
	"platcap/internal/diag"
)

type queryFlags struct {
	probeFlags
	headers []string
}

func newQueryCmd() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query [flags] <NAME>...",
		Short: "Report whether capabilities are defined",
		Long: `query prints "defined" with the value, or "undefined", for each name. The
facts come from --header files when given, otherwise from probing the target.
Unknown names are simply undefined.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, f)
		},
	}
	cmd.Flags().StringArrayVar(&f.headers, "header", nil, "read facts from a configuration header instead of probing (repeatable)")
	cmd.Flags().StringVar(&f.target, "target", "", "target to probe when no --header is given")
	cmd.Flags().StringArrayVar(&f.includeDirs, "include-dir", nil, "directory to search for system headers (repeatable)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "ignore and do not update the probe cache")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string, f queryFlags) error {
	names := make([]capability.Name, 0, len(args))
	for _, a := range args {
		n, ok := capability.ParseName(a)
		if !ok {
			return fmt.Errorf("%q is not a valid capability name", a)
		}
		names = append(names, n)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var desc *capability.Descriptor
	if len(f.headers) > 0 {
		bag := s.newBag()
		r := diag.BagReporter{Bag: bag}
		b := capability.NewBuilder()
		for _, h := range f.headers {
			if err := confighdr.LoadFile(appFS, h, b, r); err != nil {
				return err
			}
		}
		if err := s.report(bag); err != nil {
			return err
		}
		if desc, err = b.Build(); err != nil {
			return err
		}
	} else {
		res, err := s.runProbe(probeOptions{target: f.target, includeDirs: f.includeDirs, noCache: f.noCache})
		if err != nil {
			return err
		}
		desc = res.Descriptor
	}

	t := &table{}
	for _, n := range names {
		if v, ok := desc.ValueOf(n); ok {
			t.add(string(n), "defined", fmt.Sprint(v))
		} else {
			t.add(string(n), "undefined")
		}
	}
	return t.write(cmd.OutOrStdout())
}
