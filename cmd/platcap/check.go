package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"platcap/internal/capability"
	"platcap/internal/confighdr"
	"platcap/internal/diag"
)

type checkFlags struct {
	records []string
	require []string
	format  string
}

func newCheckCmd() *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "check [flags] <header>...",
		Short: "Verify that configuration headers and records agree",
		Long: `check loads the manifest predefines, then every header and record in order,
through the same rules a C build applies: guarded definitions keep the first
value, unguarded statements must agree, and a record or #undef asserting
absence conflicts with a definition. Conflicts, malformed values and
missing required capabilities are reported and make the command fail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, f)
		},
	}
	cmd.Flags().StringArrayVar(&f.records, "record", nil, "JSON capability record to load after the headers (repeatable)")
	cmd.Flags().StringArrayVar(&f.require, "require", nil, "fail unless the capability is defined (repeatable)")
	cmd.Flags().StringVar(&f.format, "format", "pretty", "diagnostic format (pretty|short|json)")
	return cmd
}

func runCheck(cmd *cobra.Command, headers []string, f checkFlags) error {
	format := strings.ToLower(f.format)
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", f.format)
	}
	if len(headers) == 0 && len(f.records) == 0 {
		return fmt.Errorf("nothing to check: pass at least one header or --record")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	bag := s.newBag()
	r := diag.BagReporter{Bag: bag}
	b := capability.NewBuilder()

	if err := applyPredefines(s, b, r); err != nil {
		return err
	}
	err = s.timer.Track("load", func() error {
		for _, h := range headers {
			if err := confighdr.LoadFile(appFS, h, b, r); err != nil {
				return err
			}
		}
		for _, rec := range f.records {
			confighdr.LoadRecord(appFS, rec, b, r)
		}
		return nil
	})
	if err != nil {
		return err
	}

	desc, err := b.Build()
	if err != nil {
		confighdr.ReportError(r, err, diag.Location{})
	} else {
		s.checkRequired(desc, s.required(f.require, bag), bag)
	}

	switch format {
	case "short", "json":
		bag.Dedup()
		bag.Sort()
		var err error
		if format == "short" {
			err = diag.Short(cmd.ErrOrStderr(), bag, true)
		} else {
			err = diag.JSON(cmd.OutOrStdout(), bag, true)
		}
		if err != nil {
			return err
		}
		if bag.HasErrors() {
			return errReported
		}
	default:
		if err := s.report(bag); err != nil {
			return err
		}
	}
	s.infof("ok: %d capabilities defined\n", desc.Len())
	return nil
}

// applyPredefines feeds the manifest [define] table into b before any header.
func applyPredefines(s *session, b *capability.Builder, r diag.Reporter) error {
	if s.manifest == nil {
		return nil
	}
	predefs, err := s.manifest.Predefines()
	if err != nil {
		return err
	}
	origin := s.manifest.Origin()
	loc := diag.Location{Path: s.manifest.Path}
	for _, p := range predefs {
		var err error
		if p.Absent {
			err = b.DefineAbsent(p.Name, origin)
		} else {
			err = b.Define(p.Name, p.Value, origin)
		}
		if err != nil {
			diag.ReportError(r, diag.InpBadPredefine, loc, err.Error()).Emit()
		}
	}
	return nil
}
