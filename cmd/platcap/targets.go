package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"platcap/internal/target"
)

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the targets platcap knows the data model of",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host := target.Host()
			t := &table{header: []string{"TRIPLE", "GOOS/GOARCH", "ORDER", "PTR", "LONG"}}
			for _, tg := range target.Known() {
				order := "little"
				if tg.BigEndian {
					order = "big"
				}
				triple := tg.Triple
				if tg == host {
					triple += " (host)"
				}
				t.add(triple, tg.Pair(), order, strconv.Itoa(tg.PtrSize), strconv.Itoa(tg.LongSize))
			}
			if err := t.write(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("write targets: %w", err)
			}
			return nil
		},
	}
}
