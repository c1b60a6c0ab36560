package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"platcap/internal/cache"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove cached probe results",
		Long:  "Remove every probe result stored in the platcap cache directory.",
		Args:  cobra.NoArgs,
		RunE:  runClean,
	}
}

func runClean(cmd *cobra.Command, _ []string) error {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	c, err := cache.Open(appFS, "platcap")
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	n, err := c.DropAll()
	if err != nil {
		return fmt.Errorf("failed to clean %q: %w", c.Dir(), err)
	}
	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached probe result(s) from %s\n", n, c.Dir())
	}
	return nil
}
