package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"platcap/internal/capability"
	"platcap/internal/version"
)

type versionOptions struct {
	format   string
	showHash bool
	showDate bool
	showHost bool
}

type versionPayload struct {
	Tool      string             `json:"tool"`
	Version   string             `json:"version"`
	GitCommit string             `json:"git_commit,omitempty"`
	BuildDate string             `json:"build_date,omitempty"`
	Host      *capability.Record `json:"host,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var (
		opts versionOptions
		full bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show platcap build fingerprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.format = strings.ToLower(opts.format)
			if full {
				opts.showHash, opts.showDate, opts.showHost = true, true, true
			}
			switch opts.format {
			case "pretty", "json":
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", opts.format)
			}
			if opts.format == "json" {
				return renderVersionJSON(cmd.OutOrStdout(), opts)
			}
			renderVersionPretty(cmd.OutOrStdout(), opts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.showHash, "hash", false, "include git commit hash")
	cmd.Flags().BoolVar(&opts.showDate, "date", false, "include build timestamp")
	cmd.Flags().BoolVar(&opts.showHost, "host", false, "include the capabilities this binary was compiled with")
	cmd.Flags().BoolVar(&full, "full", false, "show every recorded bit of build metadata")
	cmd.Flags().StringVar(&opts.format, "format", "pretty", "output format (pretty|json)")
	return cmd
}

func renderVersionPretty(out io.Writer, opts versionOptions) {
	fmt.Fprintf(out, "platcap %s\n", version.Pretty())
	if opts.showHash {
		fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(version.GitCommit))
	}
	if opts.showDate {
		fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(version.BuildDate))
	}
	if opts.showHost {
		rec := capability.Host().Record()
		order := "little-endian"
		if rec.BigEndian {
			order = "big-endian"
		}
		fmt.Fprintf(out, "host:   %s, %d-byte long\n", order, rec.NativeLongSizeBytes)
	}
}

func renderVersionJSON(out io.Writer, opts versionOptions) error {
	payload := versionPayload{
		Tool:    "platcap",
		Version: version.String(),
	}
	if opts.showHash {
		payload.GitCommit = valueOrUnknown(version.GitCommit)
	}
	if opts.showDate {
		payload.BuildDate = valueOrUnknown(version.BuildDate)
	}
	if opts.showHost {
		rec := capability.Host().Record()
		payload.Host = &rec
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
