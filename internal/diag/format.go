package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// PrettyOpts controls Pretty rendering.
type PrettyOpts struct {
	Color bool
	Notes bool
}

// Pretty renders each diagnostic as
//
//	<location>: <SEV> <CODE>: <message>
//	    note: <location>: <message>
//
// followed by a summary line. The bag is expected to be sorted.
func Pretty(w io.Writer, bag *Bag, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}
	locColor := color.New(color.Bold)
	noteColor := color.New(color.FgCyan)
	var errs, warns int
	for _, d := range bag.Items() {
		sevColor := color.New(color.FgBlue, color.Bold)
		switch d.Severity {
		case SevError:
			errs++
			sevColor = color.New(color.FgRed, color.Bold)
		case SevWarning:
			warns++
			sevColor = color.New(color.FgYellow, color.Bold)
		}
		if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
			paint(locColor, d.Primary.String()),
			paint(sevColor, d.Severity.String()),
			d.Code.ID(),
			sanitizeMessage(d.Message)); err != nil {
			return err
		}
		if !opts.Notes {
			continue
		}
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "    %s %s: %s\n", paint(noteColor, "note:"), n.Loc, sanitizeMessage(n.Msg)); err != nil {
				return err
			}
		}
	}
	if errs == 0 && warns == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "%d error(s), %d warning(s)\n", errs, warns)
	return err
}

// Short renders diagnostics one per line in a stable form suitable for
// scripts and golden files:
//
//	<severity> <CODE> <location> <message>
func Short(w io.Writer, bag *Bag, includeNotes bool) error {
	if bag == nil {
		return nil
	}
	var b strings.Builder
	for _, d := range bag.Items() {
		fmt.Fprintf(&b, "%s %s %s %s\n", d.Severity.Label(), d.Code.ID(), d.Primary, sanitizeMessage(d.Message))
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "note %s %s %s\n", d.Code.ID(), n.Loc, sanitizeMessage(n.Msg))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
