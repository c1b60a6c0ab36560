package diag

import "fmt"

// Location points at the origin of a finding. Line is 1-based; zero means
// the whole source (a probe, the manifest, the command line).
type Location struct {
	Path string
	Line int
}

func (l Location) String() string {
	switch {
	case l.Path == "":
		return "<unknown>"
	case l.Line > 0:
		return fmt.Sprintf("%s:%d", l.Path, l.Line)
	default:
		return l.Path
	}
}

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

func New(sev Severity, code Code, primary Location, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func (d Diagnostic) WithNote(loc Location, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Loc: loc, Msg: msg})
	return d
}
