package confighdr

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"platcap/internal/capability"
	"platcap/internal/diag"
)

// Apply feeds the directives of f into b in file order. Guarded statements
// keep an earlier fact; unguarded ones, absences included, must agree with it. Inconsistencies
// are reported to r and do not stop the remaining directives.
func (f *File) Apply(b *capability.Builder, r diag.Reporter) {
	if f == nil {
		return
	}
	if r == nil {
		r = diag.NopReporter{}
	}
	for _, d := range f.Directives {
		loc := diag.Location{Path: f.Path, Line: d.Line}
		origin := capability.Origin{Source: f.Path, Line: d.Line}
		if !d.Name.Known() {
			diag.ReportWarning(r, diag.CapUnknownName, loc,
				fmt.Sprintf("%s is not a catalogued capability; treating it as a flag", d.Name)).Emit()
		}
		switch d.Kind {
		case DirDefine:
			var err error
			if d.Guarded {
				_, err = b.DefineGuarded(d.Name, d.Value, origin)
			} else {
				err = b.Define(d.Name, d.Value, origin)
			}
			if err != nil {
				ReportError(r, err, loc)
			}
		case DirAbsent:
			var err error
			if d.Guarded {
				err = b.MarkAbsent(d.Name, origin)
			} else {
				err = b.DefineAbsent(d.Name, origin)
			}
			if err != nil {
				ReportError(r, err, loc)
			}
		case DirUndef:
			if prev, ok := b.Lookup(d.Name); ok {
				diag.ReportError(r, diag.CapUndefDefined, loc,
					fmt.Sprintf("#undef %s would retract an established capability", d.Name)).
					WithNote(originLoc(prev.Origin), "defined here").
					Emit()
				continue
			}
			if err := b.DefineAbsent(d.Name, origin); err != nil {
				ReportError(r, err, loc)
			}
		}
	}
}

// LoadFile reads, parses and applies one header.
func LoadFile(fs afero.Fs, path string, b *capability.Builder, r diag.Reporter) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	Parse(path, data, r).Apply(b, r)
	return nil
}

// ReportError converts a capability error into a diagnostic at loc. Errors of
// other types are reported as malformed values.
func ReportError(r diag.Reporter, err error, loc diag.Location) {
	var ce *capability.Error
	if !errors.As(err, &ce) {
		diag.ReportError(r, diag.CapMalformedValue, loc, err.Error()).Emit()
		return
	}
	switch ce.Kind {
	case capability.ErrConflict:
		note := fmt.Sprintf("%s first defined as %d here", ce.Name, ce.Prev.Value)
		if ce.PrevAbsent {
			note = fmt.Sprintf("%s first asserted absent here", ce.Name)
		}
		diag.ReportError(r, diag.CapConflict, loc, ce.Error()).
			WithNote(originLoc(ce.Prev.Origin), note).
			Emit()
	case capability.ErrMissing:
		diag.ReportError(r, diag.CapMissingRequired, loc, ce.Error()).Emit()
	default:
		code := diag.CapMalformedValue
		if !ce.Name.Valid() {
			code = diag.CapInvalidName
		}
		diag.ReportError(r, code, loc, ce.Error()).Emit()
	}
}

func originLoc(o capability.Origin) diag.Location {
	return diag.Location{Path: o.Source, Line: o.Line}
}
