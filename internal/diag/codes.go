package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// capability bookkeeping
	CapInfo            Code = 1000
	CapConflict        Code = 1001
	CapMalformedValue  Code = 1002
	CapMissingRequired Code = 1003
	CapUnknownName     Code = 1004
	CapUndefDefined    Code = 1005
	CapInvalidName     Code = 1006

	// header input
	HdrInfo                 Code = 2000
	HdrUnterminatedGuard    Code = 2001
	HdrStrayEndif           Code = 2002
	HdrUnterminatedComment  Code = 2003
	HdrGuardMismatch        Code = 2004
	HdrUnsupportedDirective Code = 2005
	HdrBadDirective         Code = 2006

	// record / manifest input
	InpInfo          Code = 3000
	InpBadRecord     Code = 3001
	InpBadPredefine  Code = 3002
	InpUnknownTarget Code = 3003

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	CapInfo:                 "Capability information",
	CapConflict:             "Conflicting capability definition",
	CapMalformedValue:       "Malformed capability value",
	CapMissingRequired:      "Required capability not defined",
	CapUnknownName:          "Capability outside the catalogue",
	CapUndefDefined:         "Undefining an established capability",
	CapInvalidName:          "Invalid capability name",
	HdrInfo:                 "Header information",
	HdrUnterminatedGuard:    "Unterminated conditional block",
	HdrStrayEndif:           "#endif without matching conditional",
	HdrUnterminatedComment:  "Unterminated block comment",
	HdrGuardMismatch:        "Guard does not match the defined name",
	HdrUnsupportedDirective: "Unsupported preprocessor directive",
	HdrBadDirective:         "Malformed preprocessor directive",
	InpInfo:                 "Input information",
	InpBadRecord:            "Malformed capability record",
	InpBadPredefine:         "Malformed predefined capability",
	InpUnknownTarget:        "Unknown target",
	ObsInfo:                 "Observability information",
	ObsTimings:              "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CAP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("HDR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("INP%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
