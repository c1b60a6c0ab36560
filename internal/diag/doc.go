// Package diag defines the diagnostic model used to report build-configuration
// inconsistencies: conflicting capability definitions, malformed probe values,
// missing required capabilities, and malformed header input.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – short, actionable text that names the offending capability.
//   - Primary – Location of the finding (header path and line, manifest, probe).
//   - Notes – optional secondary locations, e.g. where the first definition
//     of a conflicting capability lives.
//
// # Emitting diagnostics
//
// Producers report through a Reporter. ReportError / ReportWarning /
// ReportInfo build a diagnostic, WithNote attaches context, Emit sends it.
// BagReporter collects into a Bag, which supports sorting, deduplication and
// the HasErrors check that turns findings into a failed build.
//
// Rendering lives in format.go: Pretty for terminals (optionally coloured
// with fatih/color) and Short for stable one-line-per-entry output.
package diag
