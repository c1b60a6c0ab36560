// Package trace is the logging subsystem of platcap.
//
// Probe runs, header loading and output generation emit spans and point
// events through a Tracer carried in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeProbe, "headers", 0)
//	defer span.End("")
//
// # Levels
//
//   - LevelOff: no output
//   - LevelError: only error points
//   - LevelPhase: tool-level phases (probe, load, generate)
//   - LevelDetail: individual probes
//   - LevelDebug: every capability decision
//
// Output is written by StreamTracer as human-readable text or NDJSON.
package trace
