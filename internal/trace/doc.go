// Package trace records what happened during laziness checks.
//
// Every guarded report, every checker session and the enclosing run can be
// emitted as an event so that a failing check can be explained after the
// fact: which stub was computed, at what ceiling, and whether the guard
// accepted it.
//
// # Usage
//
//	lazycheck check --trace=- --trace-level=report
//
// # Tracers
//
//   - Nop: disabled tracing, zero overhead
//   - StreamTracer: writes each event as it arrives
//   - RingTracer: keeps the last N events for dumping on failure
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// A level admits every scope at or above its granularity:
//
//   - LevelOff: nothing
//   - LevelError: only rejected reports
//   - LevelSession: run and session boundaries
//   - LevelReport: individual guard reports
//   - LevelDebug: everything
//
// Tracers travel with the context:
//
//	ctx = trace.WithTracer(ctx, t)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeSession, "foo.Bar", 0)
//	defer span.End("")
package trace
