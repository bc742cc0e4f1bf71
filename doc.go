// Package coroflow is a single-threaded, cooperative concurrency runtime for
// composing generator-style tasks into pipelines.
//
// Tasks
//
// A Task is a goroutine-backed Stream: its Func runs to completion on its
// own goroutine and suspends by calling Inner.Await, which hands the actual
// Stream read to the shared CallQueue so every Stream mutation happens on
// the dispatcher. Send/Throw/Pipe on any Stream are always safe to call from
// any goroutine for the same reason.
//
// Composition
//
//   - Compose (and the L|R shorthand it implements) pipes one stream's
//     output into another's input, closing left with BrokenPipe if right
//     finishes first.
//   - Any races a set of sources and reports the first one to produce a
//     result, discarding the rest.
//   - Inner.Sub lets a task temporarily hand its output to another stream
//     while forwarding the task's own input into it.
//
// Driving a pipeline
//
// Run drives a CallQueue until a main Stream has a result, handling signals
// (WithSignals), thread-pool sizing (WithFixedThreadPool/
// WithDynamicThreadPool), and structured logging (WithLogger) along the way.
//
// Batch and stream helpers
//
// RunAll, Map, and ForEach run a slice of work concurrently atop Task and
// the thread pool and collect every result before returning; RunStream,
// MapStream, and ForEachStream do the same for a channel of work, streaming
// results back as they complete.
package coroflow
