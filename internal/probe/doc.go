// Package probe implements the concurrent probing engine: building one
// HTTP request per applicable site descriptor, executing the requests
// under a bounded worker pool, and classifying each response into an
// existence verdict.
//
// The package is split along the engine's natural seams:
//
//   - Target construction derives the concrete request (URL, method,
//     headers, redirect policy) from a descriptor and an identifier.
//   - Outcome capture turns a completed request into a transport-level
//     record: status, body, elapsed time, or a classified error kind.
//   - Classification is a pure function from (descriptor, outcome) to a
//     QueryStatus; it performs no I/O and is exhaustively tested.
//   - The Dispatcher owns the worker pool and streams one Result per
//     applicable descriptor over a channel.
//
// Transport failures never abort a round: they are captured in the
// outcome and surface as Unknown verdicts with a context message.
package probe
