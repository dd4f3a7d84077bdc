// Package sandbox executes validated analysis scripts against a dataset
// copy under hard resource bounds. Scripts run as Starlark on an isolated
// goroutine with a minimal allow-listed environment: the dataset frame,
// aggregation helpers, and the math/time/json modules. No filesystem,
// process, network, or environment binding exists in that environment by
// construction.
//
// The wall-clock budget is enforced by abandonment: a worker that misses
// the deadline is cancelled cooperatively and its eventual output, if any,
// is discarded without ever becoming reachable by the caller. A runaway
// computation that ignores cancellation cannot be force-killed at
// goroutine granularity; deployments needing that guarantee should run
// the server itself under process or VM isolation.
package sandbox
