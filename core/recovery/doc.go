// Package recovery wraps source adapter calls with timeout, retry, and
// circuit-breaking policy so that one misbehaving source cannot take down a
// reconciliation batch.
//
// # Policy
//
// Every call through the Controller gets:
//
//   - a per-call timeout (pagination and file parsing durations are hard to
//     bound per batch, so timeouts apply per call)
//   - exponential backoff retries over the fixed ladder 1s, 2s, 4s, 8s, 16s,
//     capped by the configured retry budget; a rate-limited response that
//     carries a server-provided delay overrides the ladder step
//   - a circuit breaker per source that opens after N consecutive transport
//     failures, rejects calls for a cooldown window, then lets a single probe
//     through in half-open state
//
// Malformed input (ParseError) is handled differently: it is never retried
// and never trips the circuit, since a bad file says nothing about source
// health.
// Instead the configured Quarantiner moves the input aside exactly once and
// the call fails permanently for the current batch.
//
// Circuit state is persisted through a StateStore so it survives across
// batches; the clock is injected so tests can simulate elapsed time.
package recovery
