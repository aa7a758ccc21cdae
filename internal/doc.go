// Package internal contains helpers private to jwtdata, currently session
// handle generation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators behind every Engine payload operation
//   - metrics: lock-free counters and latency histograms
//   - rate: per-IP throttle for repeated unauthorized lookups
//   - cfg: server configuration loading (YAML file plus environment)
//   - logging: zerolog construction for the binaries
//
// # What this package must NOT do
//
//   - Export types that appear in the public jwtdata API.
//   - Be imported by any package outside the jwtdata module.
package internal
