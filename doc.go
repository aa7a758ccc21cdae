// Package jwtdata reads and replaces the JWT payload attached to a live
// session, addressed by its session handle.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Outcomes
//
// [Engine.GetPayload] and [Engine.SetPayload] return a [PayloadResult]. A handle
// that does not resolve to a live session is an expected outcome, reported as
// Status [StatusUnauthorised] with a nil error. Errors are reserved for bad
// input ([ErrSessionHandleRequired], [ErrPayloadInvalid], [ErrPayloadTooLarge])
// and backend failures ([ErrStorageUnavailable]).
//
// # Architecture boundaries
//
// jwtdata is the public surface. It exposes [Engine], [Builder], [Config], and value types.
// Flow orchestration, audit dispatch, and metric storage live under internal/.
// Session persistence lives in the session package; the HTTP surface lives in api
// and middleware.
//
// # What this package must NOT do
//
//   - Create, refresh, or delete sessions. The session lifecycle belongs elsewhere.
//   - Merge payloads. Writes replace the payload wholesale.
//   - Retry storage calls. Callers decide whether to retry.
//   - Log. Observability goes through audit sinks and metrics.
//
// # Performance contract
//
// GetPayload is one Redis GET. SetPayload is one Lua EVALSHA, or a GET plus an
// EVALSHA when a [SessionValidator] is installed. An enabled Throttle adds a
// counter GET to both, and an INCR to every UNAUTHORISED answer.
package jwtdata
