// Package session provides Redis-backed session persistence and compact binary session
// encoding for the JWT payload access path.
//
// # Binary encoding
//
// Sessions are stored in Redis as a compact binary record with a leading schema byte.
// The JWT payload is the trailing, length-prefixed section of the record so the
// replace script can swap it without decoding any JSON.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model. It does NOT
// interpret payload contents, negotiate protocol versions, or shape responses; those
// responsibilities belong to the Engine and the api package.
//
// # What this package must NOT do
//
//   - Import jwtdata, api, or middleware (no upward imports).
//   - Merge payloads. A payload write always replaces the stored payload wholesale.
//   - Convert storage failures into not-found results.
package session
