// Package middleware exposes net/http adapters that prepare a request for the
// payload API: protocol version negotiation, API key checks, request
// correlation, and bearer-token guards for tokens the Engine issues.
//
// # Adapters
//
//   - [Negotiate]: resolves the cdi-version header to a [protocol.Version].
//   - [RequireAPIKey]: rejects requests without a configured api-key.
//   - [RequestContext]: request id, client IP, and tenant on the context.
//   - [RequireAccessToken]: verifies a bearer token issued by the Engine.
//
// # What this package must NOT do
//
//   - Decide payload authorization (the Engine does).
//   - Access Redis.
//   - Parse request bodies.
package middleware
